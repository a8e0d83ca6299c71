package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ebranlund/circlet/internal/activity"
	"github.com/ebranlund/circlet/internal/api"
	"github.com/ebranlund/circlet/internal/auth"
	"github.com/ebranlund/circlet/internal/cache"
	"github.com/ebranlund/circlet/internal/config"
	"github.com/ebranlund/circlet/internal/feed"
	"github.com/ebranlund/circlet/internal/logging"
	"github.com/ebranlund/circlet/internal/poller"
	"github.com/ebranlund/circlet/internal/seen"
	"github.com/ebranlund/circlet/internal/ui"
)

// session holds the state that exists only while a credential is valid:
// the background poller, the open feed, and the per-session seen
// tracker. It is torn down on logout or token expiry and rebuilt on the
// next login.
type session struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	poll    *poller.Poller
	feed    *feed.Feed
	tracker *seen.Tracker
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "circlet:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := logging.Init(dataDir); err != nil {
		return err
	}
	defer logging.Close()

	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	tokens, err := auth.NewStore(filepath.Join(dataDir, "tokens.json"))
	if err != nil {
		return err
	}

	client := api.New(cfg.ServerURL, cfg.RequestTimeout, tokens)

	store, err := cache.Open(filepath.Join(dataDir, "circlet.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	agg := activity.NewAggregator(client, cfg.PageSize)

	sess := &session{tracker: seen.NewTracker(client)}

	var program *tea.Program

	startSession := func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.cancel != nil {
			return
		}
		pollCtx, pollCancel := context.WithCancel(ctx)
		sess.cancel = pollCancel
		sess.poll = poller.New(client, cfg.PollInterval, func(c poller.Counts, err error) {
			program.Send(ui.CountsUpdated{Counts: c, Err: err})
		})
		sess.poll.Start(pollCtx)
	}

	stopSession := func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.cancel == nil {
			return
		}
		sess.cancel()
		sess.poll.Wait()
		sess.cancel = nil
		sess.poll = nil
		sess.feed = nil
		sess.tracker.Reset()
	}

	tick := func() {
		sess.mu.Lock()
		p := sess.poll
		sess.mu.Unlock()
		if p != nil {
			p.Tick()
		}
	}

	actions := activity.NewActions(client, agg, tick)

	// activityMsg publishes the aggregator state after a load or
	// mutation, persisting the unfiltered timeline for the next warm
	// start. A suppressed append is not an error worth showing.
	activityMsg := func(err error) tea.Msg {
		if err != nil && !errors.Is(err, activity.ErrLoadInProgress) {
			return ui.ActivityUpdated{Err: err}
		}
		snap := agg.Snapshot()
		if snap.Filter == activity.FilterAll {
			if username := tokens.Username(); username != "" {
				if err := store.ReplaceTimeline(username, snap.Items); err != nil {
					logging.Warn("timeline cache write failed", "err", err)
				}
			}
		}
		return ui.ActivityUpdated{Snap: snap}
	}

	currentFeed := func() *feed.Feed {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.feed
	}

	deps := ui.Deps{
		Login: func(username, password string) tea.Cmd {
			return func() tea.Msg {
				if err := client.Login(ctx, username, password); err != nil {
					return ui.LoginFailed{Err: err}
				}
				user, err := client.Me(ctx)
				if err != nil {
					logging.Warn("profile fetch failed after login", "err", err)
					user = api.User{Username: username}
				}
				startSession()
				return ui.LoggedIn{User: user}
			}
		},

		Logout: func() tea.Cmd {
			return func() tea.Msg {
				username := tokens.Username()
				stopSession()
				client.Logout()
				if username != "" {
					if err := store.Purge(username); err != nil {
						logging.Warn("cache purge failed", "err", err)
					}
				}
				return ui.LoggedOut{}
			}
		},

		WarmStart: func() tea.Cmd {
			return func() tea.Msg {
				username := tokens.Username()
				if username == "" {
					return nil
				}
				items, err := store.Timeline(username)
				if err != nil {
					logging.Warn("timeline cache read failed", "err", err)
					return nil
				}
				return ui.CacheWarmed{Items: items}
			}
		},

		LoadActivity: func(filter activity.Filter, reset bool) tea.Cmd {
			return func() tea.Msg {
				return activityMsg(agg.Load(ctx, filter, reset))
			}
		},

		AcceptInvite: func(id string) tea.Cmd {
			return func() tea.Msg { return activityMsg(actions.AcceptInvite(ctx, id)) }
		},
		RejectInvite: func(id string) tea.Cmd {
			return func() tea.Msg { return activityMsg(actions.RejectInvite(ctx, id)) }
		},
		MarkRead: func(id string) tea.Cmd {
			return func() tea.Msg { return activityMsg(actions.MarkRead(ctx, id)) }
		},
		MarkAllRead: func() tea.Cmd {
			return func() tea.Msg { return activityMsg(actions.MarkAllRead(ctx)) }
		},

		PollNow: func() tea.Cmd {
			return func() tea.Msg {
				tick()
				return nil
			}
		},

		LoadCircles: func() tea.Cmd {
			return func() tea.Msg {
				circles, err := client.MyCircles(ctx)
				return ui.CirclesLoaded{Circles: circles, Err: err}
			}
		},

		OpenFeed: func(circleID, circleName string) tea.Cmd {
			return func() tea.Msg {
				f := feed.New(client, circleID, cfg.PageSize)
				if err := f.Load(ctx, true); err != nil {
					return ui.FeedOpened{CircleID: circleID, CircleName: circleName, Err: err}
				}
				sess.mu.Lock()
				sess.feed = f
				sess.mu.Unlock()
				snap := f.Snapshot()
				markKnownSeen(sess.tracker, snap)
				return ui.FeedOpened{CircleID: circleID, CircleName: circleName, Snap: snap}
			}
		},

		LoadFeed: func(reset bool) tea.Cmd {
			return func() tea.Msg {
				f := currentFeed()
				if f == nil {
					return nil
				}
				if err := f.Load(ctx, reset); err != nil {
					return ui.FeedUpdated{Err: err}
				}
				snap := f.Snapshot()
				markKnownSeen(sess.tracker, snap)
				return ui.FeedUpdated{Snap: snap}
			}
		},

		Vote: func(postID string, optionIndex int) tea.Cmd {
			return func() tea.Msg {
				f := currentFeed()
				if f == nil {
					return nil
				}
				if err := f.Vote(ctx, postID, optionIndex); err != nil {
					return ui.FeedUpdated{Err: err}
				}
				return ui.FeedUpdated{Snap: f.Snapshot()}
			}
		},

		ObserveSeen: func(postID string) tea.Cmd {
			return func() tea.Msg {
				f := currentFeed()
				if f == nil {
					return nil
				}
				sent, err := sess.tracker.Observe(ctx, postID)
				if err != nil || !sent {
					// Failed writes retry on a later visibility cycle;
					// nothing to render either way.
					return nil
				}
				f.MarkSeenLocally(postID)
				return ui.FeedUpdated{Snap: f.Snapshot()}
			}
		},
	}

	authed := !tokens.Get().Empty()
	app := ui.NewApp(deps, authed, tokens.Username())
	program = tea.NewProgram(app, tea.WithAltScreen())

	// A failed refresh clears the credential; push the session back to
	// the login screen from here.
	client.SetAuthExpiredHandler(func() {
		logging.Info("session expired")
		go func() {
			stopSession()
			program.Send(ui.SessionExpired{})
		}()
	})

	if authed {
		startSession()
	}

	logging.Info("starting", "server", cfg.ServerURL, "authed", authed)
	if _, err := program.Run(); err != nil {
		return err
	}

	cancel()
	stopSession()
	return nil
}

// markKnownSeen tells the tracker about posts the server already has
// seen records for, so visibility never produces a duplicate write.
func markKnownSeen(tr *seen.Tracker, snap feed.Snapshot) {
	for _, p := range snap.Posts {
		if p.IsSeenByUser {
			tr.MarkAlreadySeen(p.ID)
		}
	}
}
