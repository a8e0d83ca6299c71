package activity

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ebranlund/circlet/internal/api"
	"github.com/ebranlund/circlet/internal/logging"
)

// Filter selects which kinds the timeline surfaces. The partition is
// strict: all ⊇ unread ∪ invites; unread drops invites and read
// notifications (events stay, rendered as ambient); invites drops
// everything but invites.
type Filter int

const (
	FilterAll Filter = iota
	FilterUnread
	FilterInvites
)

func (f Filter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterUnread:
		return "unread"
	case FilterInvites:
		return "invites"
	default:
		return "unknown"
	}
}

// Next cycles to the following filter, wrapping around.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterUnread
	case FilterUnread:
		return FilterInvites
	default:
		return FilterAll
	}
}

// wantsInvites reports whether the filter surfaces the invite source.
func (f Filter) wantsInvites() bool { return f == FilterAll || f == FilterInvites }

// wantsNotifications reports whether the filter surfaces notifications
// and events.
func (f Filter) wantsNotifications() bool { return f == FilterAll || f == FilterUnread }

// ErrLoadInProgress is returned when an append load is requested while a
// load is already running. Reset loads are never suppressed; they preempt.
var ErrLoadInProgress = errors.New("activity: load already in progress")

// Source is the slice of the API the aggregator consumes.
type Source interface {
	Invitations(ctx context.Context) ([]api.Invitation, error)
	Notifications(ctx context.Context, limit, skip int, unreadOnly bool) ([]api.Notification, error)
	ActivityFeed(ctx context.Context) ([]api.ActivityEvent, error)
}

// Snapshot is an immutable view of the aggregation state, safe to hand to
// a renderer.
type Snapshot struct {
	Filter  Filter
	Items   []Item
	HasMore bool
	Loading bool
	Err     error
}

// UnreadCount counts the items contributing to the unread badge.
func (s Snapshot) UnreadCount() int {
	n := 0
	for _, it := range s.Items {
		if it.Unread() {
			n++
		}
	}
	return n
}

// Aggregator owns the merged timeline. Items are append-only within a
// filter session and wholly replaced on reset. The skip watermark is
// measured in notifications, the only server-paginated source; invites
// and events are refetched in full on every reset.
type Aggregator struct {
	src      Source
	pageSize int

	mu      sync.Mutex
	filter  Filter
	items   []Item
	skip    int
	hasMore bool
	loading bool
	lastErr error
	gen     uint64 // fencing: stale loads must not commit
}

// NewAggregator creates an aggregator fetching pageSize notifications per
// page.
func NewAggregator(src Source, pageSize int) *Aggregator {
	return &Aggregator{
		src:      src,
		pageSize: pageSize,
		hasMore:  true,
	}
}

// Snapshot returns the current state for rendering.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := make([]Item, len(a.items))
	copy(items, a.items)
	return Snapshot{
		Filter:  a.filter,
		Items:   items,
		HasMore: a.hasMore,
		Loading: a.loading,
		Err:     a.lastErr,
	}
}

// Filter returns the active filter.
func (a *Aggregator) Filter() Filter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

// Load fetches and merges activity. A reset replaces the whole timeline
// for the given filter; an append fetches the next notification page at
// the current watermark. Append loads are suppressed while another load
// runs; resets always proceed and fence out any in-flight load, so a late
// result can never stomp newer state.
func (a *Aggregator) Load(ctx context.Context, filter Filter, reset bool) error {
	if reset {
		return a.loadReset(ctx, filter)
	}
	return a.loadAppend(ctx)
}

func (a *Aggregator) loadReset(ctx context.Context, filter Filter) error {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.filter = filter
	a.loading = true
	a.mu.Unlock()

	var (
		invites []api.Invitation
		notifs  []api.Notification
		events  []api.ActivityEvent
	)

	// All required sources are fetched concurrently; the merge commits
	// only after every fetch has settled.
	g, gctx := errgroup.WithContext(ctx)
	if filter.wantsInvites() {
		g.Go(func() error {
			var err error
			invites, err = a.src.Invitations(gctx)
			return err
		})
	}
	if filter.wantsNotifications() {
		g.Go(func() error {
			var err error
			notifs, err = a.src.Notifications(gctx, a.pageSize, 0, filter == FilterUnread)
			return err
		})
		g.Go(func() error {
			var err error
			events, err = a.src.ActivityFeed(gctx)
			return err
		})
	}
	err := g.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		// A newer reset started while this one was in flight; its result
		// is stale and must be discarded.
		logging.Debug("discarding stale activity load", "gen", gen)
		return nil
	}
	a.loading = false
	if err != nil {
		a.lastErr = err
		return err
	}

	merged := make([]Item, 0, len(invites)+len(notifs)+len(events))
	for _, inv := range invites {
		merged = append(merged, NewInvite(inv))
	}
	for _, n := range notifs {
		merged = append(merged, NewNotification(n))
	}
	for _, ev := range events {
		merged = append(merged, NewEvent(ev))
	}
	sortDescending(merged)

	a.items = merged
	a.lastErr = nil
	a.skip = len(notifs)
	if filter.wantsNotifications() {
		a.hasMore = len(notifs) == a.pageSize
	} else {
		// An invites-only view has no paginated source.
		a.hasMore = false
	}
	return nil
}

func (a *Aggregator) loadAppend(ctx context.Context) error {
	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		return ErrLoadInProgress
	}
	if !a.hasMore {
		a.mu.Unlock()
		return nil
	}
	a.gen++
	gen := a.gen
	a.loading = true
	filter := a.filter
	skip := a.skip
	a.mu.Unlock()

	notifs, err := a.src.Notifications(ctx, a.pageSize, skip, filter == FilterUnread)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return nil
	}
	a.loading = false
	if err != nil {
		a.lastErr = err
		return err
	}

	for _, n := range notifs {
		a.items = append(a.items, NewNotification(n))
	}
	sortDescending(a.items)
	a.lastErr = nil
	a.skip += len(notifs)
	a.hasMore = len(notifs) == a.pageSize
	return nil
}

// SetNotificationRead flips the local read flag on one notification, used
// for the optimistic dim before the server confirms. Returns false when
// the id is not present.
func (a *Aggregator) SetNotificationRead(id string, read bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.items {
		if a.items[i].Kind == KindNotification && a.items[i].Notification.ID == id {
			n := *a.items[i].Notification
			n.IsRead = read
			a.items[i].Notification = &n
			return true
		}
	}
	return false
}
