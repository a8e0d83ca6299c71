// Package poller drives the persistent badge counts.
//
// A single background goroutine polls the lightweight sources (pending
// invites, unread notifications) on a fixed interval. Context
// cancellation is the only stop mechanism; the poller never outlives the
// session that started it. Mutation handlers call Tick to refresh the
// badge immediately instead of waiting out the interval.
package poller

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ebranlund/circlet/internal/api"
	"github.com/ebranlund/circlet/internal/logging"
)

// countsPageSize caps the unread-notification fetch; the badge saturates
// at this value.
const countsPageSize = 100

// Source is the read slice of the API the poller consumes.
type Source interface {
	Invitations(ctx context.Context) ([]api.Invitation, error)
	Notifications(ctx context.Context, limit, skip int, unreadOnly bool) ([]api.Notification, error)
}

// Counts is one badge observation.
type Counts struct {
	PendingInvites      int
	UnreadNotifications int
}

// Badge returns the total shown on the activity affordance.
func (c Counts) Badge() int { return c.PendingInvites + c.UnreadNotifications }

// Poller periodically fetches badge counts and hands them to notify.
// It owns no aggregator state; the badge counters are its only slice.
type Poller struct {
	src      Source
	interval time.Duration
	notify   func(Counts, error)
	limiter  *rate.Limiter
	kick     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Poller. notify is called after every cycle, from the
// poller goroutine, with either fresh counts or the cycle's error.
func New(src Source, interval time.Duration, notify func(Counts, error)) *Poller {
	return &Poller{
		src:      src,
		interval: interval,
		notify:   notify,
		// Background traffic is throttled so manual ticks cannot stampede
		// the server.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		kick:    make(chan struct{}, 1),
	}
}

// Start begins polling. Call with a cancellable context; cancel it on
// logout and then Wait for the goroutine to exit.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		// First observation immediately, then on the interval.
		p.cycle(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.cycle(ctx)
			case <-p.kick:
				p.cycle(ctx)
			}
		}
	}()
}

// Tick requests an immediate cycle without waiting for the interval.
// Non-blocking; coalesces when a kick is already pending.
func (p *Poller) Tick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Wait blocks until the background goroutine exits. Call after canceling
// the context passed to Start.
func (p *Poller) Wait() {
	p.wg.Wait()
}

// cycle fetches both counts and reports them. A failed cycle reports the
// error and leaves the previous badge to the consumer's discretion.
func (p *Poller) cycle(ctx context.Context) {
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	invites, err := p.src.Invitations(ctx)
	if err != nil {
		p.report(Counts{}, err)
		return
	}
	unread, err := p.src.Notifications(ctx, countsPageSize, 0, true)
	if err != nil {
		p.report(Counts{}, err)
		return
	}

	p.report(Counts{
		PendingInvites:      len(invites),
		UnreadNotifications: len(unread),
	}, nil)
}

func (p *Poller) report(c Counts, err error) {
	if err != nil {
		logging.Warn("badge poll failed", "err", err)
	}
	if p.notify != nil {
		p.notify(c, err)
	}
}
