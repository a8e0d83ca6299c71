package activity

import (
	"context"

	"github.com/ebranlund/circlet/internal/logging"
)

// Mutator is the write slice of the API the mutation handlers use.
type Mutator interface {
	AcceptInvite(ctx context.Context, id string) error
	RejectInvite(ctx context.Context, id string) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// Actions issues activity mutations and keeps the aggregator and the
// badge poller consistent afterwards. A failed write leaves prior state
// untouched and is never retried automatically.
type Actions struct {
	mut  Mutator
	agg  *Aggregator
	tick func() // forces an immediate poller cycle; may be nil
}

// NewActions wires the mutation handlers. tick may be nil when no poller
// is running (tests).
func NewActions(mut Mutator, agg *Aggregator, tick func()) *Actions {
	return &Actions{mut: mut, agg: agg, tick: tick}
}

// AcceptInvite accepts an invitation, then reloads the current view and
// refreshes the badge immediately instead of waiting for the next poll.
func (a *Actions) AcceptInvite(ctx context.Context, id string) error {
	if err := a.mut.AcceptInvite(ctx, id); err != nil {
		return err
	}
	logging.Info("invitation accepted", "id", id)
	return a.reconcile(ctx)
}

// RejectInvite rejects an invitation, then reconciles.
func (a *Actions) RejectInvite(ctx context.Context, id string) error {
	if err := a.mut.RejectInvite(ctx, id); err != nil {
		return err
	}
	logging.Info("invitation rejected", "id", id)
	return a.reconcile(ctx)
}

// MarkRead dims the notification optimistically, confirms with the
// server, then reconciles with a reset load. On failure the optimistic
// flip is reverted and the error surfaced.
func (a *Actions) MarkRead(ctx context.Context, id string) error {
	dimmed := a.agg.SetNotificationRead(id, true)
	if err := a.mut.MarkRead(ctx, id); err != nil {
		if dimmed {
			a.agg.SetNotificationRead(id, false)
		}
		return err
	}
	return a.reconcile(ctx)
}

// MarkAllRead marks every notification read. Idempotent: repeating it
// yields the same final unread count.
func (a *Actions) MarkAllRead(ctx context.Context) error {
	if err := a.mut.MarkAllRead(ctx); err != nil {
		return err
	}
	return a.reconcile(ctx)
}

// reconcile reset-loads the current filter view and kicks the poller.
func (a *Actions) reconcile(ctx context.Context) error {
	err := a.agg.Load(ctx, a.agg.Filter(), true)
	if a.tick != nil {
		a.tick()
	}
	return err
}
