// Package activity merges the three backend activity sources (pending
// invitations, notifications, derived activity events) into a single
// chronological timeline with filtering and incremental loading.
package activity

import (
	"sort"
	"time"

	"github.com/ebranlund/circlet/internal/api"
)

// Kind discriminates the item union. The numeric order is also the
// tie-break order when timestamps collide: invites sort above
// notifications, notifications above events, keeping re-renders
// deterministic.
type Kind int

const (
	KindInvite Kind = iota
	KindNotification
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindInvite:
		return "invite"
	case KindNotification:
		return "notification"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Item is the tagged union flowing through the timeline. Exactly one of
// the payload pointers is set, matching Kind.
type Item struct {
	Kind         Kind
	Invite       *api.Invitation
	Notification *api.Notification
	Event        *api.ActivityEvent
}

// NewInvite wraps an invitation.
func NewInvite(inv api.Invitation) Item {
	return Item{Kind: KindInvite, Invite: &inv}
}

// NewNotification wraps a notification.
func NewNotification(n api.Notification) Item {
	return Item{Kind: KindNotification, Notification: &n}
}

// NewEvent wraps an activity event.
func NewEvent(ev api.ActivityEvent) Item {
	return Item{Kind: KindEvent, Event: &ev}
}

// Timestamp returns the single sort key for the item.
func (it Item) Timestamp() time.Time {
	switch it.Kind {
	case KindInvite:
		return it.Invite.CreatedAt
	case KindNotification:
		return it.Notification.CreatedAt
	case KindEvent:
		return it.Event.Timestamp
	default:
		return time.Time{}
	}
}

// ID returns the item's server identifier. Events carry one too, but it
// is never used for mutation (events have no read state).
func (it Item) ID() string {
	switch it.Kind {
	case KindInvite:
		return it.Invite.ID
	case KindNotification:
		return it.Notification.ID
	case KindEvent:
		return it.Event.ID
	default:
		return ""
	}
}

// Unread reports whether the item counts toward the unread badge.
// Invites are always unread until acted on; events are ambient and never
// count.
func (it Item) Unread() bool {
	switch it.Kind {
	case KindInvite:
		return true
	case KindNotification:
		return !it.Notification.IsRead
	default:
		return false
	}
}

// sortDescending orders items newest-first, breaking timestamp ties by
// kind so the merge is stable across re-renders.
func sortDescending(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].Timestamp(), items[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return items[i].Kind < items[j].Kind
	})
}
