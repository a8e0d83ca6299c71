// Package seen reports post visibility to the server at most once per
// post per session.
//
// Each post moves through a small state machine: unseen → sending → sent.
// The sending state guarantees at most one outstanding write per post; a
// failed write drops back to unseen so a later visibility cycle can retry
// (best effort, not guaranteed). Once sent, the post is done for the
// session and never reported again.
package seen

import (
	"context"
	"sync"

	"github.com/ebranlund/circlet/internal/logging"
)

// State of a single post's seen record.
type State int

const (
	StateUnseen State = iota
	StateSending
	StateSent
)

func (s State) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StateSending:
		return "sending"
	case StateSent:
		return "sent"
	default:
		return "unknown"
	}
}

// Reporter is the write the tracker performs.
type Reporter interface {
	MarkSeen(ctx context.Context, postID string) error
}

// Tracker tracks seen state per post for one session.
type Tracker struct {
	rep Reporter

	mu     sync.Mutex
	states map[string]State
}

// NewTracker creates an empty tracker.
func NewTracker(rep Reporter) *Tracker {
	return &Tracker{
		rep:    rep,
		states: make(map[string]State),
	}
}

// State returns the post's current state.
func (t *Tracker) State(postID string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[postID]
}

// begin claims the write slot for a post. Returns false when the post is
// already sending or sent.
func (t *Tracker) begin(postID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states[postID] != StateUnseen {
		return false
	}
	t.states[postID] = StateSending
	return true
}

// finish settles the write: sent on success, back to unseen on failure.
func (t *Tracker) finish(postID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.states[postID] = StateUnseen
		return
	}
	t.states[postID] = StateSent
}

// Observe handles a post entering the viewport. If the post is unseen it
// performs the seen write synchronously (call from a background
// goroutine, not a render loop) and returns whether a write was issued.
// Repeat observations of a sending or sent post do nothing.
func (t *Tracker) Observe(ctx context.Context, postID string) (bool, error) {
	if postID == "" || !t.begin(postID) {
		return false, nil
	}

	err := t.rep.MarkSeen(ctx, postID)
	t.finish(postID, err)
	if err != nil {
		logging.Warn("seen report failed", "post", postID, "err", err)
		return true, err
	}
	logging.Debug("seen reported", "post", postID)
	return true, nil
}

// MarkAlreadySeen records that the server already has a seen record for
// this post (is_seen_by_user on a fetched feed page), so no write is ever
// issued for it.
func (t *Tracker) MarkAlreadySeen(postID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states[postID] == StateUnseen {
		t.states[postID] = StateSent
	}
}

// Reset clears all records; call when the session ends.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = make(map[string]State)
}
