// Package ui provides the Bubble Tea TUI for circlet.
package ui

import (
	"github.com/ebranlund/circlet/internal/activity"
	"github.com/ebranlund/circlet/internal/api"
	"github.com/ebranlund/circlet/internal/feed"
	"github.com/ebranlund/circlet/internal/poller"
)

// LoggedIn is sent when a login attempt succeeds.
type LoggedIn struct {
	User api.User
}

// LoginFailed is sent when a login attempt is rejected.
type LoginFailed struct {
	Err error
}

// SessionExpired is sent (from outside the program, via Send) when a
// token refresh fails and the credential has been cleared.
type SessionExpired struct{}

// LoggedOut is sent when an explicit logout completes.
type LoggedOut struct{}

// CacheWarmed carries the previous session's cached timeline, shown
// until the first live load commits.
type CacheWarmed struct {
	Items []activity.Item
}

// ActivityUpdated carries the aggregator state after any load or
// mutation settles.
type ActivityUpdated struct {
	Snap activity.Snapshot
	Err  error
}

// CountsUpdated is sent by the background poller after each cycle.
type CountsUpdated struct {
	Counts poller.Counts
	Err    error
}

// CirclesLoaded is sent when the user's circle memberships are fetched.
type CirclesLoaded struct {
	Circles []api.Circle
	Err     error
}

// FeedOpened is sent when a circle's feed has been created and its
// first page loaded.
type FeedOpened struct {
	CircleID   string
	CircleName string
	Snap       feed.Snapshot
	Err        error
}

// FeedUpdated carries feed state after a load, vote, or seen write.
type FeedUpdated struct {
	Snap feed.Snapshot
	Err  error
}
