// Package feed holds the state of one circle's post feed: paginated
// posts, poll voting, and the optimistic seen counter the Seen Tracker
// reconciles.
package feed

import (
	"context"
	"sync"

	"github.com/ebranlund/circlet/internal/api"
)

// Source is the slice of the API the feed consumes.
type Source interface {
	CircleFeed(ctx context.Context, circleID string, limit, skip int) (api.FeedPage, error)
	VotePoll(ctx context.Context, postID string, optionIndex int) (api.PollResults, error)
}

// Feed is the paginated post list for one circle. Same discipline as the
// activity timeline: append-only within a session, wholly replaced on
// reset, in-flight loads fenced by generation.
type Feed struct {
	src      Source
	circleID string
	pageSize int

	mu      sync.Mutex
	posts   []api.Post
	skip    int
	hasMore bool
	loading bool
	lastErr error
	gen     uint64
}

// New creates a feed for the given circle.
func New(src Source, circleID string, pageSize int) *Feed {
	return &Feed{
		src:      src,
		circleID: circleID,
		pageSize: pageSize,
		hasMore:  true,
	}
}

// CircleID returns the circle this feed belongs to.
func (f *Feed) CircleID() string { return f.circleID }

// Snapshot is an immutable view for rendering.
type Snapshot struct {
	Posts   []api.Post
	HasMore bool
	Loading bool
	Err     error
}

// Snapshot returns the current feed state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	posts := make([]api.Post, len(f.posts))
	copy(posts, f.posts)
	return Snapshot{Posts: posts, HasMore: f.hasMore, Loading: f.loading, Err: f.lastErr}
}

// Load fetches a page. Reset replaces the feed from the top; append
// fetches at the current watermark. Appends are suppressed while loading;
// resets preempt and fence out stale results.
func (f *Feed) Load(ctx context.Context, reset bool) error {
	f.mu.Lock()
	if !reset {
		if f.loading {
			f.mu.Unlock()
			return nil
		}
		if !f.hasMore {
			f.mu.Unlock()
			return nil
		}
	}
	f.gen++
	gen := f.gen
	f.loading = true
	skip := f.skip
	if reset {
		skip = 0
	}
	f.mu.Unlock()

	page, err := f.src.CircleFeed(ctx, f.circleID, f.pageSize, skip)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return nil // a newer load owns the state
	}
	f.loading = false
	if err != nil {
		f.lastErr = err
		return err
	}

	if reset {
		f.posts = page.Posts
	} else {
		f.posts = append(f.posts, page.Posts...)
	}
	f.lastErr = nil
	f.skip = skip + len(page.Posts)
	f.hasMore = page.HasMore
	return nil
}

// Vote casts the user's vote on a poll post. The server's aggregated
// results wholly replace the local ones; the client never recomputes
// tallies from stale state. A failed vote leaves the post untouched.
func (f *Feed) Vote(ctx context.Context, postID string, optionIndex int) error {
	results, err := f.src.VotePoll(ctx, postID, optionIndex)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == postID {
			r := results
			f.posts[i].PollResults = &r
			break
		}
	}
	return nil
}

// MarkSeenLocally bumps the optimistic seen counter after the Seen
// Tracker's write succeeds. The next feed load replaces it with the
// server's authoritative count.
func (f *Feed) MarkSeenLocally(postID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == postID && !f.posts[i].IsSeenByUser {
			f.posts[i].IsSeenByUser = true
			f.posts[i].SeenByCount++
			break
		}
	}
}
