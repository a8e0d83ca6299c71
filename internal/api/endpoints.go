package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ebranlund/circlet/internal/auth"
)

// Login authenticates and stores the returned credential pair.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return &ValidationError{Msg: "username and password are required"}
	}

	var tr TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"username": username, "password": password}, &tr)
	if err != nil {
		return err
	}
	c.tokens.Set(auth.Credential{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken})
	return nil
}

// Logout drops the stored credential. Purely client-side; the server's
// tokens simply expire.
func (c *Client) Logout() {
	c.tokens.Clear()
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &u)
	return u, err
}

// Invitations returns all pending invites for the current user. The
// source is not paginated; the full set comes back on every call.
func (c *Client) Invitations(ctx context.Context) ([]Invitation, error) {
	var out []Invitation
	err := c.do(ctx, http.MethodGet, "/users/me/invitations", nil, &out)
	return out, err
}

// Notifications returns one page of notifications, newest first.
func (c *Client) Notifications(ctx context.Context, limit, skip int, unreadOnly bool) ([]Notification, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("skip", fmt.Sprint(skip))
	if unreadOnly {
		q.Set("unread_only", "true")
	}

	var out []Notification
	err := c.do(ctx, http.MethodGet, "/users/me/notifications?"+q.Encode(), nil, &out)
	return out, err
}

// ActivityFeed returns the derived activity events for the current user,
// newest first. The server drains the delivery queue as it responds, so
// each event is delivered at most once per user.
func (c *Client) ActivityFeed(ctx context.Context) ([]ActivityEvent, error) {
	var out []ActivityEvent
	err := c.do(ctx, http.MethodGet, "/users/me/activity-feed", nil, &out)
	return out, err
}

// AcceptInvite accepts a pending invitation.
func (c *Client) AcceptInvite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/invitations/"+url.PathEscape(id)+"/accept", nil, nil)
}

// RejectInvite rejects a pending invitation.
func (c *Client) RejectInvite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/invitations/"+url.PathEscape(id)+"/reject", nil, nil)
}

// MarkRead marks a single notification as read. Idempotent server-side.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead marks every unread notification as read. Idempotent.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/users/me/notifications/read-all", nil, nil)
}

// MyCircles lists the circles the user belongs to.
func (c *Client) MyCircles(ctx context.Context) ([]Circle, error) {
	var out []Circle
	err := c.do(ctx, http.MethodGet, "/circles/mine", nil, &out)
	return out, err
}

// CircleFeed returns one page of a circle's post feed.
func (c *Client) CircleFeed(ctx context.Context, circleID string, limit, skip int) (FeedPage, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("skip", fmt.Sprint(skip))

	var out FeedPage
	err := c.do(ctx, http.MethodGet, "/circles/"+url.PathEscape(circleID)+"/feed?"+q.Encode(), nil, &out)
	return out, err
}

// MarkSeen records that the current user has seen a post. Idempotent.
func (c *Client) MarkSeen(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/seen", nil, nil)
}

// PostSeenStatus returns which circle members have and haven't seen a post.
func (c *Client) PostSeenStatus(ctx context.Context, postID string) (SeenStatus, error) {
	var out SeenStatus
	err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/seen-status", nil, &out)
	return out, err
}

// VotePoll casts (or moves) the user's vote and returns the authoritative
// aggregated results, which must wholly replace any local tallies.
func (c *Client) VotePoll(ctx context.Context, postID string, optionIndex int) (PollResults, error) {
	if optionIndex < 0 {
		return PollResults{}, &ValidationError{Msg: "option index must be non-negative"}
	}

	var out struct {
		Status      string      `json:"status"`
		PollResults PollResults `json:"poll_results"`
	}
	err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/poll-vote",
		map[string]int{"option_index": optionIndex}, &out)
	return out.PollResults, err
}
