package api

import "time"

// Wire types for the circles backend. Field names follow the server's
// JSON (snake_case, Mongo-style "_id" primary keys).

// TokenResponse is returned by /auth/login and /auth/refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// User is the authenticated account.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// Invitation is a pending circle invite addressed to the current user.
type Invitation struct {
	ID              string    `json:"_id"`
	CircleID        string    `json:"circle_id"`
	CircleName      string    `json:"circle_name"`
	InviterID       string    `json:"inviter_id"`
	InviterUsername string    `json:"inviter_username"`
	CreatedAt       time.Time `json:"created_at"`
}

// Notification subtypes issued by the server.
const (
	NotificationInviteReceived = "invite_received"
	NotificationInviteAccepted = "invite_accepted"
	NotificationInviteRejected = "invite_rejected"
	NotificationNewComment     = "new_comment"
)

// NotificationContent carries the subtype-specific payload. The server
// allows extra keys; only the ones we render are typed.
type NotificationContent struct {
	CircleID        string `json:"circle_id,omitempty"`
	CircleName      string `json:"circle_name,omitempty"`
	InviterUsername string `json:"inviter_username,omitempty"`
	InviteeUsername string `json:"invitee_username,omitempty"`
}

// Notification is a persistent, individually markable message.
type Notification struct {
	ID        string              `json:"_id"`
	Type      string              `json:"type"`
	Content   NotificationContent `json:"content"`
	IsRead    bool                `json:"is_read"`
	CreatedAt time.Time           `json:"created_at"`
}

// Activity event types.
const (
	EventNewPost    = "new_post"
	EventNewComment = "new_comment"
)

// ActivityEvent is a derived, read-only activity record. It has no read
// state and is never individually mutable.
type ActivityEvent struct {
	ID            string    `json:"_id"`
	CircleID      string    `json:"circle_id"`
	PostID        string    `json:"post_id,omitempty"`
	ActorID       string    `json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
}

// Circle is a membership the current user holds.
type Circle struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
	MemberCount int    `json:"member_count"`
	UserRole    string `json:"user_role"`
	IsPublic    bool   `json:"is_public"`
}

// PollOptionResult is one option's aggregated tally.
type PollOptionResult struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// PollResults is the server-computed poll state. The client renders these
// numbers verbatim and never derives tallies locally.
type PollResults struct {
	Options        []PollOptionResult `json:"options"`
	TotalVotes     int                `json:"total_votes"`
	UserVotedIndex *int               `json:"user_voted_index"`
	ExpiresAt      *time.Time         `json:"expires_at,omitempty"`
	IsExpired      bool               `json:"is_expired"`
}

// Post is a feed entry within a circle. Content is the server's
// type-discriminated payload; the client renders the subset it knows.
type Post struct {
	ID             string         `json:"_id"`
	CircleID       string         `json:"circle_id"`
	CircleName     string         `json:"circle_name"`
	AuthorID       string         `json:"author_id"`
	AuthorUsername string         `json:"author_username"`
	Content        map[string]any `json:"content"`
	CreatedAt      time.Time      `json:"created_at"`
	SeenByCount    int            `json:"seen_by_count"`
	IsSeenByUser   bool           `json:"is_seen_by_user"`
	CommentCount   int            `json:"comment_count"`
	PollResults    *PollResults   `json:"poll_results,omitempty"`
}

// PostType returns the content discriminator ("standard", "poll", ...).
func (p Post) PostType() string {
	if t, ok := p.Content["post_type"].(string); ok {
		return t
	}
	return "standard"
}

// Text returns the post body text, if any.
func (p Post) Text() string {
	if t, ok := p.Content["text"].(string); ok {
		return t
	}
	return ""
}

// FeedPage is one page of a circle's feed.
type FeedPage struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
}

// SeenUser identifies a circle member in a seen-status response.
type SeenUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SeenStatus partitions a post's circle members by whether they saw it.
type SeenStatus struct {
	Seen   []SeenUser `json:"seen"`
	Unseen []SeenUser `json:"unseen"`
}
