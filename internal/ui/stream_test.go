package ui

import (
	"testing"
	"time"

	"github.com/ebranlund/circlet/internal/activity"
	"github.com/ebranlund/circlet/internal/api"
)

func TestItemTitle(t *testing.T) {
	tests := []struct {
		name string
		item activity.Item
		want string
	}{
		{
			name: "invite",
			item: activity.NewInvite(api.Invitation{InviterUsername: "bob", CircleName: "hikers"}),
			want: `bob invited you to "hikers"`,
		},
		{
			name: "invite accepted notification",
			item: activity.NewNotification(api.Notification{
				Type:    api.NotificationInviteAccepted,
				Content: api.NotificationContent{InviteeUsername: "carol", CircleName: "hikers"},
			}),
			want: `carol accepted your invite to "hikers"`,
		},
		{
			name: "unknown notification type falls back to the raw type",
			item: activity.NewNotification(api.Notification{Type: "something_new"}),
			want: "something_new",
		},
		{
			name: "new post event",
			item: activity.NewEvent(api.ActivityEvent{ActorUsername: "dave", EventType: api.EventNewPost}),
			want: "dave posted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := itemTitle(tt.item); got != tt.want {
				t.Errorf("itemTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 20); got != "short" {
		t.Errorf("truncate should not alter short strings, got %q", got)
	}
	if got := truncate("a very long title indeed", 10); got != "a very ..." {
		t.Errorf("truncate = %q, want %q", got, "a very ...")
	}
}

func TestCalcScrollOffset(t *testing.T) {
	now := time.Now()
	var items []activity.Item
	for range 20 {
		items = append(items, activity.NewNotification(api.Notification{CreatedAt: now}))
	}

	// All items share one band: header takes a line, so a height-10
	// window holds 9 items.
	if got := calcScrollOffset(items, 0, 10); got != 0 {
		t.Errorf("offset = %d with cursor at top, want 0", got)
	}

	got := calcScrollOffset(items, 19, 10)
	if lines := visibleLineCount(items, got, 19); lines > 10 {
		t.Errorf("offset %d leaves %d visible lines, exceeds window", got, lines)
	}
	if got == 0 {
		t.Error("window did not scroll for a bottom cursor")
	}
}

func TestTimeBand(t *testing.T) {
	now := time.Now()
	tests := []struct {
		age  time.Duration
		want string
	}{
		{5 * time.Minute, "Just Now"},
		{30 * time.Minute, "Past Hour"},
		{5 * time.Hour, "Today"},
		{30 * time.Hour, "Yesterday"},
		{100 * time.Hour, "Older"},
	}
	for _, tt := range tests {
		if got := TimeBand(now.Add(-tt.age)); got != tt.want {
			t.Errorf("TimeBand(-%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}
