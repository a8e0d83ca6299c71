package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ebranlund/circlet/internal/api"
)

var base = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

// fakeBackend implements Source and Mutator over in-memory fixtures,
// with enough instrumentation to assert call patterns.
type fakeBackend struct {
	mu      sync.Mutex
	invites []api.Invitation
	notifs  []api.Notification
	events  []api.ActivityEvent

	notifCalls [][2]int // recorded (limit, skip)
	failNext   error

	// holdNotifs, when non-nil, blocks the next Notifications call until
	// closed. notifStarted is signaled just before blocking.
	holdNotifs   chan struct{}
	notifStarted chan struct{}
}

func (f *fakeBackend) Invitations(ctx context.Context) ([]api.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		return nil, f.failNext
	}
	out := make([]api.Invitation, len(f.invites))
	copy(out, f.invites)
	return out, nil
}

func (f *fakeBackend) Notifications(ctx context.Context, limit, skip int, unreadOnly bool) ([]api.Notification, error) {
	f.mu.Lock()
	hold := f.holdNotifs
	started := f.notifStarted
	f.holdNotifs = nil
	f.notifStarted = nil
	if f.failNext != nil {
		err := f.failNext
		f.mu.Unlock()
		return nil, err
	}
	f.notifCalls = append(f.notifCalls, [2]int{limit, skip})

	var filtered []api.Notification
	for _, n := range f.notifs {
		if unreadOnly && n.IsRead {
			continue
		}
		filtered = append(filtered, n)
	}
	f.mu.Unlock()

	if hold != nil {
		if started != nil {
			close(started)
		}
		<-hold
	}

	if skip >= len(filtered) {
		return nil, nil
	}
	end := min(skip+limit, len(filtered))
	return filtered[skip:end], nil
}

func (f *fakeBackend) ActivityFeed(ctx context.Context) ([]api.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		return nil, f.failNext
	}
	out := make([]api.ActivityEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeBackend) AcceptInvite(ctx context.Context, id string) error {
	return f.removeInvite(id)
}

func (f *fakeBackend) RejectInvite(ctx context.Context, id string) error {
	return f.removeInvite(id)
}

func (f *fakeBackend) removeInvite(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		return f.failNext
	}
	for i, inv := range f.invites {
		if inv.ID == id {
			f.invites = append(f.invites[:i], f.invites[i+1:]...)
			return nil
		}
	}
	return &api.ServerError{Status: 404, Detail: "Invitation not found"}
}

func (f *fakeBackend) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		return f.failNext
	}
	for i := range f.notifs {
		if f.notifs[i].ID == id {
			f.notifs[i].IsRead = true
			return nil
		}
	}
	return &api.ServerError{Status: 404, Detail: "Notification not found"}
}

func (f *fakeBackend) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		return f.failNext
	}
	for i := range f.notifs {
		f.notifs[i].IsRead = true
	}
	return nil
}

func invite(id string, ts time.Time) api.Invitation {
	return api.Invitation{ID: id, CircleID: "c1", CircleName: "hikers", InviterUsername: "bea", CreatedAt: ts}
}

func notification(id string, ts time.Time, read bool) api.Notification {
	return api.Notification{ID: id, Type: api.NotificationNewComment, IsRead: read, CreatedAt: ts}
}

func event(id string, ts time.Time) api.ActivityEvent {
	return api.ActivityEvent{ID: id, CircleID: "c1", ActorUsername: "cal", EventType: api.EventNewPost, Timestamp: ts}
}

// TestMergeOrdering: invites at [T2, T4] and notifications at [T1, T3]
// merge to [T4, T3, T2, T1].
func TestMergeOrdering(t *testing.T) {
	t1, t2, t3, t4 := base, base.Add(time.Minute), base.Add(2*time.Minute), base.Add(3*time.Minute)
	f := &fakeBackend{
		invites: []api.Invitation{invite("i2", t2), invite("i4", t4)},
		notifs:  []api.Notification{notification("n3", t3, false), notification("n1", t1, false)},
	}
	agg := NewAggregator(f, 20)

	if err := agg.Load(context.Background(), FilterAll, true); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	snap := agg.Snapshot()
	wantIDs := []string{"i4", "n3", "i2", "n1"}
	if len(snap.Items) != len(wantIDs) {
		t.Fatalf("items = %d, want %d", len(snap.Items), len(wantIDs))
	}
	for i, want := range wantIDs {
		if snap.Items[i].ID() != want {
			t.Errorf("items[%d] = %s, want %s", i, snap.Items[i].ID(), want)
		}
	}
}

// TestTieBreakByKind: identical timestamps sort invite, notification,
// event, keeping re-renders deterministic.
func TestTieBreakByKind(t *testing.T) {
	f := &fakeBackend{
		invites: []api.Invitation{invite("i1", base)},
		notifs:  []api.Notification{notification("n1", base, false)},
		events:  []api.ActivityEvent{event("e1", base)},
	}
	agg := NewAggregator(f, 20)
	if err := agg.Load(context.Background(), FilterAll, true); err != nil {
		t.Fatal(err)
	}

	snap := agg.Snapshot()
	got := []Kind{snap.Items[0].Kind, snap.Items[1].Kind, snap.Items[2].Kind}
	want := []Kind{KindInvite, KindNotification, KindEvent}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie order = %v, want %v", got, want)
		}
	}
}

// TestFilterPartition checks the strict kind partition between filters.
func TestFilterPartition(t *testing.T) {
	f := &fakeBackend{
		invites: []api.Invitation{invite("i1", base.Add(time.Minute))},
		notifs: []api.Notification{
			notification("n-unread", base, false),
			notification("n-read", base.Add(-time.Minute), true),
		},
		events: []api.ActivityEvent{event("e1", base.Add(-2 * time.Minute))},
	}
	agg := NewAggregator(f, 20)
	ctx := context.Background()

	tests := []struct {
		filter Filter
		want   map[Kind]int
	}{
		{FilterAll, map[Kind]int{KindInvite: 1, KindNotification: 2, KindEvent: 1}},
		{FilterUnread, map[Kind]int{KindNotification: 1, KindEvent: 1}},
		{FilterInvites, map[Kind]int{KindInvite: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.filter.String(), func(t *testing.T) {
			if err := agg.Load(ctx, tt.filter, true); err != nil {
				t.Fatal(err)
			}
			got := map[Kind]int{}
			for _, it := range agg.Snapshot().Items {
				got[it.Kind]++
			}
			for k, n := range tt.want {
				if got[k] != n {
					t.Errorf("%v items = %d, want %d", k, got[k], n)
				}
			}
			for k, n := range got {
				if tt.want[k] == 0 && n > 0 {
					t.Errorf("filter %v leaked %d %v items", tt.filter, n, k)
				}
			}
		})
	}
}

// TestPaginationWatermark: with limit 2 over 5 notifications, pages are
// fetched at skip 0, 2, 4 and hasMore reads true, true, false.
func TestPaginationWatermark(t *testing.T) {
	f := &fakeBackend{}
	for i := range 5 {
		f.notifs = append(f.notifs, notification(
			string(rune('a'+i)), base.Add(-time.Duration(i)*time.Minute), false))
	}
	agg := NewAggregator(f, 2)
	ctx := context.Background()

	if err := agg.Load(ctx, FilterAll, true); err != nil {
		t.Fatal(err)
	}
	if !agg.Snapshot().HasMore {
		t.Error("after reset: hasMore = false, want true")
	}

	if err := agg.Load(ctx, FilterAll, false); err != nil {
		t.Fatal(err)
	}
	if !agg.Snapshot().HasMore {
		t.Error("after first append: hasMore = false, want true")
	}

	if err := agg.Load(ctx, FilterAll, false); err != nil {
		t.Fatal(err)
	}
	snap := agg.Snapshot()
	if snap.HasMore {
		t.Error("after final append: hasMore = true, want false")
	}
	if len(snap.Items) != 5 {
		t.Errorf("items = %d, want 5", len(snap.Items))
	}

	// A further append must not fetch.
	before := len(f.notifCalls)
	if err := agg.Load(ctx, FilterAll, false); err != nil {
		t.Fatal(err)
	}
	if len(f.notifCalls) != before {
		t.Error("append with hasMore=false should not fetch")
	}

	want := [][2]int{{2, 0}, {2, 2}, {2, 4}}
	if len(f.notifCalls) != len(want) {
		t.Fatalf("notification calls = %v, want %v", f.notifCalls, want)
	}
	for i := range want {
		if f.notifCalls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, f.notifCalls[i], want[i])
		}
	}
}

// TestStaleLoadFenced: a reset that settles after a newer reset has
// committed must not overwrite the newer state.
func TestStaleLoadFenced(t *testing.T) {
	f := &fakeBackend{
		invites: []api.Invitation{invite("i1", base)},
		notifs:  []api.Notification{notification("n1", base, false)},
	}
	hold := make(chan struct{})
	started := make(chan struct{})
	f.holdNotifs = hold
	f.notifStarted = started

	agg := NewAggregator(f, 20)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- agg.Load(ctx, FilterAll, true) // load A, will stall
	}()
	<-started

	// Load B preempts with a different filter and commits.
	if err := agg.Load(ctx, FilterInvites, true); err != nil {
		t.Fatal(err)
	}

	close(hold)
	if err := <-done; err != nil {
		t.Fatalf("stale load returned error: %v", err)
	}

	snap := agg.Snapshot()
	if snap.Filter != FilterInvites {
		t.Errorf("filter = %v, want invites", snap.Filter)
	}
	for _, it := range snap.Items {
		if it.Kind != KindInvite {
			t.Errorf("stale load leaked a %v item into the invites view", it.Kind)
		}
	}
	if len(snap.Items) != 1 {
		t.Errorf("items = %d, want the single invite", len(snap.Items))
	}
}

// TestAppendSuppressedWhileLoading: a concurrent append is refused, not
// queued, so double-triggers cannot duplicate a page.
func TestAppendSuppressedWhileLoading(t *testing.T) {
	f := &fakeBackend{}
	for i := range 4 {
		f.notifs = append(f.notifs, notification(
			string(rune('a'+i)), base.Add(-time.Duration(i)*time.Minute), false))
	}
	agg := NewAggregator(f, 2)
	ctx := context.Background()

	if err := agg.Load(ctx, FilterAll, true); err != nil {
		t.Fatal(err)
	}

	hold := make(chan struct{})
	started := make(chan struct{})
	f.mu.Lock()
	f.holdNotifs = hold
	f.notifStarted = started
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- agg.Load(ctx, FilterAll, false)
	}()
	<-started

	if err := agg.Load(ctx, FilterAll, false); !errors.Is(err, ErrLoadInProgress) {
		t.Errorf("concurrent append error = %v, want ErrLoadInProgress", err)
	}

	close(hold)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := len(agg.Snapshot().Items); got != 4 {
		t.Errorf("items = %d, want 4 (no duplicate page)", got)
	}
}

// TestFailedLoadKeepsItems: a failed load must not partially apply.
func TestFailedLoadKeepsItems(t *testing.T) {
	f := &fakeBackend{
		notifs: []api.Notification{notification("n1", base, false)},
	}
	agg := NewAggregator(f, 20)
	ctx := context.Background()

	if err := agg.Load(ctx, FilterAll, true); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	f.failNext = &api.NetworkError{Err: errors.New("connection refused")}
	f.mu.Unlock()

	if err := agg.Load(ctx, FilterAll, true); err == nil {
		t.Fatal("Load() should fail")
	}

	snap := agg.Snapshot()
	if snap.Err == nil {
		t.Error("snapshot should carry the load error")
	}
	if len(snap.Items) != 1 || snap.Items[0].ID() != "n1" {
		t.Errorf("items mutated by failed load: %+v", snap.Items)
	}
}

func TestSetNotificationRead(t *testing.T) {
	f := &fakeBackend{
		notifs: []api.Notification{notification("n1", base, false)},
	}
	agg := NewAggregator(f, 20)
	if err := agg.Load(context.Background(), FilterAll, true); err != nil {
		t.Fatal(err)
	}

	if !agg.SetNotificationRead("n1", true) {
		t.Fatal("SetNotificationRead should find n1")
	}
	if agg.Snapshot().UnreadCount() != 0 {
		t.Error("optimistic dim should clear the unread count")
	}
	if agg.SetNotificationRead("missing", true) {
		t.Error("SetNotificationRead should report a missing id")
	}
}
