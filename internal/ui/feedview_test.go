package ui

import (
	"testing"

	"github.com/ebranlund/circlet/internal/api"
)

func textPost(id string) api.Post {
	return api.Post{ID: id, Content: map[string]any{"post_type": "standard", "text": "hello"}}
}

func TestPostLineCount(t *testing.T) {
	plain := textPost("p1")
	if got := postLineCount(plain); got != 3 {
		t.Errorf("plain post lines = %d, want 3", got)
	}

	poll := textPost("p2")
	poll.PollResults = &api.PollResults{
		Options: []api.PollOptionResult{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	}
	if got := postLineCount(poll); got != 7 {
		t.Errorf("poll post lines = %d, want 7 (header+body+3 options+total+blank)", got)
	}
}

func TestVisiblePostRange(t *testing.T) {
	posts := []api.Post{textPost("a"), textPost("b"), textPost("c"), textPost("d")}

	// 3 lines per post, 7 rows: two full posts and part of a third.
	from, to := visiblePostRange(posts, 0, 7)
	if from != 0 || to != 2 {
		t.Errorf("range at top = [%d,%d], want [0,2]", from, to)
	}

	// Cursor at the bottom scrolls the window down.
	from, to = visiblePostRange(posts, 3, 7)
	if to != 3 {
		t.Errorf("range end = %d with cursor on last post, want 3", to)
	}
	if from == 0 {
		t.Error("window did not scroll for a bottom cursor")
	}
}

func TestVisiblePostRangeEmpty(t *testing.T) {
	from, to := visiblePostRange(nil, 0, 10)
	if to >= from {
		t.Errorf("empty feed range = [%d,%d], want empty", from, to)
	}
}

func TestFeedScrollOffsetKeepsCursorVisible(t *testing.T) {
	posts := []api.Post{textPost("a"), textPost("b"), textPost("c"), textPost("d")}

	if got := feedScrollOffset(posts, 0, 6); got != 0 {
		t.Errorf("offset = %d with cursor at top, want 0", got)
	}

	// 6 rows fit two 3-line posts; cursor on index 3 needs offset 2.
	if got := feedScrollOffset(posts, 3, 6); got != 2 {
		t.Errorf("offset = %d, want 2", got)
	}
}

func TestRenderPollMarksUserVote(t *testing.T) {
	voted := 1
	out := renderPoll(&api.PollResults{
		Options:        []api.PollOptionResult{{Text: "tea", Votes: 2}, {Text: "coffee", Votes: 1}},
		TotalVotes:     3,
		UserVotedIndex: &voted,
	}, 60)

	if !containsPlain(out, "✓") {
		t.Error("voted option not marked")
	}
	if !containsPlain(out, "3 votes") {
		t.Error("total votes missing")
	}
}

// containsPlain checks for a substring ignoring ANSI styling.
func containsPlain(s, sub string) bool {
	var b []rune
	inEsc := false
	for _, r := range s {
		switch {
		case r == 0x1b:
			inEsc = true
		case inEsc && r == 'm':
			inEsc = false
		case !inEsc:
			b = append(b, r)
		}
	}
	plain := string(b)
	for i := 0; i+len(sub) <= len(plain); i++ {
		if plain[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
