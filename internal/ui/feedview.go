package ui

import (
	"fmt"
	"strings"

	"github.com/ebranlund/circlet/internal/api"
)

// Posts render as multi-line blocks: a header line, the body text, and
// poll options when present. Scrolling is by post, not by line, so the
// visible range used for seen reporting matches what is on screen.

// postLineCount returns how many lines a post's block occupies.
func postLineCount(p api.Post) int {
	lines := 2 // header + body
	if p.PollResults != nil {
		lines += len(p.PollResults.Options) + 1 // options + total line
	}
	return lines + 1 // trailing blank separator
}

// feedScrollOffset finds the first post index such that the blocks from
// there through the cursor fit within height.
func feedScrollOffset(posts []api.Post, cursor, height int) int {
	if len(posts) == 0 || cursor < 0 {
		return 0
	}
	if cursor >= len(posts) {
		cursor = len(posts) - 1
	}

	offset := cursor
	lines := postLineCount(posts[cursor])
	for offset > 0 {
		next := lines + postLineCount(posts[offset-1])
		if next > height {
			break
		}
		lines = next
		offset--
	}
	return offset
}

// visiblePostRange returns the inclusive index range of posts at least
// partially on screen. The seen tracker treats this as the viewport.
func visiblePostRange(posts []api.Post, cursor, height int) (from, to int) {
	if len(posts) == 0 {
		return 0, -1
	}
	from = feedScrollOffset(posts, cursor, height)
	lines := 0
	to = from
	for i := from; i < len(posts); i++ {
		lines += postLineCount(posts[i])
		to = i
		if lines >= height {
			break
		}
	}
	return from, to
}

// renderFeed renders the post list for the open circle.
func renderFeed(posts []api.Post, cursor, width, height int) string {
	if len(posts) == 0 {
		return HelpStyle.Render("No posts in this circle yet.") + "\n"
	}

	var b strings.Builder
	rendered := 0
	offset := feedScrollOffset(posts, cursor, height)

	for i := offset; i < len(posts) && rendered < height; i++ {
		block := renderPost(posts[i], i == cursor, width)
		for _, line := range strings.Split(block, "\n") {
			if rendered >= height {
				break
			}
			b.WriteString(line)
			b.WriteString("\n")
			rendered++
		}
	}
	for rendered < height {
		b.WriteString("\n")
		rendered++
	}
	return b.String()
}

func renderPost(p api.Post, selected bool, width int) string {
	var b strings.Builder

	// Header: author, age, seen and comment counts.
	meta := formatAgeShort(p.CreatedAt)
	if p.SeenByCount > 0 {
		meta += fmt.Sprintf(" · seen by %d", p.SeenByCount)
	}
	if p.CommentCount > 0 {
		meta += fmt.Sprintf(" · %d comments", p.CommentCount)
	}
	if !p.IsSeenByUser {
		meta += " · new"
	}
	header := PostAuthor.Render(p.AuthorUsername) + "  " + PostMeta.Render(meta)
	if selected {
		header = SelectedItem.Render(p.AuthorUsername+"  "+meta)
	}
	b.WriteString(header)
	b.WriteString("\n")

	// Body.
	body := p.Text()
	if body == "" && p.PostType() == "poll" {
		if q, ok := p.Content["question"].(string); ok {
			body = q
		}
	}
	bodyWidth := width - 4
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	b.WriteString("  " + truncate(body, bodyWidth))
	b.WriteString("\n")

	if p.PollResults != nil {
		b.WriteString(renderPoll(p.PollResults, width))
	}

	return b.String()
}

// renderPoll renders the server-computed tallies. The numbers come from
// the vote response or the feed page verbatim; nothing is recomputed
// here.
func renderPoll(r *api.PollResults, width int) string {
	var b strings.Builder
	barWidth := width / 3
	if barWidth < 10 {
		barWidth = 10
	}

	for i, opt := range r.Options {
		marker := fmt.Sprintf("  %d. ", i+1)
		filled := 0
		if r.TotalVotes > 0 {
			filled = opt.Votes * barWidth / r.TotalVotes
		}
		bar := PollBar.Render(strings.Repeat("█", filled)) +
			PostMeta.Render(strings.Repeat("░", barWidth-filled))

		label := truncate(opt.Text, 24)
		if r.UserVotedIndex != nil && *r.UserVotedIndex == i {
			label = PollVoted.Render(label + " ✓")
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", marker, label, bar, PostMeta.Render(fmt.Sprintf("%d", opt.Votes))))
	}

	total := fmt.Sprintf("  %d votes", r.TotalVotes)
	if r.IsExpired {
		total += " · closed"
	} else if r.ExpiresAt != nil {
		total += " · ends " + formatAgeShort(*r.ExpiresAt)
	}
	b.WriteString(PostMeta.Render(total))
	b.WriteString("\n")
	return b.String()
}

func renderFeedStatusBar(cursor, total, width int, loading bool) string {
	var position string
	if loading {
		position = " Loading... "
	} else if total == 0 {
		position = " 0/0 "
	} else {
		position = fmt.Sprintf(" %d/%d ", cursor+1, total)
	}

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("1-9") + StatusBarText.Render(":vote"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("Esc") + StatusBarText.Render(":back"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	return composeStatusBar(position, strings.Join(keys, " "), width)
}
