package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ebranlund/circlet/internal/activity"
	"github.com/ebranlund/circlet/internal/api"
)

// TimeBand returns a display string for grouping items by age.
func TimeBand(ts time.Time) string {
	age := time.Since(ts)
	switch {
	case age < 15*time.Minute:
		return "Just Now"
	case age < 1*time.Hour:
		return "Past Hour"
	case age < 24*time.Hour:
		return "Today"
	case age < 48*time.Hour:
		return "Yesterday"
	default:
		return "Older"
	}
}

// renderActivityHeader renders the filter tabs and the unread badge.
func renderActivityHeader(current activity.Filter, badge int, width int) string {
	tabs := []activity.Filter{activity.FilterAll, activity.FilterUnread, activity.FilterInvites}
	parts := make([]string, 0, len(tabs))
	for _, f := range tabs {
		label := f.String()
		if f == current {
			parts = append(parts, FilterTabActive.Render(label))
		} else {
			parts = append(parts, FilterTab.Render(label))
		}
	}
	left := strings.Join(parts, " ")

	right := ""
	if badge > 0 {
		right = BadgeCount.Render(fmt.Sprintf("%d", badge))
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return left + strings.Repeat(" ", padding) + right
}

// renderTimeline renders the merged activity stream with time bands.
func renderTimeline(items []activity.Item, cursor, width, height int) string {
	if len(items) == 0 {
		return HelpStyle.Render("Nothing here yet. Press 'r' to refresh or 'tab' to change filters.") + "\n"
	}

	var b strings.Builder
	currentBand := ""
	renderedLines := 0

	scrollOffset := calcScrollOffset(items, cursor, height)

	for i, item := range items {
		if renderedLines >= height {
			break
		}

		// Track band state for all items (including skipped) so headers
		// render correctly when we reach the visible region.
		band := TimeBand(item.Timestamp())
		if band != currentBand {
			currentBand = band
			if i >= scrollOffset && renderedLines < height {
				b.WriteString(TimeBandHeader.Render(band))
				b.WriteString("\n")
				renderedLines++
			}
		}

		if i < scrollOffset {
			continue
		}

		b.WriteString(renderItemLine(item, i == cursor, width))
		b.WriteString("\n")
		renderedLines++
	}

	// Pad so the status bar stays pinned to the bottom.
	for renderedLines < height {
		b.WriteString("\n")
		renderedLines++
	}

	return b.String()
}

// TimeBandHeader style for time band labels.
var TimeBandHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// calcScrollOffset finds the smallest item index such that all visible
// lines from that index through the cursor (including band headers) fit
// within height.
func calcScrollOffset(items []activity.Item, cursor, height int) int {
	if len(items) == 0 || cursor < 0 {
		return 0
	}
	if cursor >= len(items) {
		cursor = len(items) - 1
	}

	// Optimistic offset ignoring headers, then adjust upward until the
	// cursor fits. Converges in at most one step per band.
	offset := 0
	if cursor >= height {
		offset = cursor - height + 1
	}
	for offset <= cursor {
		if visibleLineCount(items, offset, cursor) <= height {
			return offset
		}
		offset++
	}
	return cursor
}

// visibleLineCount counts the lines items[from..to] render, including
// band headers appearing in that range.
func visibleLineCount(items []activity.Item, from, to int) int {
	lines := 0
	currentBand := ""
	if from > 0 {
		currentBand = TimeBand(items[from-1].Timestamp())
	}
	for i := from; i <= to && i < len(items); i++ {
		band := TimeBand(items[i].Timestamp())
		if band != currentBand {
			currentBand = band
			lines++
		}
		lines++
	}
	return lines
}

// renderItemLine renders a single timeline row.
func renderItemLine(item activity.Item, selected bool, width int) string {
	badge := kindBadge(item.Kind)
	badgeWidth := lipgloss.Width(badge)

	titleWidth := width - badgeWidth - 4
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncate(itemTitle(item), titleWidth)

	var style lipgloss.Style
	switch {
	case selected:
		style = SelectedItem
		if !item.Unread() {
			style = style.Foreground(lipgloss.Color("250")).Bold(false)
		}
	case item.Kind == activity.KindEvent:
		style = AmbientItem
	case item.Unread():
		style = UnreadItem
	default:
		style = ReadItem
	}

	return fmt.Sprintf("%s %s", badge, style.Render(title))
}

func kindBadge(k activity.Kind) string {
	switch k {
	case activity.KindInvite:
		return InviteBadge.Render("invite")
	case activity.KindNotification:
		return NotifBadge.Render("notif ")
	default:
		return EventBadge.Render("event ")
	}
}

// itemTitle builds the one-line description for a timeline item.
func itemTitle(item activity.Item) string {
	switch item.Kind {
	case activity.KindInvite:
		inv := item.Invite
		return fmt.Sprintf("%s invited you to %q", inv.InviterUsername, inv.CircleName)

	case activity.KindNotification:
		return notificationTitle(item.Notification)

	case activity.KindEvent:
		ev := item.Event
		switch ev.EventType {
		case api.EventNewPost:
			return fmt.Sprintf("%s posted", ev.ActorUsername)
		case api.EventNewComment:
			return fmt.Sprintf("%s commented", ev.ActorUsername)
		default:
			return fmt.Sprintf("%s: %s", ev.ActorUsername, ev.EventType)
		}
	}
	return ""
}

func notificationTitle(n *api.Notification) string {
	c := n.Content
	switch n.Type {
	case api.NotificationInviteReceived:
		return fmt.Sprintf("%s invited you to %q", c.InviterUsername, c.CircleName)
	case api.NotificationInviteAccepted:
		return fmt.Sprintf("%s accepted your invite to %q", c.InviteeUsername, c.CircleName)
	case api.NotificationInviteRejected:
		return fmt.Sprintf("%s declined your invite to %q", c.InviteeUsername, c.CircleName)
	case api.NotificationNewComment:
		return fmt.Sprintf("New comment in %q", c.CircleName)
	default:
		return n.Type
	}
}

// truncate shortens s to at most width runes, appending "..." when cut.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// renderCircles renders the circle membership list.
func renderCircles(circles []api.Circle, cursor, width, height int) string {
	if len(circles) == 0 {
		return HelpStyle.Render("No circles yet. Press 'r' to refresh.") + "\n"
	}

	var b strings.Builder
	offset := 0
	if cursor >= height {
		offset = cursor - height + 1
	}

	rendered := 0
	for i := offset; i < len(circles) && rendered < height; i++ {
		c := circles[i]
		meta := fmt.Sprintf("%d members", c.MemberCount)
		if c.UserRole == "admin" {
			meta += " · admin"
		}
		var line string
		if i == cursor {
			line = SelectedItem.Render(truncate(c.Name, width/2) + "  " + meta)
		} else {
			line = UnreadItem.Render(truncate(c.Name, width/2)) + "  " + PostMeta.Render(meta)
		}
		b.WriteString(line)
		b.WriteString("\n")
		rendered++
	}
	for rendered < height {
		b.WriteString("\n")
		rendered++
	}
	return b.String()
}

func formatAgeShort(ts time.Time) string {
	age := time.Since(ts)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

// renderActivityStatusBar renders the bottom bar for the activity view.
func renderActivityStatusBar(cursor, total, width int, loading bool) string {
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
		StatusBarKey.Render("tab") + StatusBarText.Render(":filter"),
		StatusBarKey.Render("a/x") + StatusBarText.Render(":invite"),
		StatusBarKey.Render("m") + StatusBarText.Render(":read"),
		StatusBarKey.Render("A") + StatusBarText.Render(":read all"),
		StatusBarKey.Render("c") + StatusBarText.Render(":circles"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	return composeStatusBar(position, strings.Join(keys, " "), width)
}

func renderCirclesStatusBar(cursor, total, width int) string {
	position := fmt.Sprintf(" %d/%d ", min(cursor+1, total), total)
	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("Enter") + StatusBarText.Render(":open"),
		StatusBarKey.Render("Esc") + StatusBarText.Render(":back"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	return composeStatusBar(position, strings.Join(keys, " "), width)
}

func composeStatusBar(left, right string, width int) string {
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}
