package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorInvite    = lipgloss.Color("208") // Orange
)

// SelectedItem style for the currently highlighted row.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// UnreadItem style for unread notifications and pending invites.
var UnreadItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// ReadItem style for read notifications.
var ReadItem = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// AmbientItem style for derived activity events. They are read-only
// context and render dimmer than anything actionable.
var AmbientItem = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// KindBadge styles per timeline kind.
var (
	InviteBadge = lipgloss.NewStyle().
			Foreground(colorInvite).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			MarginRight(1)

	NotifBadge = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			MarginRight(1)

	EventBadge = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			MarginRight(1)
)

// FilterTabActive style for the selected filter tab.
var FilterTabActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// FilterTab style for inactive filter tabs.
var FilterTab = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// BadgeCount style for the unread badge in the header.
var BadgeCount = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorHighlight).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in the status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in the status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help and empty-state text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// TitleStyle for view headers.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// PostAuthor style for post author names in the feed.
var PostAuthor = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary)

// PostMeta style for timestamps, seen counts, comment counts.
var PostMeta = lipgloss.NewStyle().
	Foreground(colorMuted)

// PollBar style for poll result bars.
var PollBar = lipgloss.NewStyle().
	Foreground(colorSuccess)

// PollVoted style marking the option the user voted for.
var PollVoted = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorSuccess)
