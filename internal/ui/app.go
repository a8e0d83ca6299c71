package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ebranlund/circlet/internal/activity"
	"github.com/ebranlund/circlet/internal/api"
	"github.com/ebranlund/circlet/internal/feed"
	"github.com/ebranlund/circlet/internal/poller"
)

type mode int

const (
	modeLogin mode = iota
	modeActivity
	modeCircles
	modeFeed
)

// Deps are the command constructors the App drives. The App does NOT
// hold the aggregator, feed, or client directly; every state change
// arrives as a message produced by one of these commands (or pushed in
// from outside via Program.Send).
type Deps struct {
	Login        func(username, password string) tea.Cmd
	Logout       func() tea.Cmd
	WarmStart    func() tea.Cmd
	LoadActivity func(filter activity.Filter, reset bool) tea.Cmd
	AcceptInvite func(id string) tea.Cmd
	RejectInvite func(id string) tea.Cmd
	MarkRead     func(id string) tea.Cmd
	MarkAllRead  func() tea.Cmd
	PollNow      func() tea.Cmd
	LoadCircles  func() tea.Cmd
	OpenFeed     func(circleID, circleName string) tea.Cmd
	LoadFeed     func(reset bool) tea.Cmd
	Vote         func(postID string, optionIndex int) tea.Cmd
	ObserveSeen  func(postID string) tea.Cmd
}

// App is the root Bubble Tea model.
type App struct {
	deps Deps

	mode   mode
	login  loginModel
	user   api.User
	counts poller.Counts

	width  int
	height int
	ready  bool
	err    error

	// Activity stream. warm holds the cached timeline from the previous
	// session; it renders until the first live load commits.
	snap     activity.Snapshot
	warm     []activity.Item
	live     bool
	cursor   int
	pending  bool

	// Circles list.
	circles      []api.Circle
	circleCursor int

	// Open feed.
	feedName   string
	feedSnap   feed.Snapshot
	feedCursor int
}

// NewApp creates the root model. When authed is true the previous
// session's credential is still valid and the app skips the login view.
func NewApp(deps Deps, authed bool, username string) App {
	a := App{
		deps:  deps,
		login: newLoginModel(),
	}
	if authed {
		a.mode = modeActivity
		a.user.Username = username
	}
	return a
}

// Init starts the session: warm-start from cache, then the first live
// load. Unauthenticated sessions just focus the login form.
func (a App) Init() tea.Cmd {
	if a.mode == modeLogin {
		return a.login.init()
	}
	return a.startSession()
}

func (a App) startSession() tea.Cmd {
	cmds := []tea.Cmd{}
	if a.deps.WarmStart != nil {
		cmds = append(cmds, a.deps.WarmStart())
	}
	if a.deps.LoadActivity != nil {
		cmds = append(cmds, a.deps.LoadActivity(activity.FilterAll, true))
	}
	if a.deps.LoadCircles != nil {
		cmds = append(cmds, a.deps.LoadCircles())
	}
	if a.deps.PollNow != nil {
		cmds = append(cmds, a.deps.PollNow())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case LoggedIn:
		a.user = msg.User
		a.mode = modeActivity
		a.err = nil
		a.resetSessionState()
		return a, a.startSession()

	case LoginFailed:
		a.login.fail(msg.Err)
		return a, nil

	case SessionExpired, LoggedOut:
		a.mode = modeLogin
		a.login = newLoginModel()
		a.resetSessionState()
		return a, a.login.init()

	case CacheWarmed:
		if !a.live {
			a.warm = msg.Items
		}
		return a, nil

	case ActivityUpdated:
		a.pending = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.snap = msg.Snap
		a.live = true
		a.warm = nil
		a.err = nil
		if a.cursor >= len(a.snap.Items) && len(a.snap.Items) > 0 {
			a.cursor = len(a.snap.Items) - 1
		}
		return a, nil

	case CountsUpdated:
		// Polling errors stay off the screen; the last good counts keep
		// rendering until a cycle succeeds again.
		if msg.Err == nil {
			a.counts = msg.Counts
		}
		return a, nil

	case CirclesLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.circles = msg.Circles
		if a.circleCursor >= len(a.circles) && len(a.circles) > 0 {
			a.circleCursor = len(a.circles) - 1
		}
		return a, nil

	case FeedOpened:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.mode = modeFeed
		a.feedName = msg.CircleName
		a.feedSnap = msg.Snap
		a.feedCursor = 0
		a.err = nil
		return a, a.observeVisible()

	case FeedUpdated:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.feedSnap = msg.Snap
		a.err = nil
		if a.feedCursor >= len(a.feedSnap.Posts) && len(a.feedSnap.Posts) > 0 {
			a.feedCursor = len(a.feedSnap.Posts) - 1
		}
		if a.mode == modeFeed {
			return a, a.observeVisible()
		}
		return a, nil
	}

	if a.mode == modeLogin {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) resetSessionState() {
	a.snap = activity.Snapshot{}
	a.warm = nil
	a.live = false
	a.cursor = 0
	a.counts = poller.Counts{}
	a.circles = nil
	a.circleCursor = 0
	a.feedSnap = feed.Snapshot{}
	a.feedName = ""
	a.feedCursor = 0
	a.err = nil
	a.pending = false
}

// handleKeyMsg processes keyboard input per mode.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode == modeLogin {
		return a.handleLoginKey(msg)
	}

	// Clear any existing error on key press.
	if a.err != nil {
		a.err = nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "Q":
		if a.deps.Logout != nil {
			return a, a.deps.Logout()
		}
		return a, nil
	}

	switch a.mode {
	case modeActivity:
		return a.handleActivityKey(msg)
	case modeCircles:
		return a.handleCirclesKey(msg)
	case modeFeed:
		return a.handleFeedKey(msg)
	}
	return a, nil
}

func (a App) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "enter":
		username, password, ok := a.login.submit()
		if !ok {
			a.login.fail(errUsernameAndPassword)
			return a, nil
		}
		if a.deps.Login != nil {
			a.login.sending = true
			return a, a.deps.Login(username, password)
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.login, cmd = a.login.update(msg)
	return a, cmd
}

func (a App) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := a.visibleItems()

	switch msg.String() {
	case "j", "down":
		if a.cursor < len(items)-1 {
			a.cursor++
			return a, nil
		}
		// Past the last row: pull the next page if the server has one.
		return a, a.maybeAppendActivity()

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case "g", "home":
		a.cursor = 0
		return a, nil

	case "G", "end":
		if len(items) > 0 {
			a.cursor = len(items) - 1
		}
		return a, nil

	case "tab":
		if a.deps.LoadActivity != nil {
			a.cursor = 0
			a.pending = true
			return a, a.deps.LoadActivity(a.snap.Filter.Next(), true)
		}
		return a, nil

	case "a":
		if it, ok := a.itemUnderCursor(); ok && it.Kind == activity.KindInvite && a.deps.AcceptInvite != nil {
			return a, a.deps.AcceptInvite(it.ID())
		}
		return a, nil

	case "x":
		if it, ok := a.itemUnderCursor(); ok && it.Kind == activity.KindInvite && a.deps.RejectInvite != nil {
			return a, a.deps.RejectInvite(it.ID())
		}
		return a, nil

	case "enter", "m":
		if it, ok := a.itemUnderCursor(); ok && it.Kind == activity.KindNotification && !it.Notification.IsRead && a.deps.MarkRead != nil {
			return a, a.deps.MarkRead(it.ID())
		}
		return a, nil

	case "A":
		if a.deps.MarkAllRead != nil {
			return a, a.deps.MarkAllRead()
		}
		return a, nil

	case "r":
		if a.deps.LoadActivity != nil {
			a.pending = true
			return a, a.deps.LoadActivity(a.snap.Filter, true)
		}
		return a, nil

	case "c":
		a.mode = modeCircles
		if a.deps.LoadCircles != nil {
			return a, a.deps.LoadCircles()
		}
		return a, nil
	}
	return a, nil
}

func (a App) maybeAppendActivity() tea.Cmd {
	if !a.live || !a.snap.HasMore || a.snap.Loading || a.deps.LoadActivity == nil {
		return nil
	}
	return a.deps.LoadActivity(a.snap.Filter, false)
}

func (a App) handleCirclesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if a.circleCursor < len(a.circles)-1 {
			a.circleCursor++
		}
		return a, nil
	case "k", "up":
		if a.circleCursor > 0 {
			a.circleCursor--
		}
		return a, nil
	case "enter":
		if a.circleCursor < len(a.circles) && a.deps.OpenFeed != nil {
			c := a.circles[a.circleCursor]
			return a, a.deps.OpenFeed(c.ID, c.Name)
		}
		return a, nil
	case "r":
		if a.deps.LoadCircles != nil {
			return a, a.deps.LoadCircles()
		}
		return a, nil
	case "esc", "b":
		a.mode = modeActivity
		return a, nil
	}
	return a, nil
}

func (a App) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if a.feedCursor < len(a.feedSnap.Posts)-1 {
			a.feedCursor++
			return a, a.observeVisible()
		}
		if a.feedSnap.HasMore && !a.feedSnap.Loading && a.deps.LoadFeed != nil {
			return a, a.deps.LoadFeed(false)
		}
		return a, nil

	case "k", "up":
		if a.feedCursor > 0 {
			a.feedCursor--
		}
		return a, a.observeVisible()

	case "g", "home":
		a.feedCursor = 0
		return a, a.observeVisible()

	case "r":
		if a.deps.LoadFeed != nil {
			return a, a.deps.LoadFeed(true)
		}
		return a, nil

	case "esc", "b":
		a.mode = modeCircles
		return a, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if a.feedCursor >= len(a.feedSnap.Posts) || a.deps.Vote == nil {
			return a, nil
		}
		p := a.feedSnap.Posts[a.feedCursor]
		if p.PollResults == nil || p.PollResults.IsExpired {
			return a, nil
		}
		idx := int(msg.String()[0] - '1')
		if idx >= len(p.PollResults.Options) {
			return a, nil
		}
		return a, a.deps.Vote(p.ID, idx)
	}
	return a, nil
}

// observeVisible reports every post currently on screen to the seen
// tracker. The tracker dedupes, so firing on every scroll is safe; only
// the first crossing per post produces a write.
func (a App) observeVisible() tea.Cmd {
	if a.deps.ObserveSeen == nil || len(a.feedSnap.Posts) == 0 {
		return nil
	}
	from, to := visiblePostRange(a.feedSnap.Posts, a.feedCursor, a.contentHeight())
	var cmds []tea.Cmd
	for i := from; i <= to && i < len(a.feedSnap.Posts); i++ {
		if !a.feedSnap.Posts[i].IsSeenByUser {
			cmds = append(cmds, a.deps.ObserveSeen(a.feedSnap.Posts[i].ID))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// visibleItems returns the timeline to render: the live snapshot once a
// load has committed, the cached warm-start timeline before that.
func (a App) visibleItems() []activity.Item {
	if a.live {
		return a.snap.Items
	}
	return a.warm
}

func (a App) itemUnderCursor() (activity.Item, bool) {
	items := a.visibleItems()
	if a.cursor < 0 || a.cursor >= len(items) {
		return activity.Item{}, false
	}
	return items[a.cursor], true
}

// contentHeight is the rows left for the list after header and status
// bar, minus the error bar when one is showing.
func (a App) contentHeight() int {
	h := a.height - 2
	if a.err != nil {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.mode == modeLogin {
		return a.login.view(a.width, a.height)
	}

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: " + a.err.Error() + " (press any key to dismiss)")
	}

	switch a.mode {
	case modeActivity:
		header := renderActivityHeader(a.snap.Filter, a.counts.Badge(), a.width)
		stream := renderTimeline(a.visibleItems(), a.cursor, a.width, a.contentHeight())
		status := renderActivityStatusBar(a.cursor, len(a.visibleItems()), a.width, a.pending || a.snap.Loading)
		return header + "\n" + stream + errorBar + status

	case modeCircles:
		header := TitleStyle.Render("Circles")
		list := renderCircles(a.circles, a.circleCursor, a.width, a.contentHeight())
		status := renderCirclesStatusBar(a.circleCursor, len(a.circles), a.width)
		return header + "\n" + list + errorBar + status

	case modeFeed:
		header := TitleStyle.Render(a.feedName)
		posts := renderFeed(a.feedSnap.Posts, a.feedCursor, a.width, a.contentHeight())
		status := renderFeedStatusBar(a.feedCursor, len(a.feedSnap.Posts), a.width, a.feedSnap.Loading)
		return header + "\n" + posts + errorBar + status
	}
	return ""
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int { return a.cursor }

// Items returns the timeline currently rendered (for testing).
func (a App) Items() []activity.Item { return a.visibleItems() }
