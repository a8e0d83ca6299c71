package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errUsernameAndPassword = errors.New("username and password are required")

// loginModel is the credential form shown before a session exists.
type loginModel struct {
	username textinput.Model
	password textinput.Model
	focused  int
	sending  bool
	err      error
}

func newLoginModel() loginModel {
	u := textinput.New()
	u.Placeholder = "username"
	u.CharLimit = 64
	u.Focus()

	p := textinput.New()
	p.Placeholder = "password"
	p.CharLimit = 128
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	return loginModel{username: u, password: p}
}

func (m loginModel) init() tea.Cmd {
	return textinput.Blink
}

// submit returns the entered credentials. ok is false when either field
// is empty; the request is not worth sending.
func (m loginModel) submit() (username, password string, ok bool) {
	username = m.username.Value()
	password = m.password.Value()
	return username, password, username != "" && password != ""
}

func (m *loginModel) fail(err error) {
	m.sending = false
	m.err = err
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if key, isKey := msg.(tea.KeyMsg); isKey {
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			m.focused = (m.focused + 1) % 2
			if m.focused == 0 {
				m.password.Blur()
				return m, m.username.Focus()
			}
			m.username.Blur()
			return m, m.password.Focus()
		}
		m.err = nil
	}

	var cmd tea.Cmd
	if m.focused == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) view(width, height int) string {
	title := TitleStyle.Render("circlet")

	status := ""
	switch {
	case m.sending:
		status = StatusBarText.Render("Signing in...")
	case m.err != nil:
		status = ErrorStyle.Render(m.err.Error())
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.username.View(),
		m.password.View(),
		"",
		status,
		HelpStyle.Render("enter:sign in  tab:switch field  ctrl+c:quit"),
	)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
	}
	return form
}
