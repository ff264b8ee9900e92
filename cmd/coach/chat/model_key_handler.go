package chat

import (
	"fitcoach/internal/logging"
	"fitcoach/internal/session"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg processes keyboard input for the current screen. quit=true
// means the program should exit.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	// Ctrl+C works everywhere
	if key.Matches(msg, m.keys.ForceQuit) {
		m.performShutdown()
		return m, nil, true
	}

	var cmd tea.Cmd
	switch m.machine.State() {
	case session.StateLoggedOut:
		return m.handleChooserKey(msg)
	case session.StateLoginForm, session.StateRegisterForm:
		m, cmd = m.handleFormKey(msg)
	default:
		m, cmd = m.handleChatKey(msg)
	}
	return m, cmd, false
}

func (m Model) handleChooserKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Login):
		m.machine.ChooseAuth(session.AuthLogin)
	case key.Matches(msg, m.keys.Register):
		m.machine.ChooseAuth(session.AuthRegister)
	case key.Matches(msg, m.keys.Quit):
		m.performShutdown()
		return m, nil, true
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, false
	}
	return m, nil, false
}

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.machine.CancelAuth()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.focus++
		return m, m.applyFocus()

	case key.Matches(msg, m.keys.PrevField):
		m.focus--
		return m, m.applyFocus()

	case key.Matches(msg, m.keys.Submit):
		m.machine.SetForm(m.formValues())
		if err := m.machine.Submit(); err != nil {
			logging.UIDebug("submit rejected: %v", err)
		}
		return m, nil
	}

	visible := m.visibleFields()
	if m.focus < 0 || m.focus >= len(visible) {
		return m, nil
	}
	idx := visible[m.focus]
	var cmd tea.Cmd
	m.fields[idx].input, cmd = m.fields[idx].input.Update(msg)
	m.machine.SetForm(m.formValues())
	return m, cmd
}

func (m Model) handleChatKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Logout):
		m.machine.Logout()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		m.machine.SetInput(m.input.Value())
		m.machine.Send()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Blurred while a send is in flight, so keystrokes are dropped.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.machine.SetInput(m.input.Value())
	return m, cmd
}
