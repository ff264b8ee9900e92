package chat

import (
	"fmt"

	"fitcoach/cmd/coach/ui"
	"fitcoach/internal/logging"
	"fitcoach/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Update implements tea.Model. Every machine call and timer callback runs
// here, so the machine never sees concurrent access.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayoutConfig(msg.Width, msg.Height)
		m.ready = true
		m.layoutViews()
		logging.UIDebug("resize %dx%d", msg.Width, msg.Height)

	case tea.KeyMsg:
		var cmd tea.Cmd
		var quit bool
		m, cmd, quit = m.handleKeyMsg(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case timerFiredMsg:
		if !m.queue.Fire(msg.id) {
			logging.UIDebug("timer %d already fired", msg.id)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ConfigReloadedMsg:
		m.applyConfig(msg)
	}

	cmds = append(cmds, m.sync(), m.scheduleTimers())
	return m, tea.Batch(cmds...)
}

func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	if msg.Config == nil {
		return
	}
	m.machine.SetScript(msg.Config.Script())

	theme := ui.ThemeByName(msg.Config.Theme)
	if theme.IsDark != m.styles.Theme.IsDark {
		m.styles = ui.NewStyles(theme)
		m.applyStyles()
		m.renderer = newRenderer(theme, m.layout.ContentWidth())
	}
	// force a redraw so the new bot name and theme show up
	m.rendered = make(map[int64]string)
	m.lastRevision = 0

	logging.Config("config reloaded: bot=%q theme=%s", msg.Config.Bot.Name, msg.Config.Theme)
	logging.AuditWithSession(m.machine.SessionID()).Event(logging.AuditConfigReload,
		zap.String("theme", msg.Config.Theme))
}

func (m *Model) applyStyles() {
	m.input.PromptStyle = m.styles.Prompt
	m.input.TextStyle = m.styles.UserInput
	m.spinner.Style = m.styles.Spinner
	for i := range m.fields {
		m.fields[i].input.TextStyle = m.styles.UserInput
	}
}

// sync mirrors machine state into the widgets. The machine is the source of
// truth for the input buffer and the form fields.
func (m *Model) sync() tea.Cmd {
	var cmds []tea.Cmd

	state := m.machine.State()
	if state != m.lastState {
		logging.UIDebug("state %s -> %s", m.lastState, state)
		m.lastState = state
		m.focus = 0
		m.keys.SetMode(keyModeFor(state))
		if state == session.StateLoggedOut {
			m.rendered = make(map[int64]string)
		}
		cmds = append(cmds, m.applyFocus())
		m.layoutViews()
	}

	if m.input.Value() != m.machine.Input() {
		m.input.SetValue(m.machine.Input())
	}
	m.setFormValues(m.machine.Form())

	if state == session.StateLoggedIn {
		if m.machine.Sending() {
			if m.input.Focused() {
				m.input.Blur()
				m.input.Placeholder = fmt.Sprintf(sendingPlaceholder, m.machine.Script().BotName)
			}
		} else if !m.input.Focused() {
			m.input.Placeholder = inputPlaceholder
			cmds = append(cmds, m.input.Focus())
		}
	}

	if rev := m.machine.Revision(); rev != m.lastRevision {
		m.lastRevision = rev
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
	}
	return tea.Batch(cmds...)
}

func keyModeFor(state session.State) ui.KeyMode {
	switch state {
	case session.StateLoginForm, session.StateRegisterForm:
		return ui.KeysForm
	case session.StateLoggedIn:
		return ui.KeysChat
	default:
		return ui.KeysChooser
	}
}

// visibleFields returns indices into m.fields for the open form.
func (m Model) visibleFields() []int {
	mode := m.machine.AuthMode()
	if mode == session.AuthNone {
		return nil
	}
	return lo.Filter(lo.Range(len(m.fields)), func(i int, _ int) bool {
		return m.fields[i].visibleIn(mode)
	})
}

// applyFocus focuses the widget that should take keystrokes in the current
// state and blurs the rest.
func (m *Model) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.fields {
		m.fields[i].input.Blur()
	}

	switch m.lastState {
	case session.StateLoginForm, session.StateRegisterForm:
		m.input.Blur()
		visible := m.visibleFields()
		if len(visible) > 0 {
			m.focus = (m.focus%len(visible) + len(visible)) % len(visible)
			cmd = m.fields[visible[m.focus]].input.Focus()
		}
	case session.StateLoggedIn:
		m.input.Placeholder = inputPlaceholder
		cmd = m.input.Focus()
	default:
		m.input.Blur()
	}
	return cmd
}

func (m Model) formValues() session.AuthForm {
	var f session.AuthForm
	for _, field := range m.fields {
		switch field.kind {
		case fieldName:
			f.Name = field.input.Value()
		case fieldEmail:
			f.Email = field.input.Value()
		case fieldPassword:
			f.Password = field.input.Value()
		case fieldConfirm:
			f.ConfirmPassword = field.input.Value()
		}
	}
	return f
}

func (m *Model) setFormValues(f session.AuthForm) {
	for i := range m.fields {
		var v string
		switch m.fields[i].kind {
		case fieldName:
			v = f.Name
		case fieldEmail:
			v = f.Email
		case fieldPassword:
			v = f.Password
		case fieldConfirm:
			v = f.ConfirmPassword
		}
		if m.fields[i].input.Value() != v {
			m.fields[i].input.SetValue(v)
		}
	}
}

// panelHeight is the number of rows below the typing line.
func (m Model) panelHeight() int {
	switch m.machine.State() {
	case session.StateLoginForm, session.StateRegisterForm:
		return ui.FormHeight(len(m.visibleFields()))
	case session.StateLoggedIn:
		return ui.InputHeight
	default:
		return 1
	}
}

func (m *Model) layoutViews() {
	width := m.layout.ContentWidth()
	if width != m.viewport.Width {
		m.renderer = newRenderer(m.styles.Theme, width)
		m.rendered = make(map[int64]string)
		m.lastRevision = 0
	}
	m.viewport.Width = width
	m.viewport.Height = m.layout.ViewportHeight(m.panelHeight())
	m.input.Width = m.layout.InputWidth()
	for i := range m.fields {
		m.fields[i].input.Width = width - ui.FormLabelWidth - 1
	}
	m.help.Width = m.layout.TerminalWidth
}
