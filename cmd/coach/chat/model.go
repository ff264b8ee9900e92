package chat

import (
	"fitcoach/cmd/coach/ui"
	"fitcoach/internal/clock"
	"fitcoach/internal/logging"
	"fitcoach/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
)

const (
	inputPlaceholder   = "Message your coach... (Enter to send)"
	sendingPlaceholder = "Waiting for %s..."
	defaultWidth       = 80
	defaultHeight      = 24
)

// New builds the chat model. The machine schedules through a queue that
// Update drains into tea.Tick commands.
func New(cfg Config) Model {
	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	script := cfg.Script
	if script.BotName == "" {
		script = session.DefaultScript()
	}

	styles := ui.NewStyles(ui.ThemeByName(cfg.Theme))
	layout := ui.NewLayoutConfig(defaultWidth, defaultHeight)
	queue := clock.NewQueue()

	machine := session.New(queue,
		session.WithScript(script),
		session.WithSessionID(id),
		session.WithListener(session.Audit(id, func(ev session.Event) {
			logging.UIDebug("session event: %s", ev.Kind)
		})),
	)
	logging.AuditWithSession(id).Event(logging.AuditSessionStart)

	ti := textinput.New()
	ti.Placeholder = inputPlaceholder
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.Width = layout.InputWidth()
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	keys := ui.DefaultKeyMap()

	m := Model{
		machine:   machine,
		queue:     queue,
		tick:      tickTimer,
		styles:    styles,
		keys:      keys,
		layout:    layout,
		renderer:  newRenderer(styles.Theme, layout.ContentWidth()),
		rendered:  make(map[int64]string),
		viewport:  viewport.New(layout.ContentWidth(), layout.ViewportHeight(1)),
		input:     ti,
		fields:    newFormFields(styles),
		spinner:   sp,
		help:      help.New(),
		lastState: -1,
	}
	m.sync()
	return m
}

func newFormFields(styles ui.Styles) []formField {
	specs := []struct {
		kind         fieldKind
		label        string
		placeholder  string
		secret       bool
		registerOnly bool
	}{
		{fieldName, "Name", "Alex", false, true},
		{fieldEmail, "Email", "you@example.com", false, false},
		{fieldPassword, "Password", "", true, false},
		{fieldConfirm, "Confirm password", "", true, true},
	}

	fields := make([]formField, 0, len(specs))
	for _, s := range specs {
		ti := textinput.New()
		ti.Placeholder = s.placeholder
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.TextStyle = styles.UserInput
		if s.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		fields = append(fields, formField{
			kind:         s.kind,
			label:        s.label,
			registerOnly: s.registerOnly,
			input:        ti,
		})
	}
	return fields
}

func newRenderer(theme ui.Theme, width int) *glamour.TermRenderer {
	style := "light"
	if theme.IsDark {
		style = "dark"
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		logging.UIDebug("markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.scheduleTimers(),
	)
}

// SessionID returns the id of the underlying session.
func (m Model) SessionID() string {
	return m.machine.SessionID()
}

// scheduleTimers hands every timer queued since the last call to the
// event loop.
func (m Model) scheduleTimers() tea.Cmd {
	timers := m.queue.Drain()
	if len(timers) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(timers))
	for _, t := range timers {
		cmds = append(cmds, m.tick(t))
	}
	return tea.Batch(cmds...)
}

func (m *Model) performShutdown() {
	if m.quitting {
		return
	}
	m.quitting = true
	logging.AuditWithSession(m.machine.SessionID()).Event(logging.AuditSessionEnd)
	logging.UI("session %s: quit with %d timers pending", m.machine.SessionID(), m.queue.Len())
}
