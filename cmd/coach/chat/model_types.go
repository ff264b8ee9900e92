// Package chat provides the interactive TUI for the coach.
// The session.Machine owns all conversation state; the Model mirrors it into
// bubbles widgets and routes timers through the Bubble Tea event loop.
package chat

import (
	"time"

	"fitcoach/cmd/coach/ui"
	"fitcoach/internal/clock"
	"fitcoach/internal/config"
	"fitcoach/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// Config holds configuration for initializing the chat interface.
type Config struct {
	Script    session.Script
	Theme     string // "light", "dark" or "auto"
	SessionID string // generated when empty
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	machine *session.Machine
	queue   *clock.Queue
	tick    func(clock.Timer) tea.Cmd

	styles   ui.Styles
	keys     ui.KeyMap
	layout   ui.LayoutConfig
	renderer *glamour.TermRenderer
	rendered map[int64]string // bot message id -> markdown output

	viewport viewport.Model
	input    textinput.Model
	fields   []formField
	focus    int // index into the visible fields
	spinner  spinner.Model
	help     help.Model

	lastState    session.State
	lastRevision uint64

	ready    bool
	quitting bool
}

type fieldKind int

const (
	fieldName fieldKind = iota
	fieldEmail
	fieldPassword
	fieldConfirm
)

// formField is one row of the login/register form.
type formField struct {
	kind         fieldKind
	label        string
	registerOnly bool
	input        textinput.Model
}

func (f formField) visibleIn(mode session.AuthMode) bool {
	return mode == session.AuthRegister || !f.registerOnly
}

// timerFiredMsg is delivered when a queued machine timer is due.
type timerFiredMsg struct {
	id uint64
}

// ConfigReloadedMsg carries a freshly loaded config into the program.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// tickTimer turns a queued timer into a command that reports back when due.
func tickTimer(t clock.Timer) tea.Cmd {
	id := t.ID
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return timerFiredMsg{id: id}
	})
}
