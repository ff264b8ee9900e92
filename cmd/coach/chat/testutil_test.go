// Package chat test utilities: a harness that drives Update with key
// messages and fires queued timers in virtual time.
package chat

import (
	"sort"
	"testing"
	"time"

	"fitcoach/internal/clock"
	"fitcoach/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

type recordedTimer struct {
	id  uint64
	due time.Duration
}

// harness replaces the tea.Tick bridge with a recorder so tests control
// when timers fire.
type harness struct {
	t      *testing.T
	m      Model
	now    time.Duration
	timers []recordedTimer
	cmds   []tea.Cmd
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t}
	m := New(Config{Script: session.DefaultScript(), Theme: "light", SessionID: "test-session"})
	m.tick = func(timer clock.Timer) tea.Cmd {
		h.timers = append(h.timers, recordedTimer{id: timer.ID, due: h.now + timer.Delay})
		return nil
	}
	h.m = m
	h.send(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.cmds = append(h.cmds, cmd)
	return cmd
}

func (h *harness) key(k string) tea.Cmd {
	h.t.Helper()
	return h.send(keyMsg(k))
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// advance fires every recorded timer due within d, in due order.
func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	target := h.now + d
	for {
		sort.SliceStable(h.timers, func(i, j int) bool { return h.timers[i].due < h.timers[j].due })
		if len(h.timers) == 0 || h.timers[0].due > target {
			break
		}
		next := h.timers[0]
		h.timers = h.timers[1:]
		h.now = next.due
		h.send(timerFiredMsg{id: next.id})
	}
	h.now = target
}

// login opens the login form, submits valid credentials and lets the
// welcome message arrive.
func (h *harness) login(email, password string) {
	h.t.Helper()
	h.key("l")
	h.typeText(email)
	h.key("tab")
	h.typeText(password)
	h.key("enter")
	h.advance(2 * time.Second)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "alt+enter":
		return tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}
