package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is the full set of bindings. Which ones are enabled depends on the
// screen; see SetMode.
type KeyMap struct {
	Login    key.Binding
	Register key.Binding
	Quit     key.Binding

	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding

	Send   key.Binding
	Logout key.Binding

	ScrollUp   key.Binding
	ScrollDown key.Binding

	ForceQuit key.Binding
}

// KeyMode selects the enabled subset of a KeyMap.
type KeyMode int

const (
	KeysChooser KeyMode = iota
	KeysForm
	KeysChat
)

// DefaultKeyMap returns the bindings used by the chat.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Login:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log in")),
		Register: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "register")),
		Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),

		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

		Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Logout: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "log out")),

		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),

		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// SetMode enables the bindings that apply to the given screen.
func (k *KeyMap) SetMode(mode KeyMode) {
	chooser := mode == KeysChooser
	form := mode == KeysForm
	chat := mode == KeysChat

	k.Login.SetEnabled(chooser)
	k.Register.SetEnabled(chooser)
	k.Quit.SetEnabled(chooser)

	k.NextField.SetEnabled(form)
	k.PrevField.SetEnabled(form)
	k.Submit.SetEnabled(form)
	k.Cancel.SetEnabled(form)

	k.Send.SetEnabled(chat)
	k.Logout.SetEnabled(chat)
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Login, k.Register, k.Quit,
		k.NextField, k.Submit, k.Cancel,
		k.Send, k.Logout,
		k.ForceQuit,
	}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Login, k.Register, k.Quit},
		{k.NextField, k.PrevField, k.Submit, k.Cancel},
		{k.Send, k.Logout, k.ScrollUp, k.ScrollDown},
		{k.ForceQuit},
	}
}
