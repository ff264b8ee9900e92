// Package session implements the conversation state machine behind the
// coach chat: mock authentication, the message thread, and the simulated
// bot latency. It has no UI dependency; every delayed effect goes through a
// clock.Scheduler so callers decide how time passes.
package session

import (
	"errors"
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

// Message is one entry in the conversation. Messages are never mutated.
type Message struct {
	ID     int64
	Text   string
	Sender Sender
	At     time.Time
}

// AuthMode is the authentication form currently displayed.
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthLogin
	AuthRegister
)

// String returns the display name for each mode
func (m AuthMode) String() string {
	switch m {
	case AuthLogin:
		return "login"
	case AuthRegister:
		return "register"
	default:
		return "none"
	}
}

// State is the externally visible phase of the machine.
type State int

const (
	StateLoggedOut State = iota // no form shown
	StateLoginForm
	StateRegisterForm
	StateLoggedIn
)

func (s State) String() string {
	names := []string{"LoggedOut/NoForm", "LoggedOut/LoginForm", "LoggedOut/RegisterForm", "LoggedIn"}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// AuthForm holds the transient form fields. Name and ConfirmPassword are
// only used by the register form.
type AuthForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ErrNoForm is returned by Submit when no auth form is open.
var ErrNoForm = errors.New("no auth form open")

// EventKind classifies observable changes.
type EventKind int

const (
	EventMessageAppended EventKind = iota
	EventTypingStarted
	EventTypingStopped
	EventAuthModeChanged
	EventLoggedIn
	EventLoggedOut
	EventValidationFailed
	EventSendRejected
)

func (k EventKind) String() string {
	names := []string{
		"message_appended",
		"typing_started",
		"typing_stopped",
		"auth_mode_changed",
		"logged_in",
		"logged_out",
		"validation_failed",
		"send_rejected",
	}
	if k >= 0 && int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Reasons attached to EventSendRejected.
const (
	RejectBlank     = "blank_input"
	RejectInFlight  = "send_in_flight"
	RejectLoggedOut = "not_logged_in"
)

// Event describes one observable change. Only the fields relevant to Kind
// are set. ReplyTo links typing and bot-reply events to the user message
// that caused them.
type Event struct {
	Kind     EventKind
	Message  Message
	ReplyTo  int64
	Mode     AuthMode
	UserName string
	Err      error
	Reason   string
}

// Listener receives events synchronously, on the machine's thread.
type Listener func(Event)
