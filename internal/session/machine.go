package session

import (
	"strings"
	"time"

	"fitcoach/internal/auth"
	"fitcoach/internal/clock"
	"fitcoach/internal/logging"

	"github.com/google/uuid"
)

// Machine owns all conversation state. It is not safe for concurrent use:
// methods and scheduled callbacks must run on one goroutine, which both the
// Virtual clock and the TUI's timer queue guarantee.
type Machine struct {
	sched    clock.Scheduler
	script   Script
	listener Listener
	now      func() time.Time
	id       string

	// seq is the per-session message id sequence.
	seq int64
	// epoch changes on logout; callbacks scheduled in an older epoch are dropped.
	epoch uint64

	messages []Message
	mode     AuthMode
	loggedIn bool
	userName string
	form     AuthForm
	err      string
	input    string

	sending        bool
	pendingReplies int

	revision uint64
}

// Option configures a Machine.
type Option func(*Machine)

// WithScript sets the bot texts and delays.
func WithScript(s Script) Option {
	return func(m *Machine) { m.script = s }
}

// WithListener registers a listener for every observable change.
func WithListener(l Listener) Option {
	return func(m *Machine) { m.listener = l }
}

// WithNow overrides the wall clock used to stamp messages.
func WithNow(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(m *Machine) { m.id = id }
}

// New creates a logged-out machine seeded with the greeting.
func New(sched clock.Scheduler, opts ...Option) *Machine {
	m := &Machine{
		sched:  sched,
		script: DefaultScript(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}

	m.seedGreeting()
	logging.Session("session %s started", m.id)
	return m
}

// SessionID returns the id used to correlate log entries.
func (m *Machine) SessionID() string { return m.id }

// Messages returns a copy of the conversation.
func (m *Machine) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// State returns the current phase.
func (m *Machine) State() State {
	switch {
	case m.loggedIn:
		return StateLoggedIn
	case m.mode == AuthLogin:
		return StateLoginForm
	case m.mode == AuthRegister:
		return StateRegisterForm
	default:
		return StateLoggedOut
	}
}

// AuthMode returns which form is open, if any.
func (m *Machine) AuthMode() AuthMode { return m.mode }

// LoggedIn reports whether a user is signed in.
func (m *Machine) LoggedIn() bool { return m.loggedIn }

// UserName returns the display name of the signed-in user, or "".
func (m *Machine) UserName() string { return m.userName }

// Input returns the unsent chat input.
func (m *Machine) Input() string { return m.input }

// Form returns the auth form fields.
func (m *Machine) Form() AuthForm { return m.form }

// Script returns the texts and delays used for new transitions.
func (m *Machine) Script() Script { return m.script }

// Err returns the inline validation message, or "".
func (m *Machine) Err() string { return m.err }

// Typing reports whether the typing indicator is shown.
func (m *Machine) Typing() bool { return m.pendingReplies > 0 }

// Sending reports whether a send is in flight and new sends are blocked.
func (m *Machine) Sending() bool { return m.sending }

// Revision changes whenever the message list or the typing flag changes.
func (m *Machine) Revision() uint64 { return m.revision }

// SetInput replaces the input buffer.
func (m *Machine) SetInput(s string) { m.input = s }

// SetForm replaces the auth form fields.
func (m *Machine) SetForm(f AuthForm) { m.form = f }

// SetScript replaces the texts and delays used by future transitions.
// Already scheduled callbacks keep the values they were scheduled with.
func (m *Machine) SetScript(s Script) { m.script = s }

// ChooseAuth opens the login or register form and schedules the matching
// bot prompt. Ignored when logged in or when mode is AuthNone.
func (m *Machine) ChooseAuth(mode AuthMode) bool {
	if m.loggedIn || mode == AuthNone {
		return false
	}
	m.mode = mode
	m.err = ""
	m.emit(Event{Kind: EventAuthModeChanged, Mode: mode})
	logging.SessionDebug("session %s: auth mode -> %s", m.id, mode)

	m.botAfter(m.script.AuthPromptDelay, m.script.prompt(mode), 0)
	return true
}

// CancelAuth closes the open form, discarding its fields and error.
func (m *Machine) CancelAuth() bool {
	if m.mode == AuthNone {
		return false
	}
	m.mode = AuthNone
	m.form = AuthForm{}
	m.err = ""
	m.emit(Event{Kind: EventAuthModeChanged, Mode: AuthNone})
	return true
}

// Submit validates the open form. On success the user is logged in, the
// form is cleared, and a welcome message is scheduled. On failure the
// inline error is set and the returned error is one of the auth sentinels.
func (m *Machine) Submit() error {
	if m.loggedIn || m.mode == AuthNone {
		return ErrNoForm
	}

	var (
		err  error
		name string
		f    = m.form
	)
	switch m.mode {
	case AuthLogin:
		err = auth.ValidateLogin(auth.LoginRequest{Email: f.Email, Password: f.Password})
		name = auth.DisplayName(f.Email)
	case AuthRegister:
		err = auth.ValidateRegister(auth.RegisterRequest{
			Name:            f.Name,
			Email:           f.Email,
			Password:        f.Password,
			ConfirmPassword: f.ConfirmPassword,
		})
		name = f.Name
	}

	if err != nil {
		m.err = auth.Message(err)
		logging.AuthDebug("session %s: %s rejected: %v", m.id, m.mode, err)
		m.emit(Event{Kind: EventValidationFailed, Mode: m.mode, Err: err})
		return err
	}

	mode := m.mode
	m.loggedIn = true
	m.userName = name
	m.mode = AuthNone
	m.form = AuthForm{}
	m.err = ""
	logging.Auth("session %s: %s succeeded for %q", m.id, mode, name)
	m.emit(Event{Kind: EventLoggedIn, Mode: mode, UserName: name})

	m.botAfter(m.script.WelcomeDelay, m.script.welcome(mode, name), 0)
	return nil
}

// Send posts the input buffer as typed as a user message and schedules the
// typing indicator and the bot reply. It is a no-op returning false when the
// input is blank, a send is in flight, or nobody is logged in.
func (m *Machine) Send() bool {
	switch {
	case !m.loggedIn:
		m.emit(Event{Kind: EventSendRejected, Reason: RejectLoggedOut})
		return false
	case strings.TrimSpace(m.input) == "":
		m.emit(Event{Kind: EventSendRejected, Reason: RejectBlank})
		return false
	case m.sending:
		m.emit(Event{Kind: EventSendRejected, Reason: RejectInFlight})
		return false
	}

	msg := m.appendMessage(m.input, SenderUser, 0)
	m.input = ""
	m.sending = true

	reply := m.script.Reply
	replyDelay := m.script.ReplyDelay
	m.after(m.script.TypingDelay, func() {
		m.sending = false
		m.botAfter(replyDelay, reply, msg.ID)
	})
	return true
}

// Logout returns to the logged-out state with only the greeting left.
// Pending bot messages from before the logout are dropped.
func (m *Machine) Logout() bool {
	if !m.loggedIn {
		return false
	}
	name := m.userName
	m.epoch++
	m.loggedIn = false
	m.userName = ""
	m.mode = AuthNone
	m.form = AuthForm{}
	m.err = ""
	m.input = ""
	m.sending = false
	m.pendingReplies = 0
	m.messages = nil
	m.seedGreeting()

	logging.Session("session %s: %q logged out", m.id, name)
	m.emit(Event{Kind: EventLoggedOut, UserName: name})
	return true
}

func (m *Machine) seedGreeting() {
	m.appendMessage(m.script.Greeting, SenderBot, 0)
}

func (m *Machine) appendMessage(text string, sender Sender, replyTo int64) Message {
	m.seq++
	msg := Message{ID: m.seq, Text: text, Sender: sender, At: m.now()}
	m.messages = append(m.messages, msg)
	m.revision++
	m.emit(Event{Kind: EventMessageAppended, Message: msg, ReplyTo: replyTo})
	return msg
}

// botAfter shows the typing indicator until text is appended d from now.
func (m *Machine) botAfter(d time.Duration, text string, replyTo int64) {
	m.pendingReplies++
	m.revision++
	m.emit(Event{Kind: EventTypingStarted, ReplyTo: replyTo})

	m.after(d, func() {
		m.appendMessage(text, SenderBot, replyTo)
		m.pendingReplies--
		m.revision++
		m.emit(Event{Kind: EventTypingStopped, ReplyTo: replyTo})
	})
}

// after schedules fn in the current epoch.
func (m *Machine) after(d time.Duration, fn func()) {
	epoch := m.epoch
	m.sched.AfterFunc(d, func() {
		if m.epoch != epoch {
			logging.SessionDebug("session %s: dropped stale timer from epoch %d", m.id, epoch)
			return
		}
		fn()
	})
}

func (m *Machine) emit(ev Event) {
	if m.listener != nil {
		m.listener(ev)
	}
}
