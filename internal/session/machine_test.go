package session

import (
	"testing"
	"time"

	"fitcoach/internal/auth"
	"fitcoach/internal/clock"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func newTestMachine(t *testing.T) (*Machine, *clock.Virtual, *recorder) {
	t.Helper()
	v := clock.NewVirtual()
	rec := &recorder{}
	fixed := time.Date(2026, 1, 2, 7, 0, 0, 0, time.UTC)
	m := New(v,
		WithListener(rec.listen),
		WithNow(func() time.Time { return fixed }),
		WithSessionID("test-session"),
	)
	return m, v, rec
}

func login(t *testing.T, m *Machine, v *clock.Virtual, email string) {
	t.Helper()
	require.True(t, m.ChooseAuth(AuthLogin))
	m.SetForm(AuthForm{Email: email, Password: "x"})
	require.NoError(t, m.Submit())
	v.RunAll(0)
}

var ignoreTime = cmpopts.IgnoreFields(Message{}, "At")

func TestNew_SeedsGreeting(t *testing.T) {
	m, _, rec := newTestMachine(t)

	want := []Message{{ID: 1, Text: DefaultScript().Greeting, Sender: SenderBot}}
	if diff := cmp.Diff(want, m.Messages(), ignoreTime); diff != "" {
		t.Errorf("seed mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, StateLoggedOut, m.State())
	assert.Equal(t, "test-session", m.SessionID())
	assert.Equal(t, []EventKind{EventMessageAppended}, rec.kinds())
}

func TestNew_GeneratesSessionID(t *testing.T) {
	a := New(clock.NewVirtual())
	b := New(clock.NewVirtual())
	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestChooseAuth_PromptAfterDelay(t *testing.T) {
	m, v, _ := newTestMachine(t)

	require.True(t, m.ChooseAuth(AuthLogin))
	assert.Equal(t, StateLoginForm, m.State())
	assert.Len(t, m.Messages(), 1)

	v.Advance(799 * time.Millisecond)
	assert.Len(t, m.Messages(), 1)

	v.Advance(time.Millisecond)
	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, DefaultScript().LoginPrompt, msgs[1].Text)
	assert.Equal(t, SenderBot, msgs[1].Sender)
}

func TestChooseAuth_TypingUntilPrompt(t *testing.T) {
	m, v, rec := newTestMachine(t)
	rec.events = nil

	require.True(t, m.ChooseAuth(AuthLogin))
	assert.True(t, m.Typing())

	v.Advance(400 * time.Millisecond)
	assert.True(t, m.Typing())

	v.Advance(400 * time.Millisecond)
	assert.False(t, m.Typing())
	assert.Equal(t, []EventKind{
		EventAuthModeChanged,
		EventTypingStarted,
		EventMessageAppended,
		EventTypingStopped,
	}, rec.kinds())
}

func TestChooseAuth_RegisterPrompt(t *testing.T) {
	m, v, _ := newTestMachine(t)

	require.True(t, m.ChooseAuth(AuthRegister))
	assert.Equal(t, StateRegisterForm, m.State())
	v.RunAll(0)
	assert.Equal(t, DefaultScript().RegisterPrompt, m.Messages()[1].Text)
}

func TestChooseAuth_IgnoredWhenLoggedInOrNone(t *testing.T) {
	m, v, _ := newTestMachine(t)
	assert.False(t, m.ChooseAuth(AuthNone))

	login(t, m, v, "a@b.com")
	assert.False(t, m.ChooseAuth(AuthRegister))
	assert.Equal(t, AuthNone, m.AuthMode())
	assert.Zero(t, v.Pending())
}

func TestCancelAuth_DiscardsFormAndError(t *testing.T) {
	m, _, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthLogin))
	m.SetForm(AuthForm{Email: "bad", Password: "x"})
	require.ErrorIs(t, m.Submit(), auth.ErrInvalidEmail)
	require.NotEmpty(t, m.Err())

	assert.True(t, m.CancelAuth())
	assert.Equal(t, StateLoggedOut, m.State())
	assert.Equal(t, AuthForm{}, m.Form())
	assert.Empty(t, m.Err())

	assert.False(t, m.CancelAuth())
}

func TestSubmit_LoginScenario(t *testing.T) {
	m, v, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthLogin))
	m.SetForm(AuthForm{Email: "a@b.com", Password: "x"})

	require.NoError(t, m.Submit())
	assert.Equal(t, StateLoggedIn, m.State())
	assert.True(t, m.LoggedIn())
	assert.Equal(t, "a", m.UserName())
	assert.Empty(t, m.Err())
	assert.Equal(t, AuthNone, m.AuthMode())
	assert.Equal(t, AuthForm{}, m.Form())

	// prompt at 800ms, welcome 1200ms after submit
	v.Advance(1199 * time.Millisecond)
	require.Len(t, m.Messages(), 2)
	v.Advance(time.Millisecond)
	msgs := m.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Welcome back! How can I help you today?", msgs[2].Text)
}

func TestSubmit_TypingUntilWelcome(t *testing.T) {
	m, v, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthRegister))
	v.RunAll(0)
	require.False(t, m.Typing())

	m.SetForm(AuthForm{Name: "Ana", Email: "ana@gym.io", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, m.Submit())
	assert.True(t, m.Typing())

	v.Advance(600 * time.Millisecond)
	assert.True(t, m.Typing())
	assert.Len(t, m.Messages(), 2)

	v.Advance(600 * time.Millisecond)
	assert.False(t, m.Typing())
	assert.Len(t, m.Messages(), 3)
}

func TestLogout_ClearsWelcomeTyping(t *testing.T) {
	m, v, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthLogin))
	m.SetForm(AuthForm{Email: "a@b.com", Password: "x"})
	require.NoError(t, m.Submit())
	require.True(t, m.Typing())

	require.True(t, m.Logout())
	assert.False(t, m.Typing())
	v.RunAll(0)
	assert.False(t, m.Typing())
}

func TestSubmit_LoginValidation(t *testing.T) {
	tests := []struct {
		name    string
		form    AuthForm
		wantErr error
		wantMsg string
	}{
		{"missing password", AuthForm{Email: "a@b.com"}, auth.ErrMissingFields, "Please fill in all fields."},
		{"missing email", AuthForm{Password: "x"}, auth.ErrMissingFields, "Please fill in all fields."},
		{"bad email", AuthForm{Email: "a@b", Password: "x"}, auth.ErrInvalidEmail, "Please enter a valid email address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, v, rec := newTestMachine(t)
			require.True(t, m.ChooseAuth(AuthLogin))
			m.SetForm(tt.form)

			err := m.Submit()
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, m.Err())
			assert.Equal(t, StateLoginForm, m.State())
			assert.False(t, m.LoggedIn())
			assert.Equal(t, tt.form, m.Form(), "form is kept for correction")

			last := rec.events[len(rec.events)-1]
			assert.Equal(t, EventValidationFailed, last.Kind)

			v.RunAll(0)
			assert.Len(t, m.Messages(), 2, "only the prompt is added")
		})
	}
}

func TestSubmit_RegisterMismatchScenario(t *testing.T) {
	m, _, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthRegister))
	m.SetForm(AuthForm{Name: "Sam", Email: "sam@gym.io", Password: "one", ConfirmPassword: "two"})

	require.ErrorIs(t, m.Submit(), auth.ErrPasswordMismatch)
	assert.Equal(t, StateRegisterForm, m.State())
	assert.Equal(t, "Passwords do not match.", m.Err())
	assert.False(t, m.LoggedIn())
}

func TestSubmit_RegisterSuccess(t *testing.T) {
	m, v, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthRegister))
	m.SetForm(AuthForm{Name: "Sam Lee", Email: "sam@gym.io", Password: "pw", ConfirmPassword: "pw"})

	require.NoError(t, m.Submit())
	assert.Equal(t, "Sam Lee", m.UserName())
	v.RunAll(0)
	msgs := m.Messages()
	assert.Equal(t, "Welcome, Sam Lee! You're now registered and logged in. How can I help you today?", msgs[len(msgs)-1].Text)
}

func TestSubmit_ErrorReplacesPrevious(t *testing.T) {
	m, _, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthRegister))

	m.SetForm(AuthForm{Name: "S"})
	_ = m.Submit()
	assert.Equal(t, auth.MsgMissingFields, m.Err())

	m.SetForm(AuthForm{Name: "S", Email: "s", Password: "p", ConfirmPassword: "p"})
	_ = m.Submit()
	assert.Equal(t, auth.MsgInvalidEmail, m.Err())

	m.SetForm(AuthForm{Name: "S", Email: "s@x.io", Password: "p", ConfirmPassword: "q"})
	_ = m.Submit()
	assert.Equal(t, auth.MsgPasswordMismatch, m.Err())
}

func TestSubmit_NoForm(t *testing.T) {
	m, v, _ := newTestMachine(t)
	assert.ErrorIs(t, m.Submit(), ErrNoForm)

	login(t, m, v, "a@b.com")
	assert.ErrorIs(t, m.Submit(), ErrNoForm)
}

func TestChooseAuth_ClearsError(t *testing.T) {
	m, _, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthLogin))
	_ = m.Submit()
	require.NotEmpty(t, m.Err())

	require.True(t, m.ChooseAuth(AuthRegister))
	assert.Empty(t, m.Err())
	assert.Equal(t, StateRegisterForm, m.State())
}

func TestSend_Timeline(t *testing.T) {
	m, v, rec := newTestMachine(t)
	login(t, m, v, "a@b.com")
	before := len(m.Messages())
	start := v.Now()
	rec.events = nil

	m.SetInput("  How many squats?  ")
	require.True(t, m.Send())

	msgs := m.Messages()
	require.Len(t, msgs, before+1)
	assert.Equal(t, "  How many squats?  ", msgs[before].Text, "stored as typed")
	assert.Equal(t, SenderUser, msgs[before].Sender)
	assert.Empty(t, m.Input())
	assert.True(t, m.Sending())
	assert.False(t, m.Typing())

	v.Advance(299 * time.Millisecond)
	assert.True(t, m.Sending())
	assert.False(t, m.Typing())

	v.Advance(time.Millisecond)
	assert.False(t, m.Sending())
	assert.True(t, m.Typing())

	v.Advance(1499 * time.Millisecond)
	assert.True(t, m.Typing())
	assert.Len(t, m.Messages(), before+1)

	v.Advance(time.Millisecond)
	assert.False(t, m.Typing())
	msgs = m.Messages()
	require.Len(t, msgs, before+2)
	assert.Equal(t, DefaultScript().Reply, msgs[before+1].Text)
	assert.Equal(t, SenderBot, msgs[before+1].Sender)
	assert.Equal(t, 1800*time.Millisecond, v.Now()-start)

	assert.Equal(t, []EventKind{
		EventMessageAppended,
		EventTypingStarted,
		EventMessageAppended,
		EventTypingStopped,
	}, rec.kinds())
}

func TestSend_Rejections(t *testing.T) {
	t.Run("logged out", func(t *testing.T) {
		m, v, rec := newTestMachine(t)
		m.SetInput("hello")
		assert.False(t, m.Send())
		assert.Len(t, m.Messages(), 1)
		assert.Equal(t, "hello", m.Input())
		assert.Zero(t, v.Pending())
		assert.Equal(t, RejectLoggedOut, rec.events[len(rec.events)-1].Reason)
	})

	t.Run("blank", func(t *testing.T) {
		m, v, rec := newTestMachine(t)
		login(t, m, v, "a@b.com")
		n := len(m.Messages())
		for _, in := range []string{"", "   ", "\t\n"} {
			m.SetInput(in)
			assert.False(t, m.Send())
		}
		assert.Len(t, m.Messages(), n)
		assert.Equal(t, RejectBlank, rec.events[len(rec.events)-1].Reason)
	})

	t.Run("in flight", func(t *testing.T) {
		m, v, rec := newTestMachine(t)
		login(t, m, v, "a@b.com")
		n := len(m.Messages())

		m.SetInput("first")
		require.True(t, m.Send())
		m.SetInput("second")
		assert.False(t, m.Send())
		assert.Equal(t, "second", m.Input())
		assert.Equal(t, RejectInFlight, rec.events[len(rec.events)-1].Reason)

		// unblocked at the 300ms mark
		v.Advance(300 * time.Millisecond)
		assert.True(t, m.Send())
		v.RunAll(0)
		assert.Len(t, m.Messages(), n+4)
	})
}

func TestSend_OverlappingRepliesKeepIndicator(t *testing.T) {
	m, v, _ := newTestMachine(t)
	login(t, m, v, "a@b.com")

	m.SetInput("one")
	require.True(t, m.Send())
	v.Advance(300 * time.Millisecond)
	m.SetInput("two")
	require.True(t, m.Send())

	// first reply lands at 1800ms, second at 2100ms
	v.Advance(1500 * time.Millisecond)
	assert.True(t, m.Typing(), "second reply still outstanding")
	v.Advance(300 * time.Millisecond)
	assert.False(t, m.Typing())
}

func TestLogout_ResetsToGreeting(t *testing.T) {
	m, v, rec := newTestMachine(t)
	login(t, m, v, "a@b.com")
	for _, text := range []string{"a", "b", "c"} {
		m.SetInput(text)
		require.True(t, m.Send())
		v.RunAll(0)
	}
	require.Greater(t, len(m.Messages()), 5)
	lastID := m.Messages()[len(m.Messages())-1].ID

	m.SetInput("draft")
	require.True(t, m.Logout())

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, DefaultScript().Greeting, msgs[0].Text)
	assert.Greater(t, msgs[0].ID, lastID, "ids keep increasing across logout")
	assert.Equal(t, StateLoggedOut, m.State())
	assert.Empty(t, m.UserName())
	assert.Empty(t, m.Input())
	assert.Equal(t, EventLoggedOut, rec.events[len(rec.events)-1].Kind)

	assert.False(t, m.Logout())
}

func TestLogout_DropsPendingReplies(t *testing.T) {
	m, v, _ := newTestMachine(t)
	login(t, m, v, "a@b.com")

	m.SetInput("hi")
	require.True(t, m.Send())
	v.Advance(500 * time.Millisecond)
	require.True(t, m.Typing())

	require.True(t, m.Logout())
	assert.False(t, m.Typing())
	assert.False(t, m.Sending())

	v.RunAll(0)
	assert.Len(t, m.Messages(), 1)
	assert.False(t, m.Typing())
}

func TestLogout_DropsPendingWelcome(t *testing.T) {
	m, v, _ := newTestMachine(t)
	require.True(t, m.ChooseAuth(AuthLogin))
	m.SetForm(AuthForm{Email: "a@b.com", Password: "x"})
	require.NoError(t, m.Submit())
	require.True(t, m.Logout())

	v.RunAll(0)
	require.Len(t, m.Messages(), 1)
	assert.Equal(t, DefaultScript().Greeting, m.Messages()[0].Text)
}

func TestRevision_TracksMessagesAndTyping(t *testing.T) {
	m, v, _ := newTestMachine(t)
	login(t, m, v, "a@b.com")

	r0 := m.Revision()
	m.SetInput("x")
	m.SetForm(AuthForm{Email: "ignored"})
	assert.Equal(t, r0, m.Revision(), "input and form edits do not bump revision")

	require.True(t, m.Send())
	r1 := m.Revision()
	assert.Greater(t, r1, r0)

	v.Advance(300 * time.Millisecond)
	r2 := m.Revision()
	assert.Greater(t, r2, r1, "typing indicator bumps revision")

	v.Advance(1500 * time.Millisecond)
	assert.Greater(t, m.Revision(), r2)
}

func TestSetScript_AffectsFutureTimers(t *testing.T) {
	m, v, _ := newTestMachine(t)
	login(t, m, v, "a@b.com")

	s := DefaultScript()
	s.Reply = "Drink water."
	s.TypingDelay = 0
	s.ReplyDelay = 10 * time.Millisecond
	m.SetScript(s)
	assert.Equal(t, "Drink water.", m.Script().Reply)

	m.SetInput("ok")
	require.True(t, m.Send())
	v.Advance(10 * time.Millisecond)
	msgs := m.Messages()
	assert.Equal(t, "Drink water.", msgs[len(msgs)-1].Text)
}

func TestStateAndKindStrings(t *testing.T) {
	assert.Equal(t, "LoggedIn", StateLoggedIn.String())
	assert.Equal(t, "Unknown", State(42).String())
	assert.Equal(t, "Unknown", State(-1).String())
	assert.Equal(t, "register", AuthRegister.String())
	assert.Equal(t, "none", AuthNone.String())
	assert.Equal(t, "typing_started", EventTypingStarted.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}

func TestDefaultScript_Texts(t *testing.T) {
	s := DefaultScript()
	assert.Equal(t, "Fitko", s.BotName)
	assert.Contains(t, s.Greeting, "Welcome to Fitko! I'm your AI fitness coach.")
	assert.Equal(t, "Please enter your email and password to log in.", s.prompt(AuthLogin))
	assert.Equal(t, "Let's get you registered! Please provide your details below.", s.prompt(AuthRegister))
	assert.Equal(t, "Welcome back! How can I help you today?", s.welcome(AuthLogin, "a"))
	assert.Equal(t, "Welcome, Ana! You're now registered and logged in. How can I help you today?", s.welcome(AuthRegister, "Ana"))
	assert.Equal(t, "Thanks for your message! I'm still under development, but soon I'll be able to help you with personalized fitness plans.", s.Reply)
}
