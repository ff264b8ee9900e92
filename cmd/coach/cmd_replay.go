package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fitcoach/internal/auth"
	"fitcoach/internal/clock"
	"fitcoach/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var showEvents bool

// replayCmd drives the session machine from a script on virtual time
var replayCmd = &cobra.Command{
	Use:   "replay [script.yaml]",
	Short: "Run a scripted conversation headlessly and print the transcript",
	Long: `Replays a sequence of user actions against the chat session on a
virtual clock, so delays elapse instantly and output is deterministic.

Script format:
  steps:
    - action: login        # or register
    - action: fill
      email: a@b.com
      password: x
    - action: submit
    - action: wait
      duration: 2s
    - action: type
      text: "How many rest days do I need?"
    - action: send
    - action: wait
      duration: 2s
    - action: logout

Actions: login, register, cancel, fill, submit, type, send, logout, wait.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplayCmd,
}

func init() {
	replayCmd.Flags().BoolVar(&showEvents, "show-events", false, "Print every session event, not only messages")
}

// replayScript is the YAML document read by the replay command.
type replayScript struct {
	Steps []replayStep `yaml:"steps"`
}

// replayStep is one user action. Only the fields the action uses are read.
type replayStep struct {
	Action   string `yaml:"action"`
	Text     string `yaml:"text,omitempty"`
	Duration string `yaml:"duration,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Email    string `yaml:"email,omitempty"`
	Password string `yaml:"password,omitempty"`
	Confirm  string `yaml:"confirm,omitempty"`
}

func loadReplayScript(path string) (replayScript, error) {
	var s replayScript
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read replay script: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse replay script: %w", err)
	}
	if len(s.Steps) == 0 {
		return s, fmt.Errorf("replay script %s has no steps", path)
	}
	return s, nil
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	script, err := loadReplayScript(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfigOrDefault(resolveConfigPath())
	if err != nil {
		logger.Warn("using default config", zap.Error(err))
	}

	logger.Debug("replaying", zap.String("script", args[0]), zap.Int("steps", len(script.Steps)))
	res, err := runReplay(cmd.OutOrStdout(), script, cfg.Script(), showEvents)
	if err != nil {
		return err
	}
	logger.Info("replay finished",
		zap.Int("steps", len(script.Steps)),
		zap.Int("messages", res.Messages),
		zap.Duration("virtual_time", res.Elapsed))
	return nil
}

// replayResult summarizes a finished replay.
type replayResult struct {
	State    session.State
	UserName string
	Messages int
	Elapsed  time.Duration
}

// runReplay executes the steps on a virtual clock and writes the transcript
// to w as messages arrive.
func runReplay(w io.Writer, script replayScript, bot session.Script, events bool) (replayResult, error) {
	v := clock.NewVirtual()
	epoch := time.Unix(0, 0).UTC()

	listener := func(ev session.Event) {
		stamp := formatOffset(v.Now())
		switch ev.Kind {
		case session.EventMessageAppended:
			who := bot.BotName
			if ev.Message.Sender == session.SenderUser {
				who = "You"
			}
			fmt.Fprintf(w, "[%s] #%d %s: %s\n", stamp, ev.Message.ID, who, ev.Message.Text)
			return
		case session.EventValidationFailed:
			fmt.Fprintf(w, "[%s] ! %s\n", stamp, auth.Message(ev.Err))
			return
		}
		if events {
			fmt.Fprintf(w, "[%s]   · %s%s\n", stamp, ev.Kind, eventDetail(ev))
		}
	}

	m := session.New(v,
		session.WithScript(bot),
		session.WithListener(listener),
		session.WithNow(func() time.Time { return epoch.Add(v.Now()) }),
	)

	for i, step := range script.Steps {
		if err := applyStep(m, v, step); err != nil {
			return replayResult{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	res := replayResult{
		State:    m.State(),
		UserName: m.UserName(),
		Messages: len(m.Messages()),
		Elapsed:  v.Now(),
	}
	fmt.Fprintf(w, "-- state: %s", res.State)
	if res.UserName != "" {
		fmt.Fprintf(w, " (user %s)", res.UserName)
	}
	fmt.Fprintf(w, ", %d messages, %d timers pending\n", res.Messages, v.Pending())
	return res, nil
}

func applyStep(m *session.Machine, v *clock.Virtual, step replayStep) error {
	switch strings.ToLower(strings.TrimSpace(step.Action)) {
	case "login":
		m.ChooseAuth(session.AuthLogin)
	case "register":
		m.ChooseAuth(session.AuthRegister)
	case "cancel":
		m.CancelAuth()
	case "fill":
		m.SetForm(session.AuthForm{
			Name:            step.Name,
			Email:           step.Email,
			Password:        step.Password,
			ConfirmPassword: step.Confirm,
		})
	case "submit":
		// validation failures are part of the transcript, not replay errors
		_ = m.Submit()
	case "type":
		m.SetInput(step.Text)
	case "send":
		if step.Text != "" {
			m.SetInput(step.Text)
		}
		m.Send()
	case "logout":
		m.Logout()
	case "wait":
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("wait: invalid duration %q: %w", step.Duration, err)
		}
		if d < 0 {
			return fmt.Errorf("wait: negative duration %s", d)
		}
		v.Advance(d)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("+%6.3fs", d.Seconds())
}

func eventDetail(ev session.Event) string {
	switch ev.Kind {
	case session.EventTypingStarted, session.EventTypingStopped:
		if ev.ReplyTo == 0 {
			return ""
		}
		return fmt.Sprintf(" reply_to=%d", ev.ReplyTo)
	case session.EventAuthModeChanged:
		return " mode=" + ev.Mode.String()
	case session.EventLoggedIn:
		return fmt.Sprintf(" mode=%s user=%s", ev.Mode, ev.UserName)
	case session.EventLoggedOut:
		return " user=" + ev.UserName
	case session.EventSendRejected:
		return " reason=" + ev.Reason
	}
	return ""
}
