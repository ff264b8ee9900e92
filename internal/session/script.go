package session

import (
	"strings"
	"time"
)

// Script is the fixed text and timing the coach plays back.
type Script struct {
	BotName         string
	Greeting        string
	LoginPrompt     string
	RegisterPrompt  string
	LoginWelcome    string // {name} is replaced with the display name
	RegisterWelcome string // {name} is replaced with the display name
	Reply           string

	AuthPromptDelay time.Duration
	WelcomeDelay    time.Duration
	TypingDelay     time.Duration
	ReplyDelay      time.Duration
}

// DefaultScript returns the stock Fitko texts and delays.
func DefaultScript() Script {
	return Script{
		BotName:         "Fitko",
		Greeting:        "Welcome to Fitko! I'm your AI fitness coach. I'll help you create a personalized workout plan and can recommend a real personal trainer to support your journey. This app is currently under development—stay tuned for more features soon!",
		LoginPrompt:     "Please enter your email and password to log in.",
		RegisterPrompt:  "Let's get you registered! Please provide your details below.",
		LoginWelcome:    "Welcome back! How can I help you today?",
		RegisterWelcome: "Welcome, {name}! You're now registered and logged in. How can I help you today?",
		Reply:           "Thanks for your message! I'm still under development, but soon I'll be able to help you with personalized fitness plans.",

		AuthPromptDelay: 800 * time.Millisecond,
		WelcomeDelay:    1200 * time.Millisecond,
		TypingDelay:     300 * time.Millisecond,
		ReplyDelay:      1500 * time.Millisecond,
	}
}

func (s Script) welcome(mode AuthMode, name string) string {
	tmpl := s.LoginWelcome
	if mode == AuthRegister {
		tmpl = s.RegisterWelcome
	}
	return strings.ReplaceAll(tmpl, "{name}", name)
}

func (s Script) prompt(mode AuthMode) string {
	if mode == AuthRegister {
		return s.RegisterPrompt
	}
	return s.LoginPrompt
}
