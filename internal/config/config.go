package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fitcoach/internal/session"
)

// Config holds all fitcoach configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Theme is "light", "dark" or "auto" (detect from the terminal).
	Theme string `yaml:"theme"`

	// Bot texts
	Bot BotConfig `yaml:"bot"`

	// Simulated latency
	Timing TimingConfig `yaml:"timing"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BotConfig holds the fixed strings the coach emits. Welcome texts may
// contain {name}, replaced with the user's display name.
type BotConfig struct {
	Name            string `yaml:"name"`
	Greeting        string `yaml:"greeting"`
	LoginPrompt     string `yaml:"login_prompt"`
	RegisterPrompt  string `yaml:"register_prompt"`
	LoginWelcome    string `yaml:"login_welcome"`
	RegisterWelcome string `yaml:"register_welcome"`
	Reply           string `yaml:"reply"`
}

// TimingConfig holds the simulated delays as duration strings.
type TimingConfig struct {
	AuthPrompt string `yaml:"auth_prompt"` // after choosing login/register
	Welcome    string `yaml:"welcome"`     // after a successful submit
	Typing     string `yaml:"typing"`      // send -> typing indicator
	Reply      string `yaml:"reply"`       // typing indicator -> reply
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	script := session.DefaultScript()
	return &Config{
		Name:    "Fitko",
		Version: "0.3.0",
		Theme:   "auto",

		Bot: BotConfig{
			Name:            script.BotName,
			Greeting:        script.Greeting,
			LoginPrompt:     script.LoginPrompt,
			RegisterPrompt:  script.RegisterPrompt,
			LoginWelcome:    script.LoginWelcome,
			RegisterWelcome: script.RegisterWelcome,
			Reply:           script.Reply,
		},

		Timing: TimingConfig{
			AuthPrompt: script.AuthPromptDelay.String(),
			Welcome:    script.WelcomeDelay.String(),
			Typing:     script.TypingDelay.String(),
			Reply:      script.ReplyDelay.String(),
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			Dir:       defaultLogDir(),
			DebugMode: false,
		},
	}
}

// DefaultPath returns $COACH_CONFIG, or ~/.fitcoach/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("COACH_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fitcoach", "config.yaml")
	}
	return filepath.Join(home, ".fitcoach", "config.yaml")
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fitcoach", "logs")
	}
	return filepath.Join(home, ".fitcoach", "logs")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if theme := os.Getenv("COACH_THEME"); theme != "" {
		c.Theme = strings.ToLower(theme)
	}
	if v := os.Getenv("COACH_DEBUG"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			c.Logging.DebugMode = true
		case "0", "false", "no", "off":
			c.Logging.DebugMode = false
		}
	}
	if dir := os.Getenv("COACH_LOG_DIR"); dir != "" {
		c.Logging.Dir = dir
	}
}

// Script converts the bot and timing sections into the machine's script.
// Unset or unparsable fields fall back to the defaults.
func (c *Config) Script() session.Script {
	def := session.DefaultScript()
	s := session.Script{
		BotName:         orDefault(c.Bot.Name, def.BotName),
		Greeting:        orDefault(c.Bot.Greeting, def.Greeting),
		LoginPrompt:     orDefault(c.Bot.LoginPrompt, def.LoginPrompt),
		RegisterPrompt:  orDefault(c.Bot.RegisterPrompt, def.RegisterPrompt),
		LoginWelcome:    orDefault(c.Bot.LoginWelcome, def.LoginWelcome),
		RegisterWelcome: orDefault(c.Bot.RegisterWelcome, def.RegisterWelcome),
		Reply:           orDefault(c.Bot.Reply, def.Reply),
		AuthPromptDelay: parseDuration(c.Timing.AuthPrompt, def.AuthPromptDelay),
		WelcomeDelay:    parseDuration(c.Timing.Welcome, def.WelcomeDelay),
		TypingDelay:     parseDuration(c.Timing.Typing, def.TypingDelay),
		ReplyDelay:      parseDuration(c.Timing.Reply, def.ReplyDelay),
	}
	return s
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
