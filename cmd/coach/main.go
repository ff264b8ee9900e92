package main

import (
	"context"
	"fmt"
	"os"

	"fitcoach/cmd/coach/chat"
	"fitcoach/internal/config"
	"fitcoach/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Interactive flags
	darkMode    bool
	watchConfig bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "coach - chat with your AI fitness coach",
	Long: `coach is a terminal chat front end for an AI fitness coach.

Log in or register (mock, client-side only), then chat. The coach answers
with simulated typing latency.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive mode owns the screen; it logs to files only.
		if cmd == cmd.Root() {
			logger = zap.NewNop()
			return nil
		}

		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $COACH_CONFIG or ~/.fitcoach/config.yaml)")

	rootCmd.Flags().BoolVar(&darkMode, "dark", false, "Force the dark theme")
	rootCmd.Flags().BoolVar(&watchConfig, "watch", false, "Reload the config file when it changes")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfigOrDefault loads the config file, falling back to defaults when it
// cannot be read or parsed.
func loadConfigOrDefault(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.DefaultConfig(), err
	}
	return cfg, nil
}

// initLogging starts the file loggers for the interactive session.
func initLogging(cfg *config.Config) {
	opts := cfg.Logging.LoggerOptions()
	if verbose {
		opts.DebugMode = true
		opts.Level = "debug"
	}
	if err := logging.Initialize(opts); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] %v\n", err)
	}
}

func runInteractiveChat(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path := resolveConfigPath()
	cfg, loadErr := loadConfigOrDefault(path)
	if darkMode {
		cfg.Theme = "dark"
	}

	initLogging(cfg)
	defer logging.CloseAll()
	if loadErr != nil {
		logging.BootWarn("using default config: %v", loadErr)
	}
	logging.Boot("starting interactive chat (config %s, theme %s)", path, cfg.Theme)

	model := chat.New(chat.Config{Script: cfg.Script(), Theme: cfg.Theme})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	if watchConfig {
		g.Go(func() error {
			err := config.Watch(gctx, path, func(c *config.Config) {
				if darkMode {
					c.Theme = "dark"
				}
				p.Send(chat.ConfigReloadedMsg{Config: c})
			})
			if err != nil {
				// The chat keeps running without live reload.
				logging.BootWarn("config watch disabled: %v", err)
			}
			return nil
		})
	}

	err := g.Wait()
	logging.Boot("interactive chat ended (session %s)", model.SessionID())
	return err
}
