// Package cli provides the command-line interface for the trading engine.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"krx-trader/internal/agents"
	"krx-trader/internal/config"
	"krx-trader/internal/store"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies shared by all commands.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.PositionStore
	LLMClient agents.LLMClient
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Credentials.OpenAI.APIKey != "" {
		app.LLMClient = agents.NewOpenAIClient(cfg.Credentials.OpenAI.APIKey, cfg.Agents.Model)
		logger.Debug().Str("model", cfg.Agents.Model).Msg("OpenAI LLM client initialized")
	}

	positionStore, err := store.NewSQLiteStore(cfg.Trading.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize position store")
	} else {
		app.Store = positionStore
	}

	rootCmd := &cobra.Command{
		Use:   "krx-trader",
		Short: "AI-assisted trading decision engine for the Korean stock market",
		Long: `krx-trader turns per-stock analysis reports into admit/reject buy
decisions, enforces portfolio risk constraints, decides sell timing for open
positions, and routes orders by session time band.

Use 'krx-trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/krx-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newTradeCmd(app))
	rootCmd.AddCommand(newTrackCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newPerformanceCmd(app))
	rootCmd.AddCommand(newSkipsCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("krx-trader v%s\n", Version)
		},
	}
}
