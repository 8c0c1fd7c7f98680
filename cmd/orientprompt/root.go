package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/trigg/orientprompt/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "orientprompt",
	Short: "Prompt to rotate the display when the device is turned",
	Long: `orientprompt watches iio-sensor-proxy on the system bus and, when the
device is physically rotated, shows a small overlay in the corner of the
screen. Tapping it rotates the display with wlr-randr. The prompt hides
itself if it is not tapped.

Running orientprompt without a subcommand starts the prompt.

Only single-monitor setups are handled; with more than one monitor
connected the prompt stays hidden.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.Load(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: runPrompt,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/orientprompt/orientprompt.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// configPath returns the config file in use, resolving the default.
func configPath() (string, error) {
	if globalOpts.configPath != "" {
		return globalOpts.configPath, nil
	}
	return config.Path()
}
