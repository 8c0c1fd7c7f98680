package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trigg/orientprompt/internal/sensor"
	"github.com/trigg/orientprompt/internal/tui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the orientation sensor live",
	Long: `Show a live view of iio-sensor-proxy: whether it is on the system bus,
the current orientation and its transform, and a log of recent changes.

The display is never rotated. The accelerometer is claimed while the
monitor runs.

Key bindings:
  c           Clear the event log
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	logger.Debug("starting monitor")

	// Logging would draw over the TUI.
	watcher := sensor.NewWatcher(sensor.Options{
		RequireAccelerometer: cfg.Sensor.RequireAccelerometer,
	}, slog.New(slog.DiscardHandler))

	return tui.Run(ctx, tui.RunOptions{Watcher: watcher})
}
