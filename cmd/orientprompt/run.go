package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/spf13/cobra"

	"github.com/trigg/orientprompt/internal/config"
	"github.com/trigg/orientprompt/internal/daemon"
	"github.com/trigg/orientprompt/internal/display"
	"github.com/trigg/orientprompt/internal/prompt"
	"github.com/trigg/orientprompt/internal/randr"
	"github.com/trigg/orientprompt/internal/sensor"
	"github.com/trigg/orientprompt/internal/theme"
)

const (
	appID   = "io.github.trigg.orientprompt"
	appName = "orientprompt"
)

// exitError carries a non-zero exit status out of the GTK main loop.
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("application exited with status %d", int(e))
}

// runPrompt runs the GTK application until it is signalled to stop.
func runPrompt(cmd *cobra.Command, args []string) error {
	logger.Info("starting orientprompt", "version", version)

	cfgPath, err := configPath()
	if err != nil {
		return err
	}
	stylePath := config.StylePath(cfgPath)

	app := adw.NewApplication(appID, 0)

	// Shared state between GTK main loop and signal handlers
	var (
		overlay       *display.Overlay
		themeLoader   *theme.Loader
		controller    *prompt.Controller
		watcher       *sensor.Watcher
		configWatcher *daemon.ConfigWatcher
		notifier      *daemon.InternalNotifier
		running       atomic.Bool
		failed        atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			glib.IdleAdd(func() {
				app.Quit()
			})
		case <-ctx.Done():
		}
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(stylePath, logger)
		themeLoader.Load()
		themeLoader.Apply(nil)

		o, err := display.NewOverlay(&app.Application, &cfg.Window, logger)
		if err != nil {
			if errors.Is(err, display.ErrLayerShellUnsupported) {
				logger.Error("compositor does not support layer-shell", "error", err)
			} else {
				logger.Error("failed to create overlay", "error", err)
			}
			failed.Store(true)
			app.Quit()
			return
		}
		overlay = o

		notifier = daemon.NewInternalNotifier(daemon.SessionSender(appName), logger)

		runner := randr.NewRunner(cfg.Randr.Command, cfg.Randr.Timeout.Duration())
		watcher = sensor.NewWatcher(sensor.Options{
			RequireAccelerometer: cfg.Sensor.RequireAccelerometer,
			Dispatch:             daemon.Dispatch,
		}, logger)

		controller = prompt.NewController(overlay, watcher, runner, daemon.GlibTimer{}, cfg.Prompt.Timeout.Duration(), logger)
		controller.OnRotateFailed(func(output string, err error) {
			go notifier.NotifyRotateError(output, err)
		})

		overlay.OnConfirm(controller.Confirm)
		watcher.OnAppeared(controller.SensorAppeared)
		watcher.OnVanished(controller.SensorVanished)
		watcher.OnOrientation(controller.DeviceOriented)

		if err := watcher.Start(ctx); err != nil {
			logger.Error("failed to watch sensor proxy", "error", err)
			failed.Store(true)
			app.Quit()
			return
		}

		configWatcher = daemon.NewConfigWatcher(cfgPath, stylePath, logger)
		configWatcher.SetReloadCallback(func(newConfig *config.Config) {
			glib.IdleAdd(func() {
				controller.SetTimeout(newConfig.Prompt.Timeout.Duration())
				controller.SetRotator(randr.NewRunner(newConfig.Randr.Command, newConfig.Randr.Timeout.Duration()))
				watcher.SetRequireAccelerometer(newConfig.Sensor.RequireAccelerometer)
				overlay.UpdateConfig(&newConfig.Window)
				if keys := cfg.RestartRequired(newConfig); len(keys) > 0 {
					logger.Warn("some settings take effect after restart", "keys", keys)
				}
				cfg = newConfig
			})
		})
		configWatcher.SetErrorCallback(notifier.NotifyConfigError)
		configWatcher.SetStyleCallback(func() {
			glib.IdleAdd(themeLoader.Load)
		})
		if err := configWatcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}

		// Held so the application stays alive while the overlay is hidden.
		app.Hold()

		logger.Info("orientprompt ready", "bus_name", sensor.BusName)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if watcher != nil {
			watcher.Stop()
		}
		if overlay != nil {
			overlay.Destroy()
		}
		running.Store(false)
	})

	// GTK must not see cobra's flags.
	status := app.Run([]string{os.Args[0]})
	if status == 0 && failed.Load() {
		status = 1
	}
	if status != 0 {
		return exitError(status)
	}

	logger.Info("orientprompt stopped")
	return nil
}
