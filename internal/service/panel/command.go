package panel

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/oshokin/trainpi/internal/logger"
	"github.com/oshokin/trainpi/internal/metrics"
	"github.com/oshokin/trainpi/internal/service/common"
	"github.com/oshokin/trainpi/internal/tui"
)

// Options controls the panel process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Overrides replace configured values from the command line.
	Overrides common.Overrides
	// Input is the terminal to read keys from. Defaults to os.Stdin.
	Input *os.File
}

// Run takes over the terminal and drives the motor until the operator quits
// or ctx is canceled. A running motor is stopped before Run returns.
//
//nolint:funlen // Setup and teardown read best in one place.
func Run(ctx context.Context, opts *Options) (err error) {
	cfg, err := common.LoadConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return err
	}

	input := opts.Input
	if input == nil {
		input = os.Stdin
	}

	collector := metrics.NewCollector()

	// A busy metrics port is reported while the terminal is still usable.
	var metricsServer *metrics.Server
	if cfg.MetricsAddress != "" {
		if metricsServer, err = collector.Listen(ctx, cfg.MetricsAddress); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	// Check the terminal before touching any hardware.
	restore, err := tui.MakeRaw(input)
	if err != nil {
		return multierr.Append(fmt.Errorf("prepare terminal: %w", err), metricsServer.Close())
	}

	defer func() {
		err = multierr.Append(err, restore())
	}()

	// The screen belongs to the panel, so logs go to a file.
	fileLogger, logCloser := logger.NewFile(cfg.LogFile, nil)
	defer func() {
		_ = fileLogger.Sync()
		_ = logCloser.Close()
	}()

	ctx = logger.WithName(logger.ToContext(ctx, fileLogger), "panel")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if metricsServer != nil {
		go func() {
			if serveErr := metricsServer.Serve(ctx); serveErr != nil {
				logger.ErrorKV(ctx, "Metrics server failed", "error", serveErr)
			}
		}()
	}

	session, err := common.OpenSession(ctx, cfg, collector.Observe)
	if err != nil {
		return fmt.Errorf("open motor session: %w", err)
	}

	defer func() {
		if closeErr := session.Close(ctx); closeErr != nil {
			logger.ErrorKV(ctx, "Motor shutdown failed", "error", closeErr)
			err = multierr.Append(err, closeErr)
		}
	}()

	screen, err := tui.NewScreen()
	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, screen.Close())
	}()

	actions := make(chan tui.Action)

	go func() {
		// The panel cannot be driven once input ends.
		defer cancel()

		if readErr := tui.ReadKeys(ctx, input, actions); readErr != nil && !errors.Is(readErr, context.Canceled) {
			logger.ErrorKV(ctx, "Keyboard input failed", "error", readErr)
		}
	}()

	loop := tui.NewLoop(
		session.Controller,
		screen.Draw,
		tui.WithInterval(cfg.RefreshInterval()),
		tui.WithDriver(session.Device.Driver),
	)

	logger.InfoKV(ctx, "Control panel started", "driver", session.Device.Driver, "refresh_rate", cfg.RefreshRate)

	if err = loop.Run(ctx, actions); err != nil {
		return fmt.Errorf("run panel: %w", err)
	}

	logger.Info(ctx, "Control panel stopped")

	return nil
}
