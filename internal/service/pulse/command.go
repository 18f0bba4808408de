package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/trainpi/internal/domain/motor"
	"github.com/oshokin/trainpi/internal/domain/stopwatch"
	"github.com/oshokin/trainpi/internal/logger"
	"github.com/oshokin/trainpi/internal/service/common"
)

// DefaultDuration is how long the motor runs when no duration is given.
const DefaultDuration = 3 * time.Second

// Options controls a single pulse.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Overrides replace configured values from the command line.
	Overrides common.Overrides
	// Duration is how long the motor runs.
	Duration time.Duration
	// Out receives the final report. Defaults to os.Stdout.
	Out io.Writer
}

// errNonPositiveDuration is returned for a zero or negative run time.
var errNonPositiveDuration = errors.New("duration must be positive")

// Run starts the motor, waits for the duration or ctx cancellation, and stops it.
func Run(ctx context.Context, opts *Options) (err error) {
	ctx = logger.WithName(ctx, "pulse")

	if opts.Duration == 0 {
		opts.Duration = DefaultDuration
	}

	if opts.Duration < 0 {
		return fmt.Errorf("%w: %s", errNonPositiveDuration, opts.Duration)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	cfg, err := common.LoadConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Connecting to motor...")

	session, err := common.OpenSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open motor session: %w", err)
	}

	defer func() {
		err = multierr.Append(err, session.Close(ctx))
	}()

	ctrl := session.Controller

	if err = ctrl.ToggleRun(ctx); err != nil {
		var cmdErr *motor.CommandError
		if !errors.As(err, &cmdErr) {
			return fmt.Errorf("start motor: %w", err)
		}

		// The controller is running; keep going and let the stop clean up.
		logger.WarnKV(ctx, "Start command reported an error", "error", err)
	}

	logger.InfoKV(ctx, "Motor running", "speed", ctrl.Speed(), "duration", opts.Duration)

	timer := time.NewTimer(opts.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		logger.Info(ctx, "Interrupted, stopping motor early")
	}

	// Stop even when ctx is canceled.
	if err = ctrl.ToggleRun(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("stop motor: %w", err)
	}

	if _, err = fmt.Fprintf(out, "Motor ran for %s at %d%%\n", stopwatch.Format(ctrl.Elapsed()), ctrl.Speed()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
