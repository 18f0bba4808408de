//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/oshokin/trainpi/internal/config"
	"github.com/oshokin/trainpi/internal/device"
	"github.com/oshokin/trainpi/internal/domain/motor"
	"github.com/oshokin/trainpi/internal/logger"
)

// Session is an opened device together with the controller driving it.
type Session struct {
	// Device is the probed actuator, possibly without hardware.
	Device *device.Device
	// Controller owns the motor state.
	Controller *motor.Controller
}

// Overrides carries command-line values that take precedence over the config file.
type Overrides struct {
	// Device replaces the configured device driver when set.
	Device string
	// LogLevel replaces the configured log level when set.
	LogLevel string
	// Speed replaces the configured default speed when positive.
	Speed int
}

// errUnknownLogLevel is returned for a log level zap does not know.
var errUnknownLogLevel = errors.New("unknown log level")

// LoadConfig loads settings from path, applies overrides and sets the log level.
func LoadConfig(path string, overrides Overrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if overrides.Device != "" {
		cfg.Device = overrides.Device
	}

	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	if overrides.Speed > 0 {
		cfg.DefaultSpeed = overrides.Speed
	}

	if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	logger.SetLevel(level)

	return cfg, nil
}

// OpenSession probes the device and builds a controller from cfg.
func OpenSession(ctx context.Context, cfg *config.Config, listeners ...motor.Listener) (*Session, error) {
	dev, err := device.Probe(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []motor.Option{
		motor.WithDefaultSpeed(cfg.DefaultSpeed),
		motor.WithStep(cfg.SpeedStep),
	}

	for _, l := range listeners {
		opts = append(opts, motor.WithListener(l))
	}

	if operator, err := DetectOperator(); err == nil {
		logger.InfoKV(ctx, "Motor session opened", "operator", operator.String(), "driver", dev.Driver)
	}

	return &Session{
		Device:     dev,
		Controller: motor.NewController(dev.Actuator, opts...),
	}, nil
}

// Close stops a running motor and releases the device. It keeps going after
// failures so the hardware is always released, and returns every error.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	// Shutdown must reach the hardware even when ctx is already canceled.
	ctx = context.WithoutCancel(ctx)

	var err error

	if s.Controller.Status() == motor.StatusRunning {
		logger.Info(ctx, "Stopping motor before exit")

		err = multierr.Append(err, s.Controller.ToggleRun(ctx))
	}

	if closeErr := s.Device.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("close device: %w", closeErr))
	}

	return err
}
