package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/oshokin/trainpi/internal/config"
	"github.com/oshokin/trainpi/internal/device/buildhat"
	"github.com/oshokin/trainpi/internal/device/mock"
	"github.com/oshokin/trainpi/internal/domain/motor"
	"github.com/oshokin/trainpi/internal/logger"
)

// Device is the outcome of a probe. A nil Actuator means no-device mode.
type Device struct {
	// Actuator drives the motor. Nil when no device is present.
	Actuator motor.Actuator
	// Driver is the driver that was selected.
	Driver string

	// closer releases the hardware, if any.
	closer io.Closer
}

// Present reports whether an actuator is attached.
func (d *Device) Present() bool {
	return d != nil && d.Actuator != nil
}

// Close releases the hardware. It is safe to call on a device without hardware.
func (d *Device) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}

	return d.closer.Close()
}

// errUnknownDriver is returned for a driver name Probe does not know.
var errUnknownDriver = errors.New("unknown device driver")

// Probe selects and opens the actuator named by cfg.Device.
func Probe(ctx context.Context, cfg *config.Config) (*Device, error) {
	driver := ResolveDriver(cfg.Device, runtime.GOOS)

	ctx = logger.WithKV(ctx, "driver", driver)

	switch driver {
	case config.DeviceNone:
		logger.Info(ctx, "Running without a motor device")

		return &Device{Driver: driver}, nil
	case config.DeviceMock:
		logger.Info(ctx, "Using simulated motor")

		return &Device{Actuator: mock.New(), Driver: driver}, nil
	case config.DeviceBuildHAT:
		port, err := config.PortIndex(cfg.MotorPort)
		if err != nil {
			return nil, err
		}

		m, err := buildhat.Open(ctx, buildhat.Options{
			SerialPort: cfg.SerialPort,
			BaudRate:   cfg.BaudRate,
			Port:       port,
			PowerLimit: cfg.PowerLimit,
			Timeout:    cfg.CommandTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("open build hat: %w", err)
		}

		logger.InfoKV(ctx, "Motor device ready", "serial_port", cfg.SerialPort, "motor_port", cfg.MotorPort)

		return &Device{Actuator: m, Driver: driver, closer: m}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDriver, driver)
	}
}

// ResolveDriver maps "auto" to a concrete driver for the given GOOS.
// Other driver names are returned unchanged.
func ResolveDriver(driver, goos string) string {
	if driver != config.DeviceAuto && driver != "" {
		return driver
	}

	if goos == "linux" {
		return config.DeviceBuildHAT
	}

	return config.DeviceNone
}
