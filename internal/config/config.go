package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the control panel.
type Config struct {
	// Device selects the actuator driver: auto, buildhat, mock or none.
	Device string `koanf:"device" yaml:"device"`
	// SerialPort is the Build HAT serial device path.
	SerialPort string `koanf:"serial_port" yaml:"serial_port"`
	// BaudRate is the serial line speed.
	BaudRate uint `koanf:"baud_rate" yaml:"baud_rate"`
	// MotorPort is the Build HAT port letter the motor is plugged into.
	MotorPort string `koanf:"motor_port" yaml:"motor_port"`
	// PowerLimit caps the power the board delivers to the motor, in (0, 1].
	PowerLimit float64 `koanf:"power_limit" yaml:"power_limit"`
	// DefaultSpeed is the initial speed setpoint.
	DefaultSpeed int `koanf:"default_speed" yaml:"default_speed"`
	// SpeedStep is the amount one ramp key changes the setpoint by.
	SpeedStep int `koanf:"speed_step" yaml:"speed_step"`
	// RefreshRate is the panel redraw rate in Hz.
	RefreshRate int `koanf:"refresh_rate" yaml:"refresh_rate"`
	// CommandTimeout bounds a single exchange with the board.
	CommandTimeout time.Duration `koanf:"command_timeout" yaml:"command_timeout"`
	// LogLevel is the minimum level written to the log.
	LogLevel string `koanf:"log_level" yaml:"log_level"`
	// LogFile receives logs while the panel owns the terminal.
	LogFile string `koanf:"log_file" yaml:"log_file"`
	// MetricsAddress is the Prometheus listen address. Empty disables metrics.
	MetricsAddress string `koanf:"metrics_address" yaml:"metrics_address"`
}

// Device drivers.
const (
	DeviceAuto     = "auto"
	DeviceBuildHAT = "buildhat"
	DeviceMock     = "mock"
	DeviceNone     = "none"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "trainpi.yaml"

	// DefaultSerialPort is the UART the Build HAT is wired to on a Raspberry Pi.
	DefaultSerialPort = "/dev/serial0"

	// DefaultBaudRate is the Build HAT serial speed.
	DefaultBaudRate = 115200

	// DefaultMotorPort is the port the train motor is plugged into.
	DefaultMotorPort = "A"

	// DefaultPowerLimit lets the motor draw full power.
	DefaultPowerLimit = 1.0

	// DefaultSpeed is the initial speed setpoint.
	DefaultSpeed = 50

	// DefaultSpeedStep is the ramp increment.
	DefaultSpeedStep = 10

	// DefaultRefreshRate is the panel redraw rate in Hz.
	DefaultRefreshRate = 60

	// DefaultCommandTimeout is the default duration of one board exchange.
	DefaultCommandTimeout = 2 * time.Second

	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "info"

	// DefaultLogFile is where the panel writes its logs.
	DefaultLogFile = "trainpi.log"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// maxRefreshRate bounds the redraw rate.
	maxRefreshRate = 240
	// maxSpeed is the highest speed setpoint.
	maxSpeed = 100
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownDevice is returned for an unsupported device driver.
	errUnknownDevice = errors.New("unknown device driver")
	// errInvalidMotorPort is returned when the motor port is not A to D.
	errInvalidMotorPort = errors.New("motor port must be one of A, B, C, D")
	// errOutOfRange is returned when a numeric setting is outside its bounds.
	errOutOfRange = errors.New("setting out of range")
)

// New returns a configuration populated with defaults.
func New() *Config {
	return &Config{
		Device:         DeviceAuto,
		SerialPort:     DefaultSerialPort,
		BaudRate:       DefaultBaudRate,
		MotorPort:      DefaultMotorPort,
		PowerLimit:     DefaultPowerLimit,
		DefaultSpeed:   DefaultSpeed,
		SpeedStep:      DefaultSpeedStep,
		RefreshRate:    DefaultRefreshRate,
		CommandTimeout: DefaultCommandTimeout,
		LogLevel:       DefaultLogLevel,
		LogFile:        DefaultLogFile,
	}
}

// Save writes the configuration to the provided path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks ranges, normalizes values and fills defaults for empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.Device = strings.ToLower(strings.TrimSpace(cfg.Device))
	if cfg.Device == "" {
		cfg.Device = DeviceAuto
	}

	switch cfg.Device {
	case DeviceAuto, DeviceBuildHAT, DeviceMock, DeviceNone:
	default:
		return fmt.Errorf("%w: %q", errUnknownDevice, cfg.Device)
	}

	cfg.MotorPort = strings.ToUpper(strings.TrimSpace(cfg.MotorPort))
	if cfg.MotorPort == "" {
		cfg.MotorPort = DefaultMotorPort
	}

	if _, err := PortIndex(cfg.MotorPort); err != nil {
		return err
	}

	if cfg.SerialPort == "" {
		cfg.SerialPort = DefaultSerialPort
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	if cfg.PowerLimit <= 0 || cfg.PowerLimit > 1 {
		return fmt.Errorf("%w: power_limit %v not in (0, 1]", errOutOfRange, cfg.PowerLimit)
	}

	if cfg.DefaultSpeed <= 0 || cfg.DefaultSpeed > maxSpeed {
		return fmt.Errorf("%w: default_speed %d not in (0, %d]", errOutOfRange, cfg.DefaultSpeed, maxSpeed)
	}

	if cfg.SpeedStep <= 0 || cfg.SpeedStep > maxSpeed {
		return fmt.Errorf("%w: speed_step %d not in (0, %d]", errOutOfRange, cfg.SpeedStep, maxSpeed)
	}

	if cfg.RefreshRate <= 0 || cfg.RefreshRate > maxRefreshRate {
		return fmt.Errorf("%w: refresh_rate %d not in (0, %d]", errOutOfRange, cfg.RefreshRate, maxRefreshRate)
	}

	// Set default timeout if not specified.
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}

	return nil
}

// PortIndex converts a Build HAT port letter to its numeric index.
func PortIndex(letter string) (int, error) {
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'D' {
		return 0, fmt.Errorf("%w: got %q", errInvalidMotorPort, letter)
	}

	return int(letter[0] - 'A'), nil
}

// RefreshInterval returns the redraw period derived from RefreshRate.
func (c *Config) RefreshInterval() time.Duration {
	if c.RefreshRate <= 0 {
		return time.Second / DefaultRefreshRate
	}

	return time.Second / time.Duration(c.RefreshRate)
}
