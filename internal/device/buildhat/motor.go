package buildhat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	goserial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/multierr"

	"github.com/oshokin/trainpi/internal/logger"
)

const (
	// interCharacterTimeoutMs is how long a serial read waits for more data.
	// The driver requires a multiple of 100.
	interCharacterTimeoutMs = 100
	// idlePollInterval is the pause after an empty read.
	idlePollInterval = 10 * time.Millisecond
	// defaultTimeout bounds a request/response exchange.
	defaultTimeout = 2 * time.Second
	// maxPort is the highest Build HAT port index.
	maxPort = 3
)

var (
	// ErrNoResponse is returned when the board does not answer in time.
	ErrNoResponse = errors.New("build hat did not respond")
	// ErrFirmwareMissing is returned when the board is still in its bootloader.
	ErrFirmwareMissing = errors.New("build hat firmware is not loaded")
	// errInvalidPort is returned for a port index outside 0..3.
	errInvalidPort = errors.New("invalid build hat port")
)

// Options describes how to reach the motor.
type Options struct {
	// SerialPort is the serial device path, e.g. /dev/serial0.
	SerialPort string
	// BaudRate is the serial line speed.
	BaudRate uint
	// Port is the Build HAT port index, 0 for A through 3 for D.
	Port int
	// PowerLimit caps the motor power, in (0, 1].
	PowerLimit float64
	// Timeout bounds a single request/response exchange.
	Timeout time.Duration
}

// Motor is a passive motor on one Build HAT port. It implements motor.Actuator.
type Motor struct {
	// mu serializes exchanges on the serial line.
	mu sync.Mutex
	// w receives commands.
	w io.Writer
	// r reads board output line by line.
	r *bufio.Reader
	// closer releases the serial port, if owned.
	closer io.Closer
	// port is the Build HAT port index.
	port int
	// timeout bounds a request/response exchange.
	timeout time.Duration
}

// Open opens the serial port, checks the firmware and applies the power limit.
func Open(ctx context.Context, opts Options) (*Motor, error) {
	if opts.Port < 0 || opts.Port > maxPort {
		return nil, fmt.Errorf("%w: %d", errInvalidPort, opts.Port)
	}

	rwc, err := goserial.Open(goserial.OpenOptions{
		PortName:              opts.SerialPort,
		BaudRate:              opts.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: interCharacterTimeoutMs,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", opts.SerialPort, err)
	}

	m := New(rwc, opts.Port, opts.Timeout)
	m.closer = rwc

	version, err := m.Version(ctx)
	if err != nil {
		return nil, multierr.Append(err, rwc.Close())
	}

	logger.InfoKV(ctx, "Build HAT detected", "firmware", version, "serial_port", opts.SerialPort)

	if err = m.SetPowerLimit(ctx, opts.PowerLimit); err != nil {
		return nil, multierr.Append(err, rwc.Close())
	}

	return m, nil
}

// New wraps an already open connection to the board. The caller keeps
// ownership of conn.
func New(conn io.ReadWriter, port int, timeout time.Duration) *Motor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Motor{
		w:       conn,
		r:       bufio.NewReader(conn),
		port:    port,
		timeout: timeout,
	}
}

// Version asks the board for its firmware version.
func (m *Motor) Version(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.write("version"); err != nil {
		return "", err
	}

	line, err := m.awaitLine(ctx, func(line string) bool {
		lower := strings.ToLower(line)

		return strings.Contains(lower, "firmware version") || strings.Contains(lower, "bootloader")
	})
	if err != nil {
		return "", fmt.Errorf("read firmware version: %w", err)
	}

	if strings.Contains(strings.ToLower(line), "bootloader") {
		return "", ErrFirmwareMissing
	}

	_, version, found := strings.Cut(line, ":")
	if !found {
		return strings.TrimSpace(line), nil
	}

	return strings.TrimSpace(version), nil
}

// SetPowerLimit caps the power delivered to the port.
func (m *Motor) SetPowerLimit(_ context.Context, limit float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.write(m.portCommand("port_plimit " + formatFloat(limit)))
}

// IsConnected lists the ports and reports whether a device is attached to ours.
func (m *Motor) IsConnected(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.write("list"); err != nil {
		return false, err
	}

	prefix := fmt.Sprintf("P%d:", m.port)

	line, err := m.awaitLine(ctx, func(line string) bool {
		return strings.HasPrefix(line, prefix)
	})
	if err != nil {
		return false, fmt.Errorf("list ports: %w", err)
	}

	return strings.Contains(line, "connected to"), nil
}

// Start runs the motor at speed percent of full power.
func (m *Motor) Start(_ context.Context, speed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.write(m.portCommand("pwm ; set " + formatFloat(float64(speed)/100)))
}

// SetSpeed changes the setpoint of a running motor.
func (m *Motor) SetSpeed(ctx context.Context, speed int) error {
	return m.Start(ctx, speed)
}

// Stop lets the motor coast to a halt.
func (m *Motor) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.write(m.portCommand("coast"))
}

// Close stops the motor and releases the serial port if the motor owns it.
func (m *Motor) Close() error {
	err := m.Stop(context.Background())

	if m.closer != nil {
		err = multierr.Append(err, m.closer.Close())
	}

	return err
}

// portCommand prefixes cmd with the port selector.
func (m *Motor) portCommand(cmd string) string {
	return fmt.Sprintf("port %d ; %s", m.port, cmd)
}

// write sends one command line to the board.
func (m *Motor) write(cmd string) error {
	if _, err := io.WriteString(m.w, cmd+"\r"); err != nil {
		return fmt.Errorf("write %q: %w", cmd, err)
	}

	return nil
}

// awaitLine reads board output until match accepts a line, the timeout
// expires or ctx is done. Unmatched lines are discarded.
func (m *Motor) awaitLine(ctx context.Context, match func(string) bool) (string, error) {
	deadline := time.Now().Add(m.timeout)

	var partial strings.Builder

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		chunk, err := m.r.ReadString('\n')
		partial.WriteString(chunk)

		if err == nil {
			line := strings.TrimSpace(partial.String())
			partial.Reset()

			if match(line) {
				return line, nil
			}

			continue
		}

		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read: %w", err)
		}

		if time.Now().After(deadline) {
			return "", ErrNoResponse
		}

		if chunk == "" {
			time.Sleep(idlePollInterval)
		}
	}
}

// formatFloat renders f in the shortest form the firmware accepts.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
