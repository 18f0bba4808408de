// Package mock implements a simulated motor actuator.
//
// It is used by the "mock" device driver to demonstrate the panel without
// hardware, and by tests that need to observe the commands a controller sends.
package mock

import (
	"context"
	"sync"

	"github.com/oshokin/trainpi/internal/logger"
)

// Command is one recorded actuator call.
type Command struct {
	// Name is "start", "stop" or "set_speed".
	Name string
	// Speed is the setpoint for start and set_speed.
	Speed int
}

// Actuator is an in-memory motor. It is safe for concurrent use so that
// tests may inspect it while a panel loop drives it.
type Actuator struct {
	// mu protects all fields below.
	mu sync.Mutex
	// connected is reported by IsConnected.
	connected bool
	// connErr is returned by IsConnected when set.
	connErr error
	// cmdErr is returned by motor commands when set.
	cmdErr error
	// running mirrors the simulated motor state.
	running bool
	// speed is the last commanded setpoint.
	speed int
	// commands records every motor command in order.
	commands []Command
}

// New creates a connected, stopped mock actuator.
func New() *Actuator {
	return &Actuator{
		connected: true,
	}
}

// SetConnected changes the connectivity reported by IsConnected.
func (a *Actuator) SetConnected(connected bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.connected = connected
}

// FailConnectivity makes IsConnected return err. Nil clears the failure.
func (a *Actuator) FailConnectivity(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.connErr = err
}

// FailCommands makes every motor command return err. Nil clears the failure.
func (a *Actuator) FailCommands(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cmdErr = err
}

// IsConnected reports the simulated connectivity.
func (a *Actuator) IsConnected(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger.DebugKV(ctx, "Mock connectivity check", "connected", a.connected, "error", a.connErr)

	return a.connected, a.connErr
}

// Start simulates starting the motor.
func (a *Actuator) Start(ctx context.Context, speed int) error {
	return a.record(ctx, Command{Name: "start", Speed: speed}, true)
}

// Stop simulates stopping the motor.
func (a *Actuator) Stop(ctx context.Context) error {
	return a.record(ctx, Command{Name: "stop"}, false)
}

// SetSpeed simulates a speed change.
func (a *Actuator) SetSpeed(ctx context.Context, speed int) error {
	return a.record(ctx, Command{Name: "set_speed", Speed: speed}, true)
}

// Running reports whether the simulated motor is running.
func (a *Actuator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.running
}

// Speed returns the last commanded setpoint.
func (a *Actuator) Speed() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.speed
}

// Commands returns a copy of the recorded commands.
func (a *Actuator) Commands() []Command {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]Command(nil), a.commands...)
}

// record stores cmd and applies it to the simulated motor unless commands fail.
func (a *Actuator) record(ctx context.Context, cmd Command, running bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.commands = append(a.commands, cmd)

	logger.DebugKV(ctx, "Mock motor command", "command", cmd.Name, "speed", cmd.Speed)

	if a.cmdErr != nil {
		return a.cmdErr
	}

	a.running = running
	if running {
		a.speed = cmd.Speed
	}

	return nil
}
