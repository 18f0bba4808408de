package motor

import (
	"context"
	"errors"
	"fmt"
)

// Actuator is the hardware capability the controller drives.
// Calls are synchronous; the controller never issues two at once.
type Actuator interface {
	// IsConnected reports whether the motor is attached and reachable.
	IsConnected(ctx context.Context) (bool, error)
	// Start runs the motor at the given speed setpoint.
	Start(ctx context.Context, speed int) error
	// Stop removes power from the motor.
	Stop(ctx context.Context) error
	// SetSpeed changes the setpoint of a running motor.
	SetSpeed(ctx context.Context, speed int) error
}

var (
	// ErrNotConnected is returned when the actuator is unreachable at run start.
	// The pending start is aborted and the controller stays stopped.
	ErrNotConnected = errors.New("motor is not connected")
	// ErrNoDevice is returned when a run is requested but no actuator is present.
	ErrNoDevice = errors.New("no motor device")
)

// CommandError reports a best-effort actuator call that failed after the
// controller had already committed its state change.
type CommandError struct {
	// Command names the actuator call: "start", "stop" or "set_speed".
	Command string
	// Err is the error returned by the actuator.
	Err error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("actuator %s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying actuator error.
func (e *CommandError) Unwrap() error {
	return e.Err
}
