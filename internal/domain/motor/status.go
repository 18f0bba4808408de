package motor

import "time"

// Status is the logical run state of the motor.
type Status int

const (
	// StatusStopped means no power is commanded to the motor.
	StatusStopped Status = iota
	// StatusRunning means the motor was started at the current speed.
	StatusRunning
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Operation names a controller operation for change notifications.
type Operation string

// Controller operations.
const (
	OpToggle     Operation = "toggle"
	OpSpeedUp    Operation = "speed_up"
	OpSpeedDown  Operation = "speed_down"
	OpResetTimer Operation = "reset_timer"
)

// Snapshot is a read model of the controller at one instant.
type Snapshot struct {
	// Status is the logical run state.
	Status Status
	// Speed is the current setpoint.
	Speed int
	// Elapsed is the cumulative running time.
	Elapsed time.Duration
	// RunID identifies the current run. Empty while stopped.
	RunID string
	// HasDevice is false in no-device mode.
	HasDevice bool
}

// Running reports whether the snapshot was taken while the motor was running.
func (s Snapshot) Running() bool {
	return s.Status == StatusRunning
}

// Change describes the outcome of one controller operation.
type Change struct {
	Snapshot

	// Op is the operation that produced the change.
	Op Operation
	// Err is the error returned to the caller, if any.
	Err error
}

// Listener observes controller changes. Listeners run synchronously on the
// caller's goroutine and must not call back into the controller.
type Listener func(Change)
