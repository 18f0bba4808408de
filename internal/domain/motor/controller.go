package motor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/trainpi/internal/domain/stopwatch"
	"github.com/oshokin/trainpi/internal/logger"
)

// Speed limits and ramp defaults.
const (
	// MinSpeed is the lowest setpoint. Ramping a running motor down to it stops the motor.
	MinSpeed = 0
	// MaxSpeed is the highest setpoint.
	MaxSpeed = 100
	// DefaultSpeed is the setpoint a new controller starts with.
	DefaultSpeed = 50
	// DefaultStep is the amount one speed_up or speed_down changes the setpoint by.
	DefaultStep = 10
)

// Controller owns the run status and speed setpoint of one motor.
// It borrows the actuator and never closes it.
//
// Controller is not safe for concurrent use: all operations are expected to
// run on the single goroutine that handles operator input.
type Controller struct {
	// actuator drives the hardware. Nil in no-device mode.
	actuator Actuator
	// timer measures running time in lockstep with status.
	timer *stopwatch.Timer
	// listeners are notified after every operation.
	listeners []Listener

	// status is the logical run state.
	status Status
	// speed is the current setpoint, always within [MinSpeed, MaxSpeed].
	speed int
	// defaultSpeed is restored when a run starts from MinSpeed.
	defaultSpeed int
	// step is the ramp increment.
	step int
	// runID identifies the current run.
	runID string
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimer sets the stopwatch the controller starts and stops.
func WithTimer(timer *stopwatch.Timer) Option {
	return func(c *Controller) {
		if timer != nil {
			c.timer = timer
		}
	}
}

// WithDefaultSpeed sets the initial setpoint. Values outside (MinSpeed, MaxSpeed] are ignored.
func WithDefaultSpeed(speed int) Option {
	return func(c *Controller) {
		if speed > MinSpeed && speed <= MaxSpeed {
			c.defaultSpeed = speed
		}
	}
}

// WithStep sets the ramp increment. Values outside (0, MaxSpeed-MinSpeed] are ignored.
func WithStep(step int) Option {
	return func(c *Controller) {
		if step > 0 && step <= MaxSpeed-MinSpeed {
			c.step = step
		}
	}
}

// WithListener registers a change listener at construction time.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		c.Subscribe(l)
	}
}

// NewController creates a stopped controller. A nil actuator selects no-device mode.
func NewController(actuator Actuator, opts ...Option) *Controller {
	c := &Controller{
		actuator:     actuator,
		status:       StatusStopped,
		defaultSpeed: DefaultSpeed,
		step:         DefaultStep,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timer == nil {
		c.timer = stopwatch.New()
	}

	c.speed = c.defaultSpeed

	return c
}

// Subscribe registers a listener for subsequent changes.
func (c *Controller) Subscribe(l Listener) {
	if l != nil {
		c.listeners = append(c.listeners, l)
	}
}

// Status returns the current run state.
func (c *Controller) Status() Status {
	return c.status
}

// Speed returns the current setpoint.
func (c *Controller) Speed() int {
	return c.speed
}

// Elapsed returns the cumulative running time. It has no side effects.
func (c *Controller) Elapsed() time.Duration {
	return c.timer.Elapsed()
}

// HasDevice reports whether an actuator is attached.
func (c *Controller) HasDevice() bool {
	return c.actuator != nil
}

// Snapshot returns the current read model.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Status:    c.status,
		Speed:     c.speed,
		Elapsed:   c.timer.Elapsed(),
		RunID:     c.runID,
		HasDevice: c.actuator != nil,
	}
}

// ToggleRun starts a stopped motor or stops a running one.
//
// Starting checks connectivity first; ErrNoDevice or ErrNotConnected abort the
// start and leave everything untouched. Stopping always commits: a failed
// actuator stop is returned as *CommandError but the controller is stopped.
func (c *Controller) ToggleRun(ctx context.Context) error {
	var err error

	if c.status == StatusRunning {
		err = c.stop(ctx)
	} else {
		err = c.start(ctx)
	}

	c.notify(OpToggle, err)

	return err
}

// SpeedUp raises the setpoint by one step, capped at MaxSpeed.
// A running motor receives the new setpoint immediately.
func (c *Controller) SpeedUp(ctx context.Context) error {
	err := c.setSpeed(ctx, min(MaxSpeed, c.speed+c.step))

	c.notify(OpSpeedUp, err)

	return err
}

// SpeedDown lowers the setpoint by one step, floored at MinSpeed.
// A running motor that reaches MinSpeed is stopped instead of being left
// running at zero.
func (c *Controller) SpeedDown(ctx context.Context) error {
	next := max(MinSpeed, c.speed-c.step)

	var err error

	if c.status == StatusRunning && next == MinSpeed {
		c.speed = next

		logger.InfoKV(ctx, "Speed ramped down to minimum, stopping motor", "run_id", c.runID)

		err = c.stop(ctx)
		c.notify(OpToggle, err)
	} else {
		err = c.setSpeed(ctx, next)
	}

	c.notify(OpSpeedDown, err)

	return err
}

// ResetTimer zeroes the elapsed time without touching status or speed.
func (c *Controller) ResetTimer(ctx context.Context) {
	c.timer.Reset()

	logger.DebugKV(ctx, "Timer reset", "running", c.timer.Running())

	c.notify(OpResetTimer, nil)
}

// start performs the Stopped to Running transition.
func (c *Controller) start(ctx context.Context) error {
	if c.actuator == nil {
		logger.Warn(ctx, "Run requested but no motor device is present")

		return ErrNoDevice
	}

	connected, err := c.actuator.IsConnected(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Connectivity check failed", "error", err)

		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	if !connected {
		logger.Warn(ctx, "Motor is not connected, run aborted")

		return ErrNotConnected
	}

	if c.speed <= MinSpeed {
		c.speed = c.defaultSpeed
	}

	var cmdErr error
	if err = c.actuator.Start(ctx, c.speed); err != nil {
		cmdErr = &CommandError{Command: "start", Err: err}
		logger.ErrorKV(ctx, "Motor start command failed", "error", err)
	}

	c.status = StatusRunning
	c.runID = uuid.NewString()
	c.timer.Start()

	logger.InfoKV(ctx, "Motor started", "run_id", c.runID, "speed", c.speed)

	return cmdErr
}

// stop performs the Running to Stopped transition. It always commits.
func (c *Controller) stop(ctx context.Context) error {
	var cmdErr error
	if err := c.actuator.Stop(ctx); err != nil {
		cmdErr = &CommandError{Command: "stop", Err: err}
		logger.ErrorKV(ctx, "Motor stop command failed", "run_id", c.runID, "error", err)
	}

	c.status = StatusStopped
	c.timer.Stop()

	logger.InfoKV(ctx, "Motor stopped", "run_id", c.runID, "elapsed", c.timer.Elapsed())

	c.runID = ""

	return cmdErr
}

// setSpeed stores the setpoint and forwards it to a running motor.
func (c *Controller) setSpeed(ctx context.Context, speed int) error {
	if speed == c.speed {
		return nil
	}

	c.speed = speed

	logger.DebugKV(ctx, "Speed setpoint changed", "speed", speed, "status", c.status)

	if c.status != StatusRunning {
		return nil
	}

	if err := c.actuator.SetSpeed(ctx, speed); err != nil {
		logger.ErrorKV(ctx, "Motor speed command failed", "run_id", c.runID, "error", err)

		return &CommandError{Command: "set_speed", Err: err}
	}

	return nil
}

// notify delivers a change to every listener.
func (c *Controller) notify(op Operation, err error) {
	if len(c.listeners) == 0 {
		return
	}

	change := Change{
		Snapshot: c.Snapshot(),
		Op:       op,
		Err:      err,
	}

	for _, l := range c.listeners {
		l(change)
	}
}
