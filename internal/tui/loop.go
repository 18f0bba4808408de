package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/oshokin/trainpi/internal/domain/motor"
	"github.com/oshokin/trainpi/internal/logger"
)

// defaultInterval is the redraw period at 60 Hz.
const defaultInterval = time.Second / 60

// Loop applies operator actions to the controller and redraws the panel.
type Loop struct {
	// controller is mutated only from Run.
	controller *motor.Controller
	// draw receives every rendered frame.
	draw func(string)
	// clock drives the redraw ticker.
	clock clock.Clock
	// interval is the redraw period.
	interval time.Duration
	// driver names the device driver for display.
	driver string
	// message is the last operator-facing notice.
	message string
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock sets the clock driving redraws.
func WithClock(c clock.Clock) LoopOption {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithInterval sets the redraw period.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithDriver sets the device driver name shown on the panel.
func WithDriver(name string) LoopOption {
	return func(l *Loop) {
		l.driver = name
	}
}

// NewLoop creates a loop drawing frames with draw.
func NewLoop(controller *motor.Controller, draw func(string), opts ...LoopOption) *Loop {
	l := &Loop{
		controller: controller,
		draw:       draw,
		clock:      clock.New(),
		interval:   defaultInterval,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run processes actions and redraw ticks until ActionQuit, a closed action
// channel or ctx cancellation.
func (l *Loop) Run(ctx context.Context, actions <-chan Action) error {
	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	l.redraw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case action, ok := <-actions:
			if !ok || action == ActionQuit {
				logger.Info(ctx, "Quit requested")

				return nil
			}

			l.handle(ctx, action)
			l.redraw()
		case <-ticker.C:
			l.redraw()
		}
	}
}

// Message returns the current operator-facing notice.
func (l *Loop) Message() string {
	return l.message
}

// handle applies one action to the controller.
func (l *Loop) handle(ctx context.Context, action Action) {
	logger.DebugKV(ctx, "Operator action", "action", action)

	var err error

	switch action {
	case ActionToggle:
		err = l.controller.ToggleRun(ctx)
	case ActionSpeedUp:
		err = l.controller.SpeedUp(ctx)
	case ActionSpeedDown:
		err = l.controller.SpeedDown(ctx)
	case ActionResetTimer:
		l.controller.ResetTimer(ctx)
	default:
		return
	}

	l.message = describe(action, l.controller.Snapshot(), err)
}

// redraw renders the current controller state.
func (l *Loop) redraw() {
	l.draw(Render(View{
		Snapshot: l.controller.Snapshot(),
		Driver:   l.driver,
		Message:  l.message,
	}))
}

// describe turns an action outcome into a short notice for the operator.
func describe(action Action, snap motor.Snapshot, err error) string {
	var cmdErr *motor.CommandError

	switch {
	case errors.Is(err, motor.ErrNoDevice):
		return "No motor device: speed and timer work in demo mode only."
	case errors.Is(err, motor.ErrNotConnected):
		return "Motor not connected: check the cable and try again."
	case errors.As(err, &cmdErr):
		return fmt.Sprintf("Board did not accept %s: %v", cmdErr.Command, cmdErr.Err)
	case err != nil:
		return err.Error()
	}

	switch action {
	case ActionToggle:
		if snap.Running() {
			return fmt.Sprintf("Motor started at %d%%.", snap.Speed)
		}

		return "Motor stopped."
	case ActionSpeedDown:
		if !snap.Running() && snap.Speed == motor.MinSpeed {
			return "Speed at minimum, motor stopped."
		}

		return ""
	case ActionResetTimer:
		return "Timer reset."
	default:
		return ""
	}
}
