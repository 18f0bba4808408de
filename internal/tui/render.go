package tui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/oshokin/trainpi/internal/domain/motor"
	"github.com/oshokin/trainpi/internal/domain/stopwatch"
)

// barWidth is the number of cells in the speed bar.
const barWidth = 20

// keyHelp lists the key bindings shown under the panel.
const keyHelp = "space: start/stop   ↑/+: faster   ↓/-: slower   r: reset timer   q: quit"

//nolint:gochecknoglobals // Color printers are immutable after init.
var (
	runningColor = color.New(color.FgGreen, color.Bold)
	stoppedColor = color.New(color.FgRed, color.Bold)
	noticeColor  = color.New(color.FgYellow)
)

// View is everything the panel shows in one frame.
type View struct {
	// Snapshot is the controller state.
	Snapshot motor.Snapshot
	// Driver names the device driver in use.
	Driver string
	// Message is the last operator-facing notice, if any.
	Message string
}

// Render draws the panel for v. Lines are separated by "\n".
func Render(v View) string {
	status := stoppedColor.Sprint("STOPPED")
	if v.Snapshot.Running() {
		status = runningColor.Sprint("RUNNING")
	}

	device := v.Driver
	if !v.Snapshot.HasDevice {
		device = "none (demo mode)"
	}

	lines := []string{
		fmt.Sprintf("Status:  %s", status),
		fmt.Sprintf("Speed:   %s %3d%%", speedBar(v.Snapshot.Speed), v.Snapshot.Speed),
		fmt.Sprintf("Elapsed: %s", stopwatch.Format(v.Snapshot.Elapsed)),
		fmt.Sprintf("Device:  %s", device),
	}

	if v.Message != "" {
		lines = append(lines, "", noticeColor.Sprint(v.Message))
	}

	box := pterm.DefaultBox.WithTitle("trainpi").Sprint(strings.Join(lines, "\n"))

	return box + "\n" + keyHelp
}

// speedBar renders speed as a fixed-width bar.
func speedBar(speed int) string {
	speed = max(motor.MinSpeed, min(motor.MaxSpeed, speed))
	filled := speed * barWidth / motor.MaxSpeed

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// Screen redraws the panel in place on a raw-mode terminal.
type Screen struct {
	// area is the live-updating terminal region.
	area *pterm.AreaPrinter
}

// NewScreen takes over the terminal area below the cursor.
func NewScreen() (*Screen, error) {
	area, err := pterm.DefaultArea.WithRemoveWhenDone(false).Start()
	if err != nil {
		return nil, fmt.Errorf("start screen area: %w", err)
	}

	return &Screen{area: area}, nil
}

// Draw replaces the area contents. Raw mode disables newline translation,
// so line feeds get an explicit carriage return.
func (s *Screen) Draw(content string) {
	s.area.Update(strings.ReplaceAll(content, "\n", "\r\n"))
}

// Close releases the area and leaves the last frame on screen.
func (s *Screen) Close() error {
	return s.area.Stop()
}
