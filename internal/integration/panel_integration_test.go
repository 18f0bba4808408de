package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/trainpi/internal/config"
	"github.com/oshokin/trainpi/internal/device/mock"
	"github.com/oshokin/trainpi/internal/metrics"
	"github.com/oshokin/trainpi/internal/service/common"
	"github.com/oshokin/trainpi/internal/service/pulse"
	"github.com/oshokin/trainpi/internal/tui"
)

// saveConfig writes a configuration using the mock driver.
func saveConfig(t *testing.T) string {
	t.Helper()

	cfg := config.New()
	cfg.Device = config.DeviceMock

	path := filepath.Join(t.TempDir(), "trainpi.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestPanel_KeystrokesDriveMotor feeds keystrokes through the panel loop and
// checks the commands the simulated board received and the exported metrics.
func TestPanel_KeystrokesDriveMotor(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := common.LoadConfig(saveConfig(t), common.Overrides{})
	require.NoError(t, err)

	collector := metrics.NewCollector()

	session, err := common.OpenSession(ctx, cfg, collector.Observe)
	require.NoError(t, err)

	actuator, ok := session.Device.Actuator.(*mock.Actuator)
	require.True(t, ok)

	var frames []string

	loop := tui.NewLoop(session.Controller, func(frame string) {
		frames = append(frames, frame)
	}, tui.WithDriver(session.Device.Driver), tui.WithInterval(time.Hour))

	actions := make(chan tui.Action)

	go func() {
		_ = tui.ReadKeys(ctx, strings.NewReader("s++r-q"), actions) //nolint:errcheck // Reader never fails.
	}()

	require.NoError(t, loop.Run(ctx, actions))
	require.Equal(t, 60, session.Controller.Speed())
	require.True(t, actuator.Running())
	require.NotEmpty(t, frames)

	require.NoError(t, session.Close(ctx))
	require.False(t, actuator.Running())

	require.Equal(t, []mock.Command{
		{Name: "start", Speed: 50},
		{Name: "set_speed", Speed: 60},
		{Name: "set_speed", Speed: 70},
		{Name: "set_speed", Speed: 60},
		{Name: "stop"},
	}, actuator.Commands())

	expected := `
# HELP trainpi_motor_runs_total Number of times the motor was started.
# TYPE trainpi_motor_runs_total counter
trainpi_motor_runs_total 1
# HELP trainpi_motor_running 1 while the motor is running, 0 otherwise.
# TYPE trainpi_motor_running gauge
trainpi_motor_running 0
`
	require.NoError(t, testutil.GatherAndCompare(
		collector.Registry(),
		strings.NewReader(expected),
		"trainpi_motor_runs_total",
		"trainpi_motor_running",
	))
}

// TestPulse_ReportsElapsedTime runs a short pulse against the simulated board.
func TestPulse_ReportsElapsedTime(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := pulse.Run(context.Background(), &pulse.Options{
		ConfigPath: saveConfig(t),
		Duration:   50 * time.Millisecond,
		Out:        &out,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.String(), "Motor ran for 00:00:00."), out.String())
	require.Contains(t, out.String(), "at 50%")
}
