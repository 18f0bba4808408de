package pulse

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/trainpi/internal/config"
	"github.com/oshokin/trainpi/internal/domain/motor"
	"github.com/oshokin/trainpi/internal/service/common"
)

// writeConfig saves a configuration for the given driver and returns its path.
func writeConfig(t *testing.T, driver string) string {
	t.Helper()

	cfg := config.New()
	cfg.Device = driver

	path := filepath.Join(t.TempDir(), "trainpi.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestRun_Mock runs a pulse against the simulated motor.
func TestRun_Mock(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, config.DeviceMock)

	synctest.Test(t, func(t *testing.T) {
		var out bytes.Buffer

		err := Run(context.Background(), &Options{
			ConfigPath: path,
			Overrides:  common.Overrides{Speed: 80},
			Duration:   2 * time.Second,
			Out:        &out,
		})
		require.NoError(t, err)
		require.Equal(t, "Motor ran for 00:00:02.00 at 80%\n", out.String())
	})
}

// TestRun_Interrupted stops early when the context is canceled.
func TestRun_Interrupted(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, config.DeviceMock)

	synctest.Test(t, func(t *testing.T) {
		var out bytes.Buffer

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		err := Run(ctx, &Options{ConfigPath: path, Duration: time.Minute, Out: &out})
		require.NoError(t, err)
		require.Contains(t, out.String(), "00:00:00.50")
	})
}

// TestRun_NoDevice fails with ErrNoDevice.
func TestRun_NoDevice(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{
		ConfigPath: writeConfig(t, config.DeviceNone),
		Duration:   time.Second,
		Out:        new(bytes.Buffer),
	})
	require.ErrorIs(t, err, motor.ErrNoDevice)
}

// TestRun_NegativeDuration rejects invalid durations.
func TestRun_NegativeDuration(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{Duration: -time.Second})
	require.ErrorIs(t, err, errNonPositiveDuration)
}
