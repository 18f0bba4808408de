//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/trainpi/internal/config"
	"github.com/oshokin/trainpi/internal/device/mock"
	"github.com/oshokin/trainpi/internal/domain/motor"
)

var errTestWrite = errors.New("write failed")

// writeConfig saves a mock-device configuration and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()

	cfg := config.New()
	cfg.Device = config.DeviceMock
	cfg.DefaultSpeed = 30

	path := filepath.Join(t.TempDir(), "trainpi.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestLoadConfig_Overrides verifies command-line overrides win over the file.
func TestLoadConfig_Overrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t)

	cfg, err := LoadConfig(path, Overrides{Device: "none", Speed: 90})
	require.NoError(t, err)
	require.Equal(t, config.DeviceNone, cfg.Device)
	require.Equal(t, 90, cfg.DefaultSpeed)

	_, err = LoadConfig(path, Overrides{LogLevel: "verbose"})
	require.ErrorIs(t, err, errUnknownLogLevel)

	_, err = LoadConfig(path, Overrides{Device: "gpio"})
	require.Error(t, err)
}

// TestSession_CloseStopsMotor ensures closing a session stops a running motor.
func TestSession_CloseStopsMotor(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConfig(t), Overrides{})
	require.NoError(t, err)

	var changes []motor.Change

	s, err := OpenSession(context.Background(), cfg, func(c motor.Change) { changes = append(changes, c) })
	require.NoError(t, err)
	require.Equal(t, 30, s.Controller.Speed())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Controller.ToggleRun(ctx))
	cancel()

	require.NoError(t, s.Close(ctx))
	require.Equal(t, motor.StatusStopped, s.Controller.Status())
	require.Len(t, changes, 2)

	actuator, ok := s.Device.Actuator.(*mock.Actuator)
	require.True(t, ok)
	require.False(t, actuator.Running())
}

// TestSession_CloseReportsStopFailure returns stop failures while still stopping.
func TestSession_CloseReportsStopFailure(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConfig(t), Overrides{})
	require.NoError(t, err)

	s, err := OpenSession(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, s.Controller.ToggleRun(context.Background()))

	actuator, ok := s.Device.Actuator.(*mock.Actuator)
	require.True(t, ok)
	actuator.FailCommands(errTestWrite)

	err = s.Close(context.Background())
	require.ErrorIs(t, err, errTestWrite)
	require.Equal(t, motor.StatusStopped, s.Controller.Status())
}

// TestSession_NilClose is a no-op.
func TestSession_NilClose(t *testing.T) {
	t.Parallel()

	var s *Session

	require.NoError(t, s.Close(context.Background()))
}

// TestLoadConfig_MissingFile surfaces load errors.
func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), Overrides{})
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoadConfig_DefaultFileAbsent verifies the default config path works without a file.
//
//nolint:paralleltest // t.Chdir cannot be used in parallel tests.
func TestLoadConfig_DefaultFileAbsent(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(config.DefaultConfigFilename, Overrides{Device: config.DeviceMock})
	require.NoError(t, err)
	require.Equal(t, config.DeviceMock, cfg.Device)
	require.Equal(t, config.DefaultSpeed, cfg.DefaultSpeed)
}
