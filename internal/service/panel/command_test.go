package panel

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/trainpi/internal/config"
	"github.com/oshokin/trainpi/internal/service/common"
)

// TestRun_RequiresTerminal ensures the panel refuses to start on a non-terminal input.
func TestRun_RequiresTerminal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "trainpi.yaml")

	cfg := config.New()
	cfg.Device = config.DeviceMock
	cfg.LogFile = filepath.Join(dir, "trainpi.log")
	require.NoError(t, config.Save(cfgPath, cfg))

	r, w, err := os.Pipe()
	require.NoError(t, err)

	defer func() {
		_ = r.Close()
		_ = w.Close()
	}()

	err = Run(context.Background(), &Options{
		ConfigPath: cfgPath,
		Overrides:  common.Overrides{Device: config.DeviceMock},
		Input:      r,
	})
	require.ErrorContains(t, err, "prepare terminal")

	// Nothing was set up, so no log file was created.
	_, err = os.Stat(cfg.LogFile)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_BadConfig surfaces configuration errors before touching the terminal.
func TestRun_BadConfig(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.ErrorContains(t, err, "load configuration")
}

// writeMetricsConfig saves a mock-device configuration exposing metrics at address.
func writeMetricsConfig(t *testing.T, address string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "trainpi.yaml")

	cfg := config.New()
	cfg.Device = config.DeviceMock
	cfg.LogFile = filepath.Join(dir, "trainpi.log")
	cfg.MetricsAddress = address
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestRun_MetricsPortBusy fails before taking over the terminal when the metrics port is taken.
func TestRun_MetricsPortBusy(t *testing.T) {
	t.Parallel()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() {
		_ = busy.Close()
	}()

	err = Run(context.Background(), &Options{ConfigPath: writeMetricsConfig(t, busy.Addr().String())})
	require.ErrorContains(t, err, "start metrics server")
	require.NotContains(t, err.Error(), "prepare terminal")
}

// TestRun_ReleasesMetricsPort frees the metrics listener when the terminal check fails.
func TestRun_ReleasesMetricsPort(t *testing.T) {
	t.Parallel()

	reserved, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	address := reserved.Addr().String()
	require.NoError(t, reserved.Close())

	r, w, err := os.Pipe()
	require.NoError(t, err)

	defer func() {
		_ = r.Close()
		_ = w.Close()
	}()

	err = Run(context.Background(), &Options{ConfigPath: writeMetricsConfig(t, address), Input: r})
	require.ErrorContains(t, err, "prepare terminal")

	again, err := net.Listen("tcp", address)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
