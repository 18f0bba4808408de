package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		" ERROR ": zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal checks that a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestContextHelpers verifies that named and key-value loggers travel through the context.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "motor")
	ctx = WithKV(ctx, "port", "A")

	InfoKV(ctx, "Motor started", "speed", 50)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "motor", entries[0].LoggerName)
	require.Equal(t, "Motor started", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "A", fields["port"])
	require.EqualValues(t, 50, fields["speed"])
}

// TestNewFile ensures the file logger writes to the requested path.
func TestNewFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trainpi.log")

	l, closer := NewFile(path, zapcore.InfoLevel)
	l.Infow("Panel started", "device", "mock")
	require.NoError(t, closer.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "Panel started")
	require.Contains(t, string(contents), "mock")
}
