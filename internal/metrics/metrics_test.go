package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/trainpi/internal/device/mock"
	"github.com/oshokin/trainpi/internal/domain/motor"
)

var errTestWrite = errors.New("write failed")

// TestCollector_FollowsController verifies metrics track controller changes.
func TestCollector_FollowsController(t *testing.T) {
	t.Parallel()

	var (
		ctx       = context.Background()
		collector = NewCollector()
		actuator  = mock.New()
		ctrl      = motor.NewController(actuator, motor.WithListener(collector.Observe))
	)

	require.NoError(t, ctrl.ToggleRun(ctx))
	require.NoError(t, ctrl.SpeedUp(ctx))

	require.InDelta(t, 1, testutil.ToFloat64(collector.running), 0)
	require.InDelta(t, 60, testutil.ToFloat64(collector.speed), 0)
	require.InDelta(t, 1, testutil.ToFloat64(collector.runs), 0)

	require.NoError(t, ctrl.ToggleRun(ctx))
	require.InDelta(t, 0, testutil.ToFloat64(collector.running), 0)

	require.NoError(t, ctrl.ToggleRun(ctx))
	require.InDelta(t, 2, testutil.ToFloat64(collector.runs), 0)

	actuator.FailCommands(errTestWrite)
	require.Error(t, ctrl.ToggleRun(ctx))
	require.InDelta(t, 1, testutil.ToFloat64(collector.errors.WithLabelValues("stop")), 0)

	actuator.SetConnected(false)
	require.ErrorIs(t, ctrl.ToggleRun(ctx), motor.ErrNotConnected)
	require.InDelta(t, 1, testutil.ToFloat64(collector.errors.WithLabelValues("not_connected")), 0)
}

// TestErrorKind checks error classification.
func TestErrorKind(t *testing.T) {
	t.Parallel()

	require.Equal(t, "no_device", errorKind(motor.ErrNoDevice))
	require.Equal(t, "not_connected", errorKind(motor.ErrNotConnected))
	require.Equal(t, "set_speed", errorKind(&motor.CommandError{Command: "set_speed", Err: errTestWrite}))
	require.Equal(t, "other", errorKind(errTestWrite))
}

// TestCollector_Serve scrapes the HTTP endpoint and stops on cancellation.
func TestCollector_Serve(t *testing.T) {
	t.Parallel()

	// Reserve a free port for the test server.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	collector := NewCollector()
	collector.Observe(motor.Change{Snapshot: motor.Snapshot{Status: motor.StatusRunning, Speed: 40}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- collector.Serve(ctx, addr)
	}()

	var body string

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics") //nolint:noctx // Test scrape.
		if err != nil {
			return false
		}

		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}

		body = string(data)

		return true
	}, 3*time.Second, 20*time.Millisecond)

	require.True(t, strings.Contains(body, "trainpi_motor_speed 40"), body)
	require.Contains(t, body, "trainpi_motor_running 1")

	cancel()
	require.NoError(t, <-done)
}

// TestCollector_ListenBusyPort reports a taken address before serving starts.
func TestCollector_ListenBusyPort(t *testing.T) {
	t.Parallel()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() {
		_ = busy.Close()
	}()

	_, err = NewCollector().Listen(context.Background(), busy.Addr().String())
	require.ErrorContains(t, err, "listen on "+busy.Addr().String())

	server, err := NewCollector().Listen(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr().String())
	require.NoError(t, server.Close())

	var nilServer *Server
	require.NoError(t, nilServer.Close())
}
