package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestBoard = errors.New("board reset")

// TestActuator_RecordsCommands verifies that commands are recorded and applied.
func TestActuator_RecordsCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := New()

	connected, err := a.IsConnected(ctx)
	require.NoError(t, err)
	require.True(t, connected)

	require.NoError(t, a.Start(ctx, 50))
	require.True(t, a.Running())
	require.NoError(t, a.SetSpeed(ctx, 60))
	require.Equal(t, 60, a.Speed())
	require.NoError(t, a.Stop(ctx))
	require.False(t, a.Running())

	require.Equal(t, []Command{
		{Name: "start", Speed: 50},
		{Name: "set_speed", Speed: 60},
		{Name: "stop"},
	}, a.Commands())
}

// TestActuator_Failures checks scripted connectivity and command failures.
func TestActuator_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := New()

	a.SetConnected(false)

	connected, err := a.IsConnected(ctx)
	require.NoError(t, err)
	require.False(t, connected)

	a.FailConnectivity(errTestBoard)

	_, err = a.IsConnected(ctx)
	require.ErrorIs(t, err, errTestBoard)

	a.FailCommands(errTestBoard)
	require.ErrorIs(t, a.Start(ctx, 40), errTestBoard)
	require.False(t, a.Running())
	require.Len(t, a.Commands(), 1)
}
