package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryZeroIntervalNeverBlocks(t *testing.T) {
	l := Every("test", 0)

	start := time.Now()
	for range 5 {
		require.NoError(t, l.Wait(context.Background()))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestEveryEnforcesSpacing(t *testing.T) {
	l := Every("test", 50*time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))

	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	require.Equal(t, 50*time.Millisecond, l.Interval())
}

func TestWaitCancelledContext(t *testing.T) {
	l := Every("GoogleBooks", time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "GoogleBooks")
}
