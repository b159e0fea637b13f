package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_PermiteAteOLimite(t *testing.T) {
	lim := NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := lim.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d devia passar", i+1)
		require.Equal(t, int64(3-i-1), res.Remaining)
	}

	res, err := lim.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, int64(0), res.Remaining)
	require.Greater(t, res.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, res.RetryAfter, time.Hour)
}

func TestMemoryLimiter_ContadoresPorChave(t *testing.T) {
	lim := NewMemoryLimiter(1, time.Hour)
	ctx := context.Background()

	res, err := lim.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = lim.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = lim.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiter_CurrentHitsAcumula(t *testing.T) {
	lim := NewMemoryLimiter(100, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := lim.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.Equal(t, int64(i+1), res.CurrentHits)
	}
}
