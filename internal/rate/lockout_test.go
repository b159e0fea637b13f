package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginTracker_BloqueiaNoLimite(t *testing.T) {
	tracker := NewLoginTracker(10, 15*time.Minute)

	for i := 0; i < 9; i++ {
		tracker.Fail("device-abc")
		require.True(t, tracker.Check("device-abc").Allowed, "tentativa %d não devia bloquear", i+1)
	}

	tracker.Fail("device-abc")
	res := tracker.Check("device-abc")
	require.False(t, res.Allowed)
	require.Greater(t, res.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, res.RetryAfter, 15*time.Minute)
}

func TestLoginTracker_ChavesIndependentes(t *testing.T) {
	tracker := NewLoginTracker(2, time.Minute)

	tracker.Fail("ip-1")
	tracker.Fail("ip-1")
	require.False(t, tracker.Check("ip-1").Allowed)
	require.True(t, tracker.Check("ip-2").Allowed)
}

func TestLoginTracker_BloqueioVence(t *testing.T) {
	tracker := NewLoginTracker(2, 15*time.Minute)
	now := time.Now()
	tracker.now = func() time.Time { return now }

	tracker.Fail("device-abc")
	tracker.Fail("device-abc")
	require.False(t, tracker.Check("device-abc").Allowed)

	now = now.Add(15*time.Minute + time.Second)
	require.True(t, tracker.Check("device-abc").Allowed)

	// vencimento zera o contador: uma falha nova não bloqueia de cara
	tracker.Fail("device-abc")
	require.True(t, tracker.Check("device-abc").Allowed)
}

func TestLoginTracker_ClearZeraContador(t *testing.T) {
	tracker := NewLoginTracker(3, time.Minute)

	tracker.Fail("device-abc")
	tracker.Fail("device-abc")
	tracker.Clear("device-abc")

	res := tracker.Check("device-abc")
	require.True(t, res.Allowed)
	require.Zero(t, res.CurrentHits)
}
