package gate_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/gate"
)

func TestGate_OpenIsOneShot(t *testing.T) {
	g := gate.New()
	assert.False(t, g.Ready())

	assert.True(t, g.Open())
	assert.False(t, g.Open())
	assert.True(t, g.Ready())
}

func TestGate_WaitBlocksUntilOpen(t *testing.T) {
	g := gate.New()

	released := make(chan error, 1)
	go func() {
		released <- g.Wait(context.Background())
	}()

	select {
	case <-released:
		t.Fatal("wait returned before the gate opened")
	case <-time.After(20 * time.Millisecond):
	}

	g.Open()

	select {
	case err := <-released:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after the gate opened")
	}
}

func TestGate_WaitHonoursContext(t *testing.T) {
	g := gate.New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, g.Ready())
}

func TestGate_Subscribe(t *testing.T) {
	g := gate.New()

	var calls atomic.Int32
	g.Subscribe(func() { calls.Add(1) })
	assert.Equal(t, int32(0), calls.Load())

	g.Open()
	assert.Equal(t, int32(1), calls.Load())

	// late subscribers run immediately
	g.Subscribe(func() { calls.Add(1) })
	assert.Equal(t, int32(2), calls.Load())
}

func TestAwaitOrForce_ForcesOnTimeout(t *testing.T) {
	g := gate.New()

	var forced atomic.Bool
	start := time.Now()
	didForce, err := gate.AwaitOrForce(context.Background(), g, 20*time.Millisecond, func() {
		forced.Store(true)
	})

	require.NoError(t, err)
	assert.True(t, didForce)
	assert.True(t, forced.Load())
	assert.True(t, g.Ready())
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitOrForce_NoForceWhenOpenedInTime(t *testing.T) {
	g := gate.New()
	go func() {
		time.Sleep(5 * time.Millisecond)
		g.Open()
	}()

	didForce, err := gate.AwaitOrForce(context.Background(), g, time.Second, func() {
		t.Error("force must not run when the gate opens in time")
	})

	require.NoError(t, err)
	assert.False(t, didForce)
	assert.True(t, g.Ready())
}

func TestAwaitOrForce_AlreadyOpen(t *testing.T) {
	g := gate.New()
	g.Open()

	didForce, err := gate.AwaitOrForce(context.Background(), g, time.Nanosecond, func() {
		t.Error("force must not run on an open gate")
	})
	require.NoError(t, err)
	assert.False(t, didForce)
}
