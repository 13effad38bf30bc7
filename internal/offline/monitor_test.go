package offline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"motorepuestos/internal/store"
)

func TestMonitorReconnectHookFiresOncePerTransition(t *testing.T) {
	m := NewMonitor(store.NewMemoryStore(), time.Hour)
	var fired atomic.Int32
	m.OnReconnect(func() { fired.Add(1) })

	assert.True(t, m.IsOnline())

	// Online → online: nothing.
	m.SetOnline(true)
	assert.Equal(t, int32(0), fired.Load())

	// Going offline does not fire the hook.
	m.SetOnline(false)
	assert.False(t, m.IsOnline())
	assert.Equal(t, int32(0), fired.Load())

	// Repeated offline reports are absorbed.
	m.SetOnline(false)
	assert.Equal(t, int32(0), fired.Load())

	// Exactly one fire on the offline → online edge.
	m.SetOnline(true)
	assert.Equal(t, int32(1), fired.Load())
	m.SetOnline(true)
	assert.Equal(t, int32(1), fired.Load())
}

func TestMonitorProbeLoop(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.SetOffline(true)
	m := NewMonitor(mem, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)
	defer m.Stop()

	assert.Eventually(t, func() bool { return !m.IsOnline() },
		time.Second, 5*time.Millisecond, "failed probe should flip the monitor offline")

	mem.SetOffline(false)
	assert.Eventually(t, m.IsOnline,
		time.Second, 5*time.Millisecond, "successful probe should flip the monitor online")
}
