// Package offline implements the write side of the sync layer: the
// connectivity monitor, the bounded durable operation queue, and the
// coordinator that commits online or enqueues for later replay.
package offline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"motorepuestos/internal/store"
)

// Monitor tracks online/offline transitions by probing the document
// store. On each offline→online transition it invokes the reconnect
// hook exactly once. It is purely a trigger: no retries of its own.
type Monitor struct {
	store    store.DocumentStore
	interval time.Duration

	mu          sync.Mutex
	online      bool
	onReconnect func()
	cancel      context.CancelFunc
}

// NewMonitor starts in the online state; the first failed probe flips
// it. probeInterval <= 0 falls back to 10s.
func NewMonitor(st store.DocumentStore, probeInterval time.Duration) *Monitor {
	if probeInterval <= 0 {
		probeInterval = 10 * time.Second
	}
	return &Monitor{store: st, interval: probeInterval, online: true}
}

// OnReconnect registers the hook fired once per offline→online
// transition (the queue drain). Must be set before Start.
func (m *Monitor) OnReconnect(fn func()) {
	m.mu.Lock()
	m.onReconnect = fn
	m.mu.Unlock()
}

// IsOnline reports the last observed connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a transition observed out of band (a failed write,
// a runtime signal). The reconnect hook fires on offline→online only,
// once per transition, regardless of how many callers report it.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	hook := m.onReconnect
	m.mu.Unlock()

	if online == wasOnline {
		return
	}
	if online {
		log.Info().Msg("monitor: connection restored")
		if hook != nil {
			hook()
		}
	} else {
		log.Warn().Msg("monitor: connection lost, writes will queue")
	}
}

// Start launches the probe loop. Stop (or ctx cancellation) ends it.
func (m *Monitor) Start(ctx context.Context) {
	probeCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-probeCtx.Done():
				return
			case <-ticker.C:
				pingCtx, pingCancel := context.WithTimeout(probeCtx, 5*time.Second)
				err := m.store.Ping(pingCtx)
				pingCancel()
				m.SetOnline(err == nil)
			}
		}
	}()
}

// Stop ends the probe loop. Safe to call without Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
