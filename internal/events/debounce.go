package events

import (
	"sync"
	"time"
)

// Debouncer runs one cancellable delayed task per key. Scheduling a key
// that already has a pending task replaces it, so a burst of schedules
// inside the window produces exactly one execution.
type Debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewDebouncer() *Debouncer {
	return &Debouncer{timers: make(map[string]*time.Timer)}
}

// Schedule arranges fn to run after d, replacing any pending task for
// the same key.
func (db *Debouncer) Schedule(key string, d time.Duration, fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.timers[key]; ok {
		t.Stop()
	}
	db.timers[key] = time.AfterFunc(d, func() {
		db.mu.Lock()
		delete(db.timers, key)
		db.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending task for key, if any.
func (db *Debouncer) Cancel(key string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.timers[key]; ok {
		t.Stop()
		delete(db.timers, key)
	}
}

// CancelAll drops every pending task. Safe to call repeatedly.
func (db *Debouncer) CancelAll() {
	db.mu.Lock()
	defer db.mu.Unlock()
	for k, t := range db.timers {
		t.Stop()
		delete(db.timers, k)
	}
}
