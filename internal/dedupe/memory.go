// Package dedupe records transaction ids of applied commands so that redelivered
// messages are not applied twice.
package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryLog keeps processed transaction ids in process memory until they expire.
type MemoryLog struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time
}

// NewMemoryLog constructs a MemoryLog. A non-positive ttl keeps entries forever.
func NewMemoryLog(ttl time.Duration) *MemoryLog {
	return &MemoryLog{ttl: ttl, now: time.Now, entries: make(map[string]time.Time)}
}

// Claim records id unless a live entry for it exists, dropping expired entries.
func (l *MemoryLog) Claim(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, expires := range l.entries {
		if !expires.IsZero() && !now.Before(expires) {
			delete(l.entries, key)
		}
	}
	if _, ok := l.entries[id]; ok {
		return false, nil
	}

	var expires time.Time
	if l.ttl > 0 {
		expires = now.Add(l.ttl)
	}
	l.entries[id] = expires
	return true, nil
}

// Release removes id.
func (l *MemoryLog) Release(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
	return nil
}

// Len returns the number of tracked ids, including ones not yet swept.
func (l *MemoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
