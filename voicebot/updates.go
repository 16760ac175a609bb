package voicebot

import (
	"context"
	"sync"
	"time"
)

// UpdateLog remembers handled update IDs. Telegram redelivers an update
// whose webhook call failed or timed out; the bot skips IDs already seen.
type UpdateLog interface {
	// MarkSeen records updateID and reports whether this call recorded it
	// first.
	MarkSeen(ctx context.Context, updateID int64) (bool, error)
}

// MemoryUpdateLog is an UpdateLog local to one process.
type MemoryUpdateLog struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	seen      map[int64]time.Time
	lastSweep time.Time
}

var _ UpdateLog = (*MemoryUpdateLog)(nil)

// NewMemoryUpdateLog keeps each update ID for ttl.
func NewMemoryUpdateLog(ttl time.Duration) *MemoryUpdateLog {
	return &MemoryUpdateLog{ttl: ttl, now: time.Now, seen: make(map[int64]time.Time)}
}

// MarkSeen implements UpdateLog.
func (m *MemoryUpdateLog) MarkSeen(_ context.Context, updateID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= m.ttl {
		for id, exp := range m.seen {
			if !now.Before(exp) {
				delete(m.seen, id)
			}
		}
		m.lastSweep = now
	}

	if exp, ok := m.seen[updateID]; ok && now.Before(exp) {
		return false, nil
	}
	m.seen[updateID] = now.Add(m.ttl)
	return true, nil
}

// Len returns the number of remembered IDs, expired ones included until
// the next sweep.
func (m *MemoryUpdateLog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
