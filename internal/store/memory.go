// internal/store/memory.go
package store

import (
	"sync"
	"time"

	"github.com/covergrid/pulse/internal/core"
)

// Snapshot is one refresh cycle's worth of dashboard content.
type Snapshot struct {
	Bundle    core.ContentBundle
	Metrics   core.DashboardMetrics
	FetchedAt time.Time
}

// Memory caches the last good refresh. A failed refresh never clears
// the previous entry.
type Memory struct {
	mu      sync.RWMutex
	snap    *Snapshot
	users   []core.User
	usersAt time.Time
}

// NewMemory creates an empty content cache.
func NewMemory() *Memory {
	return &Memory{}
}

// SetContent replaces the cached snapshot.
func (m *Memory) SetContent(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snap
	m.snap = &s
}

// Content returns the cached snapshot; ok is false before the first
// successful refresh.
func (m *Memory) Content() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return Snapshot{}, false
	}
	return *m.snap, true
}

// Age returns how stale the cache is. Zero when the cache is empty.
func (m *Memory) Age(now time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return 0
	}
	return now.Sub(m.snap.FetchedAt)
}

// SetUsers replaces the cached Users-sheet accounts.
func (m *Memory) SetUsers(users []core.User, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make([]core.User, len(users))
	copy(m.users, users)
	m.usersAt = now
}

// Users returns a copy of the cached accounts.
func (m *Memory) Users() []core.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.User, len(m.users))
	copy(out, m.users)
	return out
}
