// Package audit persists the append-only monitoring audit trail.
package audit

import (
	"context"
	"sync"
	"time"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
)

// InMemoryStore keeps the trail in insertion-then-timestamp order. Entries
// are copied in and out; callers never share memory with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []monitor.AuditEntry
}

// NewMemory constructs an empty in-memory audit store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry monitor.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListWindow(_ context.Context, from, to time.Time) ([]monitor.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []monitor.AuditEntry
	for _, e := range s.entries {
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryStore) ListByProcess(_ context.Context, processID id.ProcessID, limit int) ([]monitor.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []monitor.AuditEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].ProcessID != processID {
			continue
		}
		out = append(out, s.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
