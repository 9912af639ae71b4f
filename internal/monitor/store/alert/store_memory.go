// Package alert persists bias alerts and enforces the one-active-alert-per-key
// invariant behind an atomic upsert.
package alert

import (
	"context"
	"sort"
	"sync"
	"time"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
	derrors "fairgate/pkg/domain-errors"
)

// InMemoryStore is the test and single-node implementation. The single mutex
// makes Upsert atomic per key, so racing evaluations of the same process
// cannot create duplicate active alerts.
type InMemoryStore struct {
	mu     sync.Mutex
	byID   map[id.AlertID]*monitor.Alert
	active map[monitor.AlertKey]id.AlertID
}

// NewMemory constructs an empty in-memory alert store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.AlertID]*monitor.Alert),
		active: make(map[monitor.AlertKey]id.AlertID),
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, candidate monitor.Alert) (*monitor.Alert, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.active[candidate.Key]; ok {
		existing := s.byID[existingID]
		existing.Violation = candidate.Violation
		existing.Analysis = candidate.Analysis
		existing.UpdatedAt = candidate.UpdatedAt
		existing.UpdateCount++
		snapshot := *existing
		return &snapshot, false, nil
	}

	stored := candidate
	stored.Status = monitor.AlertActive
	stored.UpdateCount = 0
	s.byID[stored.ID] = &stored
	s.active[stored.Key] = stored.ID

	snapshot := stored
	return &snapshot, true, nil
}

func (s *InMemoryStore) Get(_ context.Context, alertID id.AlertID) (*monitor.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.byID[alertID]
	if !ok {
		return nil, derrors.Newf(derrors.CodeNotFound, "alert %s not found", alertID)
	}
	snapshot := *alert
	return &snapshot, nil
}

func (s *InMemoryStore) Transition(_ context.Context, alertID id.AlertID, next monitor.AlertStatus, at time.Time) (*monitor.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.byID[alertID]
	if !ok {
		return nil, derrors.Newf(derrors.CodeNotFound, "alert %s not found", alertID)
	}
	if !alert.Status.CanTransitionTo(next) {
		return nil, derrors.Newf(derrors.CodeConflict,
			"alert %s cannot move from %s to %s", alertID, alert.Status, next)
	}

	alert.Status = next
	alert.UpdatedAt = at
	switch next {
	case monitor.AlertAcknowledged:
		ackedAt := at
		alert.AckedAt = &ackedAt
	case monitor.AlertResolved:
		resolvedAt := at
		alert.ResolvedAt = &resolvedAt
		// Resolving frees the key: the next recurrence opens a fresh alert.
		delete(s.active, alert.Key)
	}

	snapshot := *alert
	return &snapshot, nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]monitor.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]monitor.Alert, 0, len(s.byID))
	for _, alert := range s.byID {
		if alert.Status == monitor.AlertResolved {
			continue
		}
		out = append(out, *alert)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
