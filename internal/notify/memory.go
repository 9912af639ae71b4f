package notify

import (
	"context"
	"sync"

	"fairgate/internal/monitor"
)

// MemoryNotifier records events for tests and single-node runs without a
// broker.
type MemoryNotifier struct {
	mu     sync.Mutex
	events []AlertEvent
}

// NewMemory constructs an empty in-memory notifier.
func NewMemory() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) AlertCreated(_ context.Context, alert monitor.Alert) error {
	n.record("alert.created", alert)
	return nil
}

func (n *MemoryNotifier) AlertTransitioned(_ context.Context, alert monitor.Alert) error {
	n.record("alert."+string(alert.Status), alert)
	return nil
}

func (n *MemoryNotifier) record(event string, alert monitor.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, AlertEvent{Event: event, Alert: alert, At: alert.UpdatedAt})
}

// Events returns a copy of everything emitted so far.
func (n *MemoryNotifier) Events() []AlertEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]AlertEvent(nil), n.events...)
}
