package monitor

import (
	"context"
	"time"

	id "fairgate/pkg/domain"
)

// AlertStore persists alerts and enforces the single-active-alert-per-key
// invariant. Upsert must be atomic per key so two racing evaluations of the
// same process never create duplicates.
type AlertStore interface {
	// Upsert creates a new active alert for the key when none is active,
	// or refreshes the existing active alert's snapshot. The returned bool
	// reports whether the alert was newly created.
	Upsert(ctx context.Context, candidate Alert) (*Alert, bool, error)
	// Get returns an alert by ID, or a not-found error.
	Get(ctx context.Context, alertID id.AlertID) (*Alert, error)
	// Transition moves an alert to the next lifecycle state, rejecting
	// moves the state machine forbids.
	Transition(ctx context.Context, alertID id.AlertID, next AlertStatus, at time.Time) (*Alert, error)
	// ListActive returns all alerts not yet resolved, ordered by creation
	// time descending.
	ListActive(ctx context.Context) ([]Alert, error)
}

// AuditStore is the append-only monitoring audit trail. Retention is owned
// externally.
type AuditStore interface {
	Append(ctx context.Context, entry AuditEntry) error
	// ListWindow returns entries with Timestamp in [from, to), ordered
	// ascending.
	ListWindow(ctx context.Context, from, to time.Time) ([]AuditEntry, error)
	ListByProcess(ctx context.Context, processID id.ProcessID, limit int) ([]AuditEntry, error)
}

// ResultCache holds recent results for dashboard reads under a short TTL.
// Best-effort: a miss always falls back to recomputation, never to stale
// data treated as current.
type ResultCache interface {
	Put(ctx context.Context, result *Result, ttl time.Duration) error
	Get(ctx context.Context, processID id.ProcessID) (*Result, error)
}

// Notifier receives alert lifecycle events. Delivery (UI, email) is the
// collaborator's responsibility; the engine only emits.
type Notifier interface {
	AlertCreated(ctx context.Context, alert Alert) error
	AlertTransitioned(ctx context.Context, alert Alert) error
}

// DataSource supplies the current batch for a registered process stream so
// the sweep can re-evaluate it absent new events.
type DataSource interface {
	FetchBatch(ctx context.Context, processID id.ProcessID) (*Batch, error)
}
