package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
)

// PostgresStore persists audit entries in PostgreSQL over database/sql with
// the lib/pq driver. The table is append-only; retention is a DBA concern.
//
// Expected schema:
//
//	CREATE TABLE bias_audit_trail (
//	    monitoring_id UUID PRIMARY KEY,
//	    process_id    UUID        NOT NULL,
//	    process_type  TEXT        NOT NULL,
//	    analysis      JSONB,
//	    violations    JSONB       NOT NULL,
//	    compliance    TEXT        NOT NULL,
//	    thresholds    JSONB       NOT NULL,
//	    recorded_at   TIMESTAMPTZ NOT NULL,
//	    duration_ms   BIGINT      NOT NULL
//	);
//	CREATE INDEX bias_audit_trail_window  ON bias_audit_trail (recorded_at);
//	CREATE INDEX bias_audit_trail_process ON bias_audit_trail (process_id, recorded_at DESC);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry monitor.AuditEntry) error {
	var analysis []byte
	if entry.Analysis != nil {
		var err error
		analysis, err = json.Marshal(entry.Analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
	}
	violations, err := json.Marshal(entry.Violations)
	if err != nil {
		return fmt.Errorf("marshal violations: %w", err)
	}
	thresholds, err := json.Marshal(entry.Thresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}

	query := `
		INSERT INTO bias_audit_trail (monitoring_id, process_id, process_type, analysis, violations, compliance, thresholds, recorded_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := s.db.ExecContext(ctx, query,
		entry.MonitoringID,
		entry.ProcessID,
		entry.ProcessType,
		analysis,
		violations,
		entry.Compliance,
		thresholds,
		entry.Timestamp,
		entry.DurationMS,
	); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListWindow(ctx context.Context, from, to time.Time) ([]monitor.AuditEntry, error) {
	query := `
		SELECT monitoring_id, process_id, process_type, analysis, violations, compliance, thresholds, recorded_at, duration_ms
		FROM bias_audit_trail
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at, monitoring_id
	`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list audit window: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (s *PostgresStore) ListByProcess(ctx context.Context, processID id.ProcessID, limit int) ([]monitor.AuditEntry, error) {
	query := `
		SELECT monitoring_id, process_id, process_type, analysis, violations, compliance, thresholds, recorded_at, duration_ms
		FROM bias_audit_trail
		WHERE process_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, processID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit by process: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]monitor.AuditEntry, error) {
	var out []monitor.AuditEntry
	for rows.Next() {
		var (
			entry      monitor.AuditEntry
			analysis   []byte
			violations []byte
			thresholds []byte
		)
		if err := rows.Scan(
			&entry.MonitoringID,
			&entry.ProcessID,
			&entry.ProcessType,
			&analysis,
			&violations,
			&entry.Compliance,
			&thresholds,
			&entry.Timestamp,
			&entry.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(analysis) > 0 {
			if err := json.Unmarshal(analysis, &entry.Analysis); err != nil {
				return nil, fmt.Errorf("unmarshal analysis: %w", err)
			}
		}
		if err := json.Unmarshal(violations, &entry.Violations); err != nil {
			return nil, fmt.Errorf("unmarshal violations: %w", err)
		}
		if err := json.Unmarshal(thresholds, &entry.Thresholds); err != nil {
			return nil, fmt.Errorf("unmarshal thresholds: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
