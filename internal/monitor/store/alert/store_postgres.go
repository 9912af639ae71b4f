package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
	derrors "fairgate/pkg/domain-errors"
)

// PostgresStore persists alerts in PostgreSQL. The partial unique index on
// (process_id, violation_type, metric) WHERE status <> 'resolved' backs the
// single-open-alert invariant; Upsert leans on ON CONFLICT against it so the
// create-or-refresh decision is one atomic statement.
//
// Expected schema:
//
//	CREATE TABLE bias_alerts (
//	    id             UUID PRIMARY KEY,
//	    process_id     UUID        NOT NULL,
//	    violation_type TEXT        NOT NULL,
//	    metric         TEXT        NOT NULL,
//	    process_type   TEXT        NOT NULL,
//	    status         TEXT        NOT NULL,
//	    violation      JSONB       NOT NULL,
//	    analysis       JSONB       NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL,
//	    acked_at       TIMESTAMPTZ,
//	    resolved_at    TIMESTAMPTZ,
//	    update_count   INT         NOT NULL DEFAULT 0
//	);
//	CREATE UNIQUE INDEX bias_alerts_open_key
//	    ON bias_alerts (process_id, violation_type, metric)
//	    WHERE status <> 'resolved';
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed alert store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Upsert(ctx context.Context, candidate monitor.Alert) (*monitor.Alert, bool, error) {
	violation, err := json.Marshal(candidate.Violation)
	if err != nil {
		return nil, false, fmt.Errorf("marshal violation: %w", err)
	}
	analysis, err := json.Marshal(candidate.Analysis)
	if err != nil {
		return nil, false, fmt.Errorf("marshal analysis: %w", err)
	}

	query := `
		INSERT INTO bias_alerts (id, process_id, violation_type, metric, process_type, status, violation, analysis, created_at, updated_at, update_count)
		VALUES ($1, $2, $3, $4, $5, 'active', $6, $7, $8, $8, 0)
		ON CONFLICT (process_id, violation_type, metric) WHERE status <> 'resolved' DO UPDATE SET
			violation = EXCLUDED.violation,
			analysis = EXCLUDED.analysis,
			updated_at = EXCLUDED.updated_at,
			update_count = bias_alerts.update_count + 1
		RETURNING id, process_id, violation_type, metric, process_type, status, violation, analysis, created_at, updated_at, acked_at, resolved_at, update_count,
			(xmax = 0) AS inserted
	`
	row := s.pool.QueryRow(ctx, query,
		candidate.ID,
		candidate.Key.ProcessID,
		candidate.Key.Type,
		candidate.Key.Metric,
		candidate.ProcessType,
		violation,
		analysis,
		candidate.UpdatedAt,
	)

	var created bool
	alert, err := scanAlert(row, &created)
	if err != nil {
		return nil, false, fmt.Errorf("upsert alert: %w", err)
	}
	return alert, created, nil
}

func (s *PostgresStore) Get(ctx context.Context, alertID id.AlertID) (*monitor.Alert, error) {
	query := `
		SELECT id, process_id, violation_type, metric, process_type, status, violation, analysis, created_at, updated_at, acked_at, resolved_at, update_count
		FROM bias_alerts
		WHERE id = $1
	`
	alert, err := scanAlert(s.pool.QueryRow(ctx, query, alertID), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, derrors.Newf(derrors.CodeNotFound, "alert %s not found", alertID)
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return alert, nil
}

func (s *PostgresStore) Transition(ctx context.Context, alertID id.AlertID, next monitor.AlertStatus, at time.Time) (*monitor.Alert, error) {
	current, err := s.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, derrors.Newf(derrors.CodeConflict,
			"alert %s cannot move from %s to %s", alertID, current.Status, next)
	}

	// The status guard repeats in SQL so a concurrent transition loses
	// cleanly instead of double-applying.
	query := `
		UPDATE bias_alerts
		SET status = $2,
		    updated_at = $3,
		    acked_at = CASE WHEN $2 = 'acknowledged' THEN $3 ELSE acked_at END,
		    resolved_at = CASE WHEN $2 = 'resolved' THEN $3 ELSE resolved_at END
		WHERE id = $1 AND status = $4
		RETURNING id, process_id, violation_type, metric, process_type, status, violation, analysis, created_at, updated_at, acked_at, resolved_at, update_count
	`
	alert, err := scanAlert(s.pool.QueryRow(ctx, query, alertID, next, at, current.Status), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, derrors.Newf(derrors.CodeConflict, "alert %s changed concurrently", alertID)
		}
		return nil, fmt.Errorf("transition alert: %w", err)
	}
	return alert, nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]monitor.Alert, error) {
	query := `
		SELECT id, process_id, violation_type, metric, process_type, status, violation, analysis, created_at, updated_at, acked_at, resolved_at, update_count
		FROM bias_alerts
		WHERE status <> 'resolved'
		ORDER BY created_at DESC, id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	defer rows.Close()

	var out []monitor.Alert
	for rows.Next() {
		alert, err := scanAlert(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

type alertRow interface {
	Scan(dest ...any) error
}

func scanAlert(row alertRow, inserted *bool) (*monitor.Alert, error) {
	var (
		alert               monitor.Alert
		violation, analysis []byte
		ackedAt, resolvedAt *time.Time
	)
	dest := []any{
		&alert.ID,
		&alert.Key.ProcessID,
		&alert.Key.Type,
		&alert.Key.Metric,
		&alert.ProcessType,
		&alert.Status,
		&violation,
		&analysis,
		&alert.CreatedAt,
		&alert.UpdatedAt,
		&ackedAt,
		&resolvedAt,
		&alert.UpdateCount,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(violation, &alert.Violation); err != nil {
		return nil, fmt.Errorf("unmarshal violation: %w", err)
	}
	if err := json.Unmarshal(analysis, &alert.Analysis); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	alert.AckedAt = ackedAt
	alert.ResolvedAt = resolvedAt
	return &alert, nil
}
