package monitor

import (
	"context"
	"time"

	derrors "fairgate/pkg/domain-errors"
	"fairgate/pkg/requestcontext"
)

// DashboardData is the read-side projection the monitoring UI polls. It is
// derived from the audit trail and alert store; building it never mutates
// anything.
type DashboardData struct {
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	GeneratedAt  time.Time `json:"generated_at"`
	Evaluations  int       `json:"evaluations"`
	AverageScore float64   `json:"average_score"`
	Violations   int       `json:"violations"`
	CriticalRuns int       `json:"critical_runs"`
	ActiveAlerts []Alert   `json:"active_alerts"`

	ByProcessType map[ProcessType]ProcessTypePerformance `json:"by_process_type"`
}

// Dashboard assembles the dashboard projection for [from, to).
func (s *Service) Dashboard(ctx context.Context, from, to time.Time) (*DashboardData, error) {
	if !to.After(from) {
		return nil, derrors.New(derrors.CodeInvalidInput, "dashboard window end must be after its start")
	}

	entries, err := s.audit.ListWindow(ctx, from, to)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list audit window")
	}
	active, err := s.alerts.ListActive(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list active alerts")
	}

	data := &DashboardData{
		WindowStart:   from,
		WindowEnd:     to,
		GeneratedAt:   requestcontext.Now(ctx),
		Evaluations:   len(entries),
		ActiveAlerts:  active,
		ByProcessType: processPerformanceReport(entries).ByProcessType,
	}

	var scoreSum float64
	for _, e := range entries {
		scoreSum += entryScore(e)
		data.Violations += len(e.Violations)
		if e.Compliance == StatusNonCompliant {
			data.CriticalRuns++
		}
	}
	if len(entries) > 0 {
		data.AverageScore = scoreSum / float64(len(entries))
	}
	return data, nil
}
