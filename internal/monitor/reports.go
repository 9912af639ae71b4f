package monitor

import (
	"context"
	"sort"
	"time"

	"fairgate/internal/fairness"
	derrors "fairgate/pkg/domain-errors"
	"fairgate/pkg/requestcontext"
)

// ReportType selects which projection GenerateReport builds.
type ReportType string

const (
	ReportCompliance         ReportType = "compliance"
	ReportTrend              ReportType = "trend"
	ReportViolationSummary   ReportType = "violation_summary"
	ReportProcessPerformance ReportType = "process_performance"
)

// IsValid reports whether t names a known report type.
func (t ReportType) IsValid() bool {
	switch t {
	case ReportCompliance, ReportTrend, ReportViolationSummary, ReportProcessPerformance:
		return true
	}
	return false
}

// Report is a read-side projection over audit entries in a window. Reports
// replay the recorded snapshots; statistics are never re-run.
type Report struct {
	Type        ReportType `json:"type"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	GeneratedAt time.Time  `json:"generated_at"`
	Evaluations int        `json:"evaluations"`
	// LowConfidence flags windows too thin to support conclusions.
	LowConfidence bool `json:"low_confidence"`

	Compliance         *ComplianceReport         `json:"compliance,omitempty"`
	Trend              *TrendReport              `json:"trend,omitempty"`
	ViolationSummary   *ViolationSummaryReport   `json:"violation_summary,omitempty"`
	ProcessPerformance *ProcessPerformanceReport `json:"process_performance,omitempty"`
}

// ComplianceReport aggregates compliance outcomes over the window.
type ComplianceReport struct {
	ByStatus       map[ComplianceStatus]int  `json:"by_status"`
	ComplianceRate float64                   `json:"compliance_rate"`
	Violations     int                       `json:"violations"`
	BySeverity     map[fairness.Severity]int `json:"by_severity"`
}

// TrendPoint is one day's average overall bias score.
type TrendPoint struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	Evaluations  int     `json:"evaluations"`
}

// TrendReport tracks overall-score movement across the window.
type TrendReport struct {
	Points []TrendPoint `json:"points"`
	// Direction is improving, degrading, or stable, comparing the first
	// and second half of the window.
	Direction string  `json:"direction"`
	FirstHalf float64 `json:"first_half_average"`
	LastHalf  float64 `json:"last_half_average"`
}

// ViolationSummaryReport breaks violations down by type and metric.
type ViolationSummaryReport struct {
	ByType   map[ViolationType]int `json:"by_type"`
	ByMetric map[string]int        `json:"by_metric"`
	// TopMetric is the most frequently flagged metric, ties broken
	// lexicographically.
	TopMetric string `json:"top_metric,omitempty"`
}

// ProcessTypePerformance aggregates one process type's evaluations.
type ProcessTypePerformance struct {
	Evaluations    int     `json:"evaluations"`
	AverageScore   float64 `json:"average_score"`
	ComplianceRate float64 `json:"compliance_rate"`
	AverageMS      float64 `json:"average_duration_ms"`
}

// ProcessPerformanceReport groups outcomes per process type.
type ProcessPerformanceReport struct {
	ByProcessType map[ProcessType]ProcessTypePerformance `json:"by_process_type"`
}

// minReportEvaluations is the evaluation count below which a report is
// flagged low-confidence.
const minReportEvaluations = 5

// GenerateReport replays the audit trail over [from, to) into the requested
// projection. An empty window yields an explicit empty, low-confidence
// report rather than an error.
func (s *Service) GenerateReport(ctx context.Context, reportType ReportType, from, to time.Time) (*Report, error) {
	if !reportType.IsValid() {
		return nil, derrors.Newf(derrors.CodeInvalidInput, "unknown report type %q", reportType)
	}
	if !to.After(from) {
		return nil, derrors.New(derrors.CodeInvalidInput, "report window end must be after its start")
	}

	entries, err := s.audit.ListWindow(ctx, from, to)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list audit window")
	}

	report := &Report{
		Type:          reportType,
		WindowStart:   from,
		WindowEnd:     to,
		GeneratedAt:   requestcontext.Now(ctx),
		Evaluations:   len(entries),
		LowConfidence: len(entries) < minReportEvaluations,
	}

	switch reportType {
	case ReportCompliance:
		report.Compliance = complianceReport(entries)
	case ReportTrend:
		report.Trend = trendReport(entries, from, to)
	case ReportViolationSummary:
		report.ViolationSummary = violationSummaryReport(entries)
	case ReportProcessPerformance:
		report.ProcessPerformance = processPerformanceReport(entries)
	}
	return report, nil
}

func complianceReport(entries []AuditEntry) *ComplianceReport {
	out := &ComplianceReport{
		ByStatus:   make(map[ComplianceStatus]int),
		BySeverity: make(map[fairness.Severity]int),
	}
	for _, e := range entries {
		out.ByStatus[e.Compliance]++
		out.Violations += len(e.Violations)
		for _, v := range e.Violations {
			out.BySeverity[v.Severity]++
		}
	}
	if len(entries) > 0 {
		out.ComplianceRate = float64(out.ByStatus[StatusCompliant]) / float64(len(entries))
	}
	return out
}

func trendReport(entries []AuditEntry, from, to time.Time) *TrendReport {
	type bucket struct {
		sum float64
		n   int
	}
	days := make(map[string]*bucket)
	for _, e := range entries {
		key := e.Timestamp.UTC().Format("2006-01-02")
		b, ok := days[key]
		if !ok {
			b = &bucket{}
			days[key] = b
		}
		b.sum += entryScore(e)
		b.n++
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &TrendReport{Points: make([]TrendPoint, 0, len(keys)), Direction: "stable"}
	for _, k := range keys {
		b := days[k]
		out.Points = append(out.Points, TrendPoint{
			Date:         k,
			AverageScore: b.sum / float64(b.n),
			Evaluations:  b.n,
		})
	}

	mid := from.Add(to.Sub(from) / 2)
	var first, last bucket
	for _, e := range entries {
		if e.Timestamp.Before(mid) {
			first.sum += entryScore(e)
			first.n++
		} else {
			last.sum += entryScore(e)
			last.n++
		}
	}
	if first.n > 0 && last.n > 0 {
		out.FirstHalf = first.sum / float64(first.n)
		out.LastHalf = last.sum / float64(last.n)
		const drift = 0.02
		switch {
		case out.LastHalf < out.FirstHalf-drift:
			out.Direction = "improving"
		case out.LastHalf > out.FirstHalf+drift:
			out.Direction = "degrading"
		}
	}
	return out
}

func violationSummaryReport(entries []AuditEntry) *ViolationSummaryReport {
	out := &ViolationSummaryReport{
		ByType:   make(map[ViolationType]int),
		ByMetric: make(map[string]int),
	}
	for _, e := range entries {
		for _, v := range e.Violations {
			out.ByType[v.Type]++
			out.ByMetric[v.Metric]++
		}
	}

	metrics := make([]string, 0, len(out.ByMetric))
	for m := range out.ByMetric {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)
	best := 0
	for _, m := range metrics {
		if out.ByMetric[m] > best {
			best = out.ByMetric[m]
			out.TopMetric = m
		}
	}
	return out
}

func processPerformanceReport(entries []AuditEntry) *ProcessPerformanceReport {
	type acc struct {
		n         int
		score     float64
		compliant int
		durMS     float64
	}
	byType := make(map[ProcessType]*acc)
	for _, e := range entries {
		a, ok := byType[e.ProcessType]
		if !ok {
			a = &acc{}
			byType[e.ProcessType] = a
		}
		a.n++
		a.score += entryScore(e)
		a.durMS += float64(e.DurationMS)
		if e.Compliance == StatusCompliant {
			a.compliant++
		}
	}

	out := &ProcessPerformanceReport{ByProcessType: make(map[ProcessType]ProcessTypePerformance, len(byType))}
	for pt, a := range byType {
		out.ByProcessType[pt] = ProcessTypePerformance{
			Evaluations:    a.n,
			AverageScore:   a.score / float64(a.n),
			ComplianceRate: float64(a.compliant) / float64(a.n),
			AverageMS:      a.durMS / float64(a.n),
		}
	}
	return out
}

// entryScore reads the recorded overall score; zero-subject runs carry no
// analysis and score zero.
func entryScore(e AuditEntry) float64 {
	if e.Analysis == nil {
		return 0
	}
	return e.Analysis.OverallBiasScore
}
