// Package monitor owns the bias monitoring loop: it evaluates incoming
// process batches against configurable thresholds, manages the alert
// lifecycle, appends audit entries, and serves dashboard and report queries.
package monitor

import (
	"time"

	"fairgate/internal/fairness"
	id "fairgate/pkg/domain"
)

// ProcessType selects the extraction rule for a batch.
type ProcessType string

const (
	ProcessApplicationReview ProcessType = "application_review"
	ProcessInterviewSchedule ProcessType = "interview_scheduling"
	ProcessHiringDecision    ProcessType = "hiring_decision"
	ProcessCandidateMatching ProcessType = "candidate_matching"
)

// IsValid checks the process type against the supported enum values.
func (p ProcessType) IsValid() bool {
	switch p {
	case ProcessApplicationReview, ProcessInterviewSchedule, ProcessHiringDecision, ProcessCandidateMatching:
		return true
	}
	return false
}

// ProcessRecord is one pipeline item (application, interview, decision,
// match) as delivered by the hiring pipeline collaborator.
type ProcessRecord struct {
	SubjectID string `json:"subject_id"`
	// Attributes carries the protected-attribute fields (gender,
	// ethnicity, age_band, ...).
	Attributes map[string]string `json:"attributes"`
	// Outcome is the process-specific positive flag: advanced, scheduled,
	// hired, matched.
	Outcome bool `json:"outcome"`
	// Covariates carries process-specific numeric fields (skill match
	// score, interview score, wait days) the extraction rules draw on.
	Covariates map[string]float64 `json:"covariates,omitempty"`
}

// Batch is the unit of evaluation delivered per completed process step.
type Batch struct {
	Records             []ProcessRecord `json:"records"`
	ProtectedAttributes []string        `json:"protected_attributes"`
	Stage               string          `json:"stage,omitempty"`
	WindowStart         time.Time       `json:"window_start,omitempty"`
	WindowEnd           time.Time       `json:"window_end,omitempty"`
}

// ViolationType classifies a threshold breach.
type ViolationType string

const (
	ViolationDemographicParity ViolationType = "demographic_parity"
	ViolationEqualizedOdds     ViolationType = "equalized_odds"
	ViolationDisparateImpact   ViolationType = "disparate_impact"
	ViolationOverallScore      ViolationType = "overall_bias_score"
)

// Violation is derived from one fairness.Metrics snapshot; it is never
// persisted on its own, only inside alerts and audit entries.
type Violation struct {
	Type        ViolationType     `json:"type"`
	Severity    fairness.Severity `json:"severity"`
	Metric      string            `json:"metric"`
	Observed    float64           `json:"observed"`
	Threshold   float64           `json:"threshold"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
}

// AlertStatus is the alert lifecycle state.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// CanTransitionTo encodes the state machine:
// active -> acknowledged -> resolved, or active -> resolved directly.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertActive:
		return next == AlertAcknowledged || next == AlertResolved
	case AlertAcknowledged:
		return next == AlertResolved
	default:
		return false
	}
}

// AlertKey identifies the dedup scope: at most one active alert may exist
// per key.
type AlertKey struct {
	ProcessID id.ProcessID  `json:"process_id"`
	Type      ViolationType `json:"type"`
	Metric    string        `json:"metric"`
}

// Alert is a stateful record of an ongoing violation. Lifecycle is owned by
// the monitor service; stores only enforce the single-active invariant.
type Alert struct {
	ID          id.AlertID       `json:"id"`
	Key         AlertKey         `json:"key"`
	ProcessType ProcessType      `json:"process_type"`
	Violation   Violation        `json:"violation"`
	Analysis    fairness.Metrics `json:"analysis"`
	Status      AlertStatus      `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	AckedAt     *time.Time       `json:"acked_at,omitempty"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
	// UpdateCount tracks snapshot refreshes while active; a repeat
	// violation updates the alert instead of duplicating it.
	UpdateCount int `json:"update_count"`
}

// ThresholdConfig holds the cutoffs one evaluation is judged against.
type ThresholdConfig struct {
	// Warning and Critical are overall-score cutoffs.
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
	// DemographicParity is the minimum acceptable parity ratio.
	DemographicParity float64 `json:"demographic_parity"`
	// EqualizedOdds is the maximum acceptable TPR spread.
	EqualizedOdds float64 `json:"equalized_odds"`
	// EffectSize is the minimum disparity considered practically
	// meaningful; smaller observed effects never raise violations.
	EffectSize float64 `json:"effect_size"`
}

// DefaultThresholds are the starting cutoffs before any admin change.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		Warning:           0.4,
		Critical:          0.7,
		DemographicParity: 0.8,
		EqualizedOdds:     0.15,
		EffectSize:        0.05,
	}
}

// ThresholdVersion is one immutable config revision. Changes apply only to
// evaluations issued at or after EffectiveAt, so historical audit entries
// stay interpretable against the version active when they were produced.
type ThresholdVersion struct {
	Config      ThresholdConfig `json:"config"`
	EffectiveAt time.Time       `json:"effective_at"`
	ChangedBy   string          `json:"changed_by,omitempty"`
}

// ComplianceStatus summarizes one evaluation.
type ComplianceStatus string

const (
	StatusCompliant         ComplianceStatus = "compliant"
	StatusViolationDetected ComplianceStatus = "violation_detected"
	StatusNonCompliant      ComplianceStatus = "non_compliant"
)

// Result is the full outcome of one monitoring run, returned to the caller
// and published to the dashboard cache.
type Result struct {
	MonitoringID     id.MonitoringID   `json:"monitoring_id"`
	ProcessID        id.ProcessID      `json:"process_id"`
	ProcessType      ProcessType       `json:"process_type"`
	Analysis         *fairness.Metrics `json:"analysis,omitempty"`
	Violations       []Violation       `json:"violations"`
	ComplianceStatus ComplianceStatus  `json:"compliance_status"`
	Recommendations  []string          `json:"recommendations"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	Timestamp        time.Time         `json:"timestamp"`
}

// AuditEntry is one append-only audit-trail record per evaluation run,
// carrying the full analysis snapshot and the thresholds it was judged
// against.
type AuditEntry struct {
	MonitoringID id.MonitoringID   `json:"monitoring_id"`
	ProcessID    id.ProcessID      `json:"process_id"`
	ProcessType  ProcessType       `json:"process_type"`
	Analysis     *fairness.Metrics `json:"analysis,omitempty"`
	Violations   []Violation       `json:"violations"`
	Compliance   ComplianceStatus  `json:"compliance"`
	Thresholds   ThresholdConfig   `json:"thresholds"`
	Timestamp    time.Time         `json:"timestamp"`
	DurationMS   int64             `json:"duration_ms"`
}
