// Package fairness computes quantitative bias metrics over a batch of
// hiring-outcome subjects. Five metric families are evaluated per protected
// attribute; results are immutable snapshots created once per run.
package fairness

import (
	"time"

	"fairgate/internal/stats"
)

// Severity grades how far a metric sits beyond its threshold.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Family names the five metric families.
type Family string

const (
	FamilyDemographicParity  Family = "demographic_parity"
	FamilyEqualizedOdds      Family = "equalized_odds"
	FamilyPredictiveEquality Family = "predictive_equality"
	FamilyTreatmentEquality  Family = "treatment_equality"
	FamilyDisparateImpact    Family = "disparate_impact"
)

// Family weights for the overall score. Intentionally weighted toward the
// two legally-grounded families (parity and equalized odds).
const (
	weightParity     = 0.25
	weightOdds       = 0.25
	weightPredictive = 0.20
	weightTreatment  = 0.15
	weightImpact     = 0.15
)

// Disparity thresholds per family. The normalized bias sub-score maps the
// threshold itself to 0.5 and twice the threshold to 1.0.
const (
	// FourFifthsRatio is the legal adverse-impact boundary on selection-rate
	// ratios.
	FourFifthsRatio = 0.8

	parityDisparityThreshold    = 1 - FourFifthsRatio
	oddsDifferenceThreshold     = 0.15
	predictiveDiffThreshold     = 0.15
	treatmentDisparityThreshold = 0.25
	impactDisparityThreshold    = 1 - FourFifthsRatio
)

// Subject is one observation: a candidate moving through a process stage.
// Immutable within one analysis run.
type Subject struct {
	ID string `json:"id"`
	// Attributes maps each protected attribute (gender, ethnicity,
	// age_band, ...) to the subject's categorical group.
	Attributes map[string]string `json:"attributes"`
	// Outcome is the binary result of the stage (advanced, scheduled,
	// hired, matched).
	Outcome bool `json:"outcome"`
	// Qualified is the ground-truth signal the equalized-odds and
	// predictive-equality families condition on. Nil when the process type
	// supplies no usable covariate; those families then degrade to an
	// explicit insufficient-data state.
	Qualified *bool `json:"qualified,omitempty"`
	// Covariates carries numeric per-subject measurements (scores, waiting
	// days) for covariate comparisons.
	Covariates map[string]float64 `json:"covariates,omitempty"`
}

// Context records what slice of the pipeline a run analyzed.
type Context struct {
	ProcessType string    `json:"process_type"`
	Stage       string    `json:"stage,omitempty"`
	WindowStart time.Time `json:"window_start,omitempty"`
	WindowEnd   time.Time `json:"window_end,omitempty"`
	Scope       string    `json:"scope,omitempty"`
}

// Input is one calculation request.
type Input struct {
	Subjects            []Subject
	ProtectedAttributes []string
	Context             Context
}

// GroupRate is a per-group selection (or conditional) rate.
type GroupRate struct {
	Group    string  `json:"group"`
	Positive int     `json:"positive"`
	Total    int     `json:"total"`
	Rate     float64 `json:"rate"`
}

// ParityResult reports demographic parity for one protected attribute.
type ParityResult struct {
	Rates []GroupRate `json:"rates"`
	// Ratio is min(rate)/max(rate) across groups, order-independent.
	Ratio     float64  `json:"ratio"`
	Violated  bool     `json:"violated"`
	Severity  Severity `json:"severity,omitempty"`
	BiasScore float64  `json:"bias_score"`
}

// RateComparison reports a max-minus-min rate family (equalized odds on
// true-positive rates, predictive equality on false-positive rates).
type RateComparison struct {
	Rates         []GroupRate `json:"rates,omitempty"`
	MaxDifference float64     `json:"max_difference"`
	Violated      bool        `json:"violated"`
	// InsufficientData is set when some group has no members on the
	// conditioning side (no qualified, or no unqualified, subjects); the
	// family then contributes zero bias and reduces confidence instead of
	// propagating a zero-denominator rate.
	InsufficientData bool    `json:"insufficient_data"`
	BiasScore        float64 `json:"bias_score"`
}

// GroupErrorRatio is the FN/FP balance for one group.
type GroupErrorRatio struct {
	Group          string  `json:"group"`
	FalseNegatives int     `json:"false_negatives"`
	FalsePositives int     `json:"false_positives"`
	Ratio          float64 `json:"ratio"`
}

// TreatmentResult reports treatment equality: how consistently the process
// errs across groups, as the min/max consistency of per-group FN/FP ratios.
type TreatmentResult struct {
	Ratios           []GroupErrorRatio `json:"ratios,omitempty"`
	Consistency      float64           `json:"consistency"`
	Violated         bool              `json:"violated"`
	InsufficientData bool              `json:"insufficient_data"`
	BiasScore        float64           `json:"bias_score"`
}

// ImpactResult re-expresses the selection-rate ratio as four-fifths legal
// compliance.
type ImpactResult struct {
	Ratio               float64 `json:"ratio"`
	FourFifthsCompliant bool    `json:"four_fifths_compliant"`
	// LegalRisk is advisory text accompanying the statistical finding.
	LegalRisk string  `json:"legal_risk"`
	BiasScore float64 `json:"bias_score"`
}

// Significance carries the hypothesis-test annotation for one attribute's
// group-versus-outcome contingency table.
type Significance struct {
	Test             string  `json:"test"`
	PValue           float64 `json:"p_value"`
	Significant      bool    `json:"significant"`
	LowExpectedCells int     `json:"low_expected_cells"`
}

// AttributeMetrics bundles the five families for one protected attribute.
type AttributeMetrics struct {
	Attribute          string          `json:"attribute"`
	DemographicParity  ParityResult    `json:"demographic_parity"`
	EqualizedOdds      RateComparison  `json:"equalized_odds"`
	PredictiveEquality RateComparison  `json:"predictive_equality"`
	TreatmentEquality  TreatmentResult `json:"treatment_equality"`
	DisparateImpact    ImpactResult    `json:"disparate_impact"`
	Significance       *Significance   `json:"significance,omitempty"`
	// WeightedScore is the weighted bias score for this attribute in [0,1].
	WeightedScore float64 `json:"weighted_score"`
}

// SampleSize summarizes how much data backed a run.
type SampleSize struct {
	Total int `json:"total"`
	// LowConfidence is set when any family degraded to insufficient data
	// or any expected cell count fell below 5.
	LowConfidence bool `json:"low_confidence"`
}

// Metrics is one immutable analysis snapshot. Re-running identical input
// yields identical values under a new ID.
type Metrics struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Context   Context   `json:"context"`
	// Attributes is sorted by attribute name for deterministic output.
	Attributes []AttributeMetrics `json:"attributes"`
	// OverallBiasScore is the worst attribute's weighted score: 0 is fully
	// fair, 1 maximally biased.
	OverallBiasScore   float64        `json:"overall_bias_score"`
	ConfidenceInterval stats.Interval `json:"confidence_interval"`
	SampleSize         SampleSize     `json:"sample_size"`
	Validated          bool           `json:"validated"`
}

// MinimumSampleSize is the precondition on total subjects per run.
const MinimumSampleSize = 30
