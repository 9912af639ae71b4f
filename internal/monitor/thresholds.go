package monitor

import (
	"sort"
	"sync"
	"time"

	"fairgate/internal/fairness"
	derrors "fairgate/pkg/domain-errors"
)

// ThresholdStore keeps the versioned threshold history. Versions are
// immutable once added; an evaluation always reads the version effective at
// its own timestamp, so old audit entries stay interpretable after a change.
type ThresholdStore struct {
	mu       sync.RWMutex
	versions []ThresholdVersion // sorted by EffectiveAt ascending
}

// NewThresholdStore seeds the history with one version effective at the
// given time.
func NewThresholdStore(initial ThresholdConfig, effectiveAt time.Time) *ThresholdStore {
	return &ThresholdStore{
		versions: []ThresholdVersion{{Config: initial, EffectiveAt: effectiveAt}},
	}
}

// EffectiveAt returns the version active at t: the latest version whose
// EffectiveAt is not after t, or the earliest version for t before history.
func (s *ThresholdStore) EffectiveAt(t time.Time) ThresholdVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.versions[0]
	for _, v := range s.versions {
		if v.EffectiveAt.After(t) {
			break
		}
		current = v
	}
	return current
}

// Update appends a new version. Changes apply only to evaluations issued at
// or after effectiveAt.
func (s *ThresholdStore) Update(cfg ThresholdConfig, effectiveAt time.Time, changedBy string) error {
	if err := validateThresholds(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions = append(s.versions, ThresholdVersion{
		Config:      cfg,
		EffectiveAt: effectiveAt,
		ChangedBy:   changedBy,
	})
	sort.SliceStable(s.versions, func(i, j int) bool {
		return s.versions[i].EffectiveAt.Before(s.versions[j].EffectiveAt)
	})
	return nil
}

// History returns a copy of all versions, oldest first.
func (s *ThresholdStore) History() []ThresholdVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ThresholdVersion(nil), s.versions...)
}

func validateThresholds(cfg ThresholdConfig) error {
	inUnit := func(v float64) bool { return v >= 0 && v <= 1 }
	if !inUnit(cfg.Warning) || !inUnit(cfg.Critical) || !inUnit(cfg.DemographicParity) ||
		!inUnit(cfg.EqualizedOdds) || !inUnit(cfg.EffectSize) {
		return derrors.New(derrors.CodeBadRequest, "threshold values must lie in [0,1]")
	}
	if cfg.Warning >= cfg.Critical {
		return derrors.New(derrors.CodeBadRequest, "warning cutoff must be below critical cutoff")
	}
	return nil
}

// severityRank orders violations most severe first.
var severityRank = map[fairness.Severity]int{
	fairness.SeverityCritical: 0,
	fairness.SeverityHigh:     1,
	fairness.SeverityMedium:   2,
	fairness.SeverityLow:      3,
}

// evaluateThresholds derives ordered violations from one analysis snapshot.
// Pure domain logic: no I/O, no side effects.
//
// Disparities below the configured effect size are never raised, regardless
// of statistical significance; practically meaningless effects should not
// page anyone.
func evaluateThresholds(m *fairness.Metrics, cfg ThresholdConfig, now time.Time) []Violation {
	var violations []Violation

	for _, am := range m.Attributes {
		parity := am.DemographicParity
		if parity.Ratio < cfg.DemographicParity && (1-parity.Ratio) >= cfg.EffectSize {
			severity := parity.Severity
			if severity == "" {
				severity = fairness.SeverityLow
			}
			violations = append(violations, Violation{
				Type:        ViolationDemographicParity,
				Severity:    severity,
				Metric:      am.Attribute,
				Observed:    parity.Ratio,
				Threshold:   cfg.DemographicParity,
				Description: "selection-rate parity ratio below configured minimum for " + am.Attribute,
				Timestamp:   now,
			})
		}

		odds := am.EqualizedOdds
		if !odds.InsufficientData && odds.MaxDifference > cfg.EqualizedOdds &&
			odds.MaxDifference >= cfg.EffectSize {
			severity := fairness.SeverityMedium
			if odds.MaxDifference > 2*cfg.EqualizedOdds {
				severity = fairness.SeverityHigh
			}
			violations = append(violations, Violation{
				Type:        ViolationEqualizedOdds,
				Severity:    severity,
				Metric:      am.Attribute,
				Observed:    odds.MaxDifference,
				Threshold:   cfg.EqualizedOdds,
				Description: "true-positive rate spread exceeds configured maximum for " + am.Attribute,
				Timestamp:   now,
			})
		}

		impact := am.DisparateImpact
		if !impact.FourFifthsCompliant && (fairness.FourFifthsRatio-impact.Ratio) >= cfg.EffectSize {
			violations = append(violations, Violation{
				Type:        ViolationDisparateImpact,
				Severity:    paritySeverityOf(impact.Ratio),
				Metric:      am.Attribute,
				Observed:    impact.Ratio,
				Threshold:   fairness.FourFifthsRatio,
				Description: impact.LegalRisk,
				Timestamp:   now,
			})
		}
	}

	switch {
	case m.OverallBiasScore >= cfg.Critical:
		violations = append(violations, Violation{
			Type:        ViolationOverallScore,
			Severity:    fairness.SeverityCritical,
			Metric:      "overall",
			Observed:    m.OverallBiasScore,
			Threshold:   cfg.Critical,
			Description: "overall bias score at or above the critical cutoff",
			Timestamp:   now,
		})
	case m.OverallBiasScore >= cfg.Warning:
		violations = append(violations, Violation{
			Type:        ViolationOverallScore,
			Severity:    fairness.SeverityMedium,
			Metric:      "overall",
			Observed:    m.OverallBiasScore,
			Threshold:   cfg.Warning,
			Description: "overall bias score at or above the warning cutoff",
			Timestamp:   now,
		})
	}

	sort.SliceStable(violations, func(i, j int) bool {
		ri, rj := severityRank[violations[i].Severity], severityRank[violations[j].Severity]
		if ri != rj {
			return ri < rj
		}
		if violations[i].Type != violations[j].Type {
			return violations[i].Type < violations[j].Type
		}
		return violations[i].Metric < violations[j].Metric
	})
	return violations
}

func paritySeverityOf(ratio float64) fairness.Severity {
	switch {
	case ratio < 0.6:
		return fairness.SeverityCritical
	case ratio < 0.7:
		return fairness.SeverityHigh
	default:
		return fairness.SeverityMedium
	}
}

// complianceFor collapses violations into the result status.
func complianceFor(violations []Violation) ComplianceStatus {
	if len(violations) == 0 {
		return StatusCompliant
	}
	for _, v := range violations {
		if v.Severity == fairness.SeverityCritical {
			return StatusNonCompliant
		}
	}
	return StatusViolationDetected
}

// recommendations derives remediation guidance per violation type, deduped,
// in violation order.
func recommendations(violations []Violation) []string {
	texts := map[ViolationType]string{
		ViolationDemographicParity: "review stage criteria and sourcing for the flagged attribute; selection rates diverge across groups",
		ViolationEqualizedOdds:     "audit qualification scoring: equally qualified candidates advance at different rates across groups",
		ViolationDisparateImpact:   "selection-rate ratio breaches the four-fifths guideline; document business necessity and consider legal review",
		ViolationOverallScore:      "aggregate bias is elevated; prioritize a structured review of this process before further decisions",
	}

	seen := make(map[ViolationType]bool)
	var out []string
	for _, v := range violations {
		if seen[v.Type] {
			continue
		}
		seen[v.Type] = true
		if text, ok := texts[v.Type]; ok {
			out = append(out, text)
		}
	}
	return out
}
