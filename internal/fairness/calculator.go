package fairness

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"fairgate/internal/stats"
	derrors "fairgate/pkg/domain-errors"
	"fairgate/pkg/requestcontext"
)

// Calculator computes fairness metrics from a subject batch. It is stateless
// and safe for concurrent use; identical inputs always produce identical
// results apart from the generated snapshot ID.
type Calculator struct {
	logger *slog.Logger
}

// Option configures the Calculator.
type Option func(*Calculator)

// WithLogger sets a logger for reduced-confidence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// NewCalculator constructs a Calculator.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate runs the five metric families over the batch and returns an
// immutable snapshot.
//
// Preconditions: at least MinimumSampleSize subjects, at least one protected
// attribute, and every attribute present on every subject. Violations fail
// fast with a coded error; no partially computed snapshot is ever returned.
func (c *Calculator) Calculate(ctx context.Context, in Input) (*Metrics, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	attrs := append([]string(nil), in.ProtectedAttributes...)
	sort.Strings(attrs)

	n := len(in.Subjects)
	metrics := &Metrics{
		ID:         uuid.NewString(),
		Timestamp:  requestcontext.Now(ctx),
		Context:    in.Context,
		Attributes: make([]AttributeMetrics, 0, len(attrs)),
		SampleSize: SampleSize{Total: n},
		Validated:  true,
	}

	overall := 0.0
	for _, attr := range attrs {
		am, err := c.calculateAttribute(attr, in.Subjects)
		if err != nil {
			return nil, err
		}
		if am.EqualizedOdds.InsufficientData || am.PredictiveEquality.InsufficientData ||
			am.TreatmentEquality.InsufficientData {
			metrics.SampleSize.LowConfidence = true
		}
		if am.Significance != nil && am.Significance.LowExpectedCells > 0 {
			metrics.SampleSize.LowConfidence = true
		}
		if am.WeightedScore > overall {
			overall = am.WeightedScore
		}
		metrics.Attributes = append(metrics.Attributes, *am)
	}

	metrics.OverallBiasScore = overall
	metrics.ConfidenceInterval = waldInterval(overall, n)

	if err := validateScores(metrics); err != nil {
		return nil, err
	}

	if metrics.SampleSize.LowConfidence {
		c.logger.WarnContext(ctx, "fairness analysis completed with reduced confidence",
			"metrics_id", metrics.ID,
			"sample_size", n,
		)
	}

	return metrics, nil
}

func validateInput(in Input) error {
	if len(in.ProtectedAttributes) == 0 {
		return derrors.New(derrors.CodeInvalidInput, "at least one protected attribute is required")
	}
	if len(in.Subjects) < MinimumSampleSize {
		return derrors.Newf(derrors.CodeInsufficientData,
			"sample size %d below minimum %d", len(in.Subjects), MinimumSampleSize)
	}
	for _, attr := range in.ProtectedAttributes {
		for _, s := range in.Subjects {
			if s.Attributes[attr] == "" {
				return derrors.Newf(derrors.CodeInvalidInput,
					"subject %s missing protected attribute %q", s.ID, attr)
			}
		}
	}
	return nil
}

// groupCounts accumulates everything the five families need for one group.
type groupCounts struct {
	total    int
	selected int
	// Conditioned on the ground-truth qualified flag; subjects without the
	// flag are excluded from the conditional families.
	qualified           int
	qualifiedSelected   int
	unqualified         int
	unqualifiedSelected int
}

func (c *Calculator) calculateAttribute(attr string, subjects []Subject) (*AttributeMetrics, error) {
	byGroup := make(map[string]*groupCounts)
	for _, s := range subjects {
		group := s.Attributes[attr]
		gc := byGroup[group]
		if gc == nil {
			gc = &groupCounts{}
			byGroup[group] = gc
		}
		gc.total++
		if s.Outcome {
			gc.selected++
		}
		if s.Qualified != nil {
			if *s.Qualified {
				gc.qualified++
				if s.Outcome {
					gc.qualifiedSelected++
				}
			} else {
				gc.unqualified++
				if s.Outcome {
					gc.unqualifiedSelected++
				}
			}
		}
	}
	if len(byGroup) < 2 {
		return nil, derrors.Newf(derrors.CodeInsufficientData,
			"attribute %q has a single group, nothing to compare", attr)
	}

	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	parity := demographicParity(groups, byGroup)
	odds := equalizedOdds(groups, byGroup)
	predictive := predictiveEquality(groups, byGroup)
	treatment := treatmentEquality(groups, byGroup)
	impact := disparateImpact(parity.Ratio)

	am := &AttributeMetrics{
		Attribute:          attr,
		DemographicParity:  parity,
		EqualizedOdds:      odds,
		PredictiveEquality: predictive,
		TreatmentEquality:  treatment,
		DisparateImpact:    impact,
		Significance:       significance(groups, byGroup),
	}
	am.WeightedScore = weightParity*parity.BiasScore +
		weightOdds*odds.BiasScore +
		weightPredictive*predictive.BiasScore +
		weightTreatment*treatment.BiasScore +
		weightImpact*impact.BiasScore
	return am, nil
}

// demographicParity computes per-group selection rates and the min/max
// parity ratio.
func demographicParity(groups []string, byGroup map[string]*groupCounts) ParityResult {
	result := ParityResult{Rates: make([]GroupRate, 0, len(groups))}
	minRate, maxRate := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		gc := byGroup[g]
		rate := float64(gc.selected) / float64(gc.total)
		result.Rates = append(result.Rates, GroupRate{
			Group: g, Positive: gc.selected, Total: gc.total, Rate: rate,
		})
		minRate = math.Min(minRate, rate)
		maxRate = math.Max(maxRate, rate)
	}

	if maxRate == 0 {
		// Nobody selected anywhere: rates are equal by construction.
		result.Ratio = 1
	} else {
		result.Ratio = minRate / maxRate
	}

	result.BiasScore = normalizeBias(1-result.Ratio, parityDisparityThreshold)
	if result.Ratio < FourFifthsRatio {
		result.Violated = true
		result.Severity = paritySeverity(result.Ratio)
	}
	return result
}

// paritySeverity escalates with the parity ratio: moderate below the
// four-fifths line, major below 0.7, critical below 0.6.
func paritySeverity(ratio float64) Severity {
	switch {
	case ratio < 0.6:
		return SeverityCritical
	case ratio < 0.7:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// equalizedOdds compares true-positive rates (selection among qualified)
// across groups.
func equalizedOdds(groups []string, byGroup map[string]*groupCounts) RateComparison {
	return rateComparison(groups, byGroup, oddsDifferenceThreshold,
		func(gc *groupCounts) (int, int) { return gc.qualifiedSelected, gc.qualified })
}

// predictiveEquality compares false-positive rates (selection among
// unqualified) across groups.
func predictiveEquality(groups []string, byGroup map[string]*groupCounts) RateComparison {
	return rateComparison(groups, byGroup, predictiveDiffThreshold,
		func(gc *groupCounts) (int, int) { return gc.unqualifiedSelected, gc.unqualified })
}

func rateComparison(groups []string, byGroup map[string]*groupCounts, threshold float64,
	extract func(*groupCounts) (positive, total int)) RateComparison {

	result := RateComparison{}
	minRate, maxRate := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		positive, total := extract(byGroup[g])
		if total == 0 {
			// A zero denominator in any group makes the comparison
			// meaningless; degrade explicitly instead of dividing.
			return RateComparison{InsufficientData: true}
		}
		rate := float64(positive) / float64(total)
		result.Rates = append(result.Rates, GroupRate{
			Group: g, Positive: positive, Total: total, Rate: rate,
		})
		minRate = math.Min(minRate, rate)
		maxRate = math.Max(maxRate, rate)
	}
	result.MaxDifference = maxRate - minRate
	result.BiasScore = normalizeBias(result.MaxDifference, threshold)
	result.Violated = result.MaxDifference > threshold
	return result
}

// treatmentEquality compares the FN/FP error balance across groups as a
// min/max consistency ratio.
func treatmentEquality(groups []string, byGroup map[string]*groupCounts) TreatmentResult {
	result := TreatmentResult{}
	minRatio, maxRatio := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		gc := byGroup[g]
		fn := gc.qualified - gc.qualifiedSelected
		fp := gc.unqualifiedSelected
		if gc.qualified == 0 && gc.unqualified == 0 {
			return TreatmentResult{InsufficientData: true}
		}
		if fp == 0 {
			// FN/FP undefined; an error-free (or FP-free) group carries no
			// comparable error balance.
			return TreatmentResult{InsufficientData: true}
		}
		ratio := float64(fn) / float64(fp)
		result.Ratios = append(result.Ratios, GroupErrorRatio{
			Group: g, FalseNegatives: fn, FalsePositives: fp, Ratio: ratio,
		})
		minRatio = math.Min(minRatio, ratio)
		maxRatio = math.Max(maxRatio, ratio)
	}

	if maxRatio == 0 {
		// Every group has zero false negatives: perfectly consistent.
		result.Consistency = 1
	} else {
		result.Consistency = minRatio / maxRatio
	}
	disparity := 1 - result.Consistency
	result.BiasScore = normalizeBias(disparity, treatmentDisparityThreshold)
	result.Violated = disparity > treatmentDisparityThreshold
	return result
}

// disparateImpact re-expresses the parity ratio as four-fifths legal
// compliance with advisory risk text.
func disparateImpact(ratio float64) ImpactResult {
	result := ImpactResult{
		Ratio:               ratio,
		FourFifthsCompliant: ratio >= FourFifthsRatio,
		BiasScore:           normalizeBias(math.Max(0, FourFifthsRatio-ratio), impactDisparityThreshold),
	}
	switch {
	case ratio >= FourFifthsRatio:
		result.LegalRisk = "selection rates satisfy the four-fifths rule; no adverse-impact indication"
	case ratio >= 0.6:
		result.LegalRisk = "selection-rate ratio below the four-fifths guideline; potential adverse impact, review the selection criteria for this stage"
	default:
		result.LegalRisk = "selection-rate ratio far below the four-fifths guideline; strong adverse-impact indication, legal review recommended"
	}
	return result
}

// significance annotates the group-versus-outcome table with a hypothesis
// test: Fisher's exact test for small 2x2 tables, chi-square otherwise.
func significance(groups []string, byGroup map[string]*groupCounts) *Significance {
	cells := make([][]float64, 0, len(groups))
	for _, g := range groups {
		gc := byGroup[g]
		cells = append(cells, []float64{float64(gc.selected), float64(gc.total - gc.selected)})
	}

	chi, err := stats.ChiSquareTest(stats.ContingencyTable{Cells: cells})
	if err != nil {
		// Degenerate marginals (e.g. nobody selected at all): no test.
		return nil
	}

	if len(groups) == 2 && chi.LowExpectedCells > 0 {
		g1, g2 := byGroup[groups[0]], byGroup[groups[1]]
		fisher, ferr := stats.FisherExactTest(stats.TwoByTwo{
			A: g1.selected, B: g1.total - g1.selected,
			C: g2.selected, D: g2.total - g2.selected,
		})
		if ferr == nil {
			return &Significance{
				Test:             "fisher_exact",
				PValue:           fisher.PValue,
				Significant:      fisher.IsSignificant,
				LowExpectedCells: chi.LowExpectedCells,
			}
		}
	}

	return &Significance{
		Test:             "chi_square",
		PValue:           chi.PValue,
		Significant:      chi.IsSignificant,
		LowExpectedCells: chi.LowExpectedCells,
	}
}

// normalizeBias maps a disparity onto [0,1]: the family threshold lands at
// 0.5 and twice the threshold saturates at 1.
func normalizeBias(disparity, threshold float64) float64 {
	if disparity <= 0 || math.IsNaN(disparity) {
		return 0
	}
	return clamp01(disparity / (2 * threshold))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// waldInterval is the normal-approximation 95% interval around the overall
// score, clamped to the valid score range.
func waldInterval(p float64, n int) stats.Interval {
	const z95 = 1.959963984540054
	half := z95 * math.Sqrt(p*(1-p)/float64(n))
	return stats.Interval{
		Lower: clamp01(p - half),
		Upper: clamp01(p + half),
		Level: 0.95,
	}
}

// validateScores enforces the internal invariant that every sub-score and
// the overall score lie in [0,1]. A breach is a defect in this package, not
// a data problem, and must fail loudly.
func validateScores(m *Metrics) error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return derrors.Newf(derrors.CodeValidation,
				"computed %s %.6f outside [0,1]", name, v)
		}
		return nil
	}
	for _, am := range m.Attributes {
		for name, v := range map[string]float64{
			"demographic parity score":  am.DemographicParity.BiasScore,
			"equalized odds score":      am.EqualizedOdds.BiasScore,
			"predictive equality score": am.PredictiveEquality.BiasScore,
			"treatment equality score":  am.TreatmentEquality.BiasScore,
			"disparate impact score":    am.DisparateImpact.BiasScore,
			"weighted score":            am.WeightedScore,
		} {
			if err := check(name, v); err != nil {
				return err
			}
		}
	}
	return check("overall bias score", m.OverallBiasScore)
}
