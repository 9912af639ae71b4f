package stats

import "math"

// TTestResult reports Welch's unequal-variance two-sample t-test.
type TTestResult struct {
	Statistic float64 `json:"statistic"`
	// PValue is two-tailed.
	PValue           float64 `json:"p_value"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	// ConfidenceInterval is the 95% interval for the difference of means
	// (mean of a minus mean of b).
	ConfidenceInterval Interval `json:"confidence_interval"`
	IsSignificant      bool     `json:"is_significant"`
}

// WelchTTest compares the means of two independent samples without assuming
// equal variances, with the Welch-Satterthwaite degrees of freedom. Each
// sample must hold at least 2 observations.
func WelchTTest(a, b []float64) (*TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return nil, ErrInsufficientSample
	}

	meanA, varA := meanVariance(a)
	meanB, varB := meanVariance(b)
	nA := float64(len(a))
	nB := float64(len(b))

	seSqA := varA / nA
	seSqB := varB / nB
	seSq := seSqA + seSqB
	if seSq == 0 {
		return nil, ErrZeroVariance
	}
	se := math.Sqrt(seSq)

	statistic := (meanA - meanB) / se

	// Welch-Satterthwaite approximation. Guard the denominator: a constant
	// sample contributes zero to it, and both being constant was rejected
	// above.
	denom := 0.0
	if seSqA > 0 {
		denom += seSqA * seSqA / (nA - 1)
	}
	if seSqB > 0 {
		denom += seSqB * seSqB / (nB - 1)
	}
	df := seSq * seSq / denom

	pValue := StudentTTail(statistic, df)
	tCrit := TCritical(0.95, df)
	diff := meanA - meanB

	return &TTestResult{
		Statistic:        statistic,
		PValue:           pValue,
		DegreesOfFreedom: df,
		ConfidenceInterval: Interval{
			Lower: diff - tCrit*se,
			Upper: diff + tCrit*se,
			Level: 0.95,
		},
		IsSignificant: pValue < SignificanceLevel,
	}, nil
}

// meanVariance returns the sample mean and unbiased sample variance.
func meanVariance(xs []float64) (mean, variance float64) {
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= n - 1
	return mean, variance
}
