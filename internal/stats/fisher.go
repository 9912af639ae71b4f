package stats

import "math"

// TwoByTwo is a 2x2 contingency table laid out as
//
//	        outcome+  outcome-
//	group1     A         B
//	group2     C         D
type TwoByTwo struct {
	A, B, C, D int
}

// FisherResult reports Fisher's exact test on a 2x2 table.
type FisherResult struct {
	PValue float64 `json:"p_value"`
	// OddsRatio is (A*D)/(B*C). Only meaningful when OddsRatioDefined; a
	// zero B or C cell leaves the ratio undefined and the confidence
	// interval is omitted rather than computed from a division by zero.
	OddsRatio          float64  `json:"odds_ratio"`
	OddsRatioDefined   bool     `json:"odds_ratio_defined"`
	ConfidenceInterval Interval `json:"confidence_interval"`
	IsSignificant      bool     `json:"is_significant"`
}

// FisherExactTest runs the two-tailed exact test for a 2x2 table. Intended
// for the small samples where the chi-square approximation breaks down.
//
// The two-tailed p-value sums the hypergeometric probabilities of every
// table, with the observed marginals, at most as probable as the observed
// table. The 95% interval for the odds ratio is computed on the log-odds
// scale with standard error sqrt(1/a+1/b+1/c+1/d).
func FisherExactTest(t TwoByTwo) (*FisherResult, error) {
	if t.A < 0 || t.B < 0 || t.C < 0 || t.D < 0 {
		return nil, ErrNegativeCount
	}
	n := t.A + t.B + t.C + t.D
	if n == 0 {
		return nil, ErrDegenerateTable
	}
	row1 := t.A + t.B
	row2 := t.C + t.D
	col1 := t.A + t.C
	col2 := t.B + t.D
	if row1 == 0 || row2 == 0 || col1 == 0 || col2 == 0 {
		return nil, ErrDegenerateTable
	}

	pObserved := hypergeomProb(t.A, row1, row2, col1)

	// Sum over all tables compatible with the marginals. The slack factor
	// guards against ties lost to floating-point rounding.
	const tie = 1 + 1e-7
	var pValue float64
	lo := max(0, col1-row2)
	hi := min(col1, row1)
	for a := lo; a <= hi; a++ {
		if p := hypergeomProb(a, row1, row2, col1); p <= pObserved*tie {
			pValue += p
		}
	}
	if pValue > 1 {
		pValue = 1
	}

	result := &FisherResult{
		PValue:        pValue,
		IsSignificant: pValue < SignificanceLevel,
	}

	if t.B == 0 || t.C == 0 {
		// Undefined ratio: report the exact p-value alone.
		return result, nil
	}

	result.OddsRatio = float64(t.A) * float64(t.D) / (float64(t.B) * float64(t.C))
	result.OddsRatioDefined = true

	if t.A > 0 && t.D > 0 {
		logOR := math.Log(result.OddsRatio)
		se := math.Sqrt(1/float64(t.A) + 1/float64(t.B) + 1/float64(t.C) + 1/float64(t.D))
		const z95 = 1.959963984540054
		result.ConfidenceInterval = Interval{
			Lower: math.Exp(logOR - z95*se),
			Upper: math.Exp(logOR + z95*se),
			Level: 0.95,
		}
	}

	return result, nil
}

// hypergeomProb returns the probability of observing a in the top-left cell
// given marginals (row1, row2, col1), using log-gamma to stay stable for
// large counts.
func hypergeomProb(a, row1, row2, col1 int) float64 {
	b := row1 - a
	c := col1 - a
	d := row2 - c
	if b < 0 || c < 0 || d < 0 {
		return 0
	}
	n := row1 + row2
	logP := logChoose(row1, a) + logChoose(row2, c) - logChoose(n, col1)
	return math.Exp(logP)
}

func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln1, _ := math.Lgamma(float64(n + 1))
	lk1, _ := math.Lgamma(float64(k + 1))
	lnk1, _ := math.Lgamma(float64(n - k + 1))
	return ln1 - lk1 - lnk1
}
