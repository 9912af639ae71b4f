// Package stats computes the hypothesis tests the fairness engine needs:
// chi-square independence, Fisher's exact test for small 2x2 tables, and
// Welch's two-sample t-test. Everything here is pure and deterministic;
// degenerate input returns a named error, never NaN or Inf.
package stats

// SignificanceLevel is the alpha applied to every IsSignificant flag.
const SignificanceLevel = 0.05

// Interval is a two-sided confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"`
}

// ContingencyTable cross-tabulates groups (rows) against outcome categories
// (columns). Cells are non-negative counts.
type ContingencyTable struct {
	Cells [][]float64
}

// validate checks shape and counts, and rejects tables whose marginals make
// expected counts undefined.
func (t ContingencyTable) validate() error {
	if len(t.Cells) < 2 {
		return ErrTooFewGroups
	}
	cols := len(t.Cells[0])
	if cols < 2 {
		return ErrTooFewGroups
	}
	for _, row := range t.Cells {
		if len(row) != cols {
			return ErrDegenerateTable
		}
		for _, c := range row {
			if c < 0 {
				return ErrNegativeCount
			}
		}
	}
	total := t.Total()
	if total == 0 {
		return ErrDegenerateTable
	}
	for i := range t.Cells {
		if t.RowTotal(i) == 0 {
			return ErrDegenerateTable
		}
	}
	for j := 0; j < cols; j++ {
		if t.ColTotal(j) == 0 {
			return ErrDegenerateTable
		}
	}
	return nil
}

// RowTotal returns the marginal sum of row i.
func (t ContingencyTable) RowTotal(i int) float64 {
	var sum float64
	for _, c := range t.Cells[i] {
		sum += c
	}
	return sum
}

// ColTotal returns the marginal sum of column j.
func (t ContingencyTable) ColTotal(j int) float64 {
	var sum float64
	for i := range t.Cells {
		sum += t.Cells[i][j]
	}
	return sum
}

// Total returns the grand total of all cells.
func (t ContingencyTable) Total() float64 {
	var sum float64
	for i := range t.Cells {
		sum += t.RowTotal(i)
	}
	return sum
}
