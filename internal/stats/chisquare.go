package stats

// ChiSquareResult reports a Pearson chi-square test of independence.
type ChiSquareResult struct {
	Statistic        float64 `json:"statistic"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	IsSignificant    bool    `json:"is_significant"`
	// LowExpectedCells counts cells whose expected count is below 5. When
	// non-zero the chi-square approximation is unreliable and callers should
	// prefer Fisher's exact test (2x2) or report reduced confidence.
	LowExpectedCells int `json:"low_expected_cells"`
}

// ChiSquareTest runs Pearson's chi-square independence test on a contingency
// table of at least 2 rows and 2 columns. Expected counts derive from the
// row/column marginals.
func ChiSquareTest(table ContingencyTable) (*ChiSquareResult, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}

	rows := len(table.Cells)
	cols := len(table.Cells[0])
	total := table.Total()

	rowTotals := make([]float64, rows)
	for i := range table.Cells {
		rowTotals[i] = table.RowTotal(i)
	}
	colTotals := make([]float64, cols)
	for j := 0; j < cols; j++ {
		colTotals[j] = table.ColTotal(j)
	}

	var statistic float64
	lowExpected := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := rowTotals[i] * colTotals[j] / total
			if expected < 5 {
				lowExpected++
			}
			observed := table.Cells[i][j]
			diff := observed - expected
			statistic += diff * diff / expected
		}
	}

	df := (rows - 1) * (cols - 1)
	pValue := ChiSquareTail(statistic, df)

	return &ChiSquareResult{
		Statistic:        statistic,
		DegreesOfFreedom: df,
		PValue:           pValue,
		IsSignificant:    pValue < SignificanceLevel,
		LowExpectedCells: lowExpected,
	}, nil
}
