package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChiSquareTest(t *testing.T) {
	t.Run("skewed selection is significant", func(t *testing.T) {
		// Group one selects 50/100, group two selects 10/100.
		table := ContingencyTable{Cells: [][]float64{
			{50, 50},
			{10, 90},
		}}
		result, err := ChiSquareTest(table)
		require.NoError(t, err)

		// Expected counts are 30/70 per row, so chi-square is
		// 2*(400/30 + 400/70) = 38.095...
		assert.InDelta(t, 38.095238, result.Statistic, 1e-4)
		assert.Equal(t, 1, result.DegreesOfFreedom)
		assert.True(t, result.IsSignificant)
		assert.Less(t, result.PValue, 0.05)
		assert.Zero(t, result.LowExpectedCells)
	})

	t.Run("balanced table is not significant", func(t *testing.T) {
		table := ContingencyTable{Cells: [][]float64{
			{50, 50},
			{50, 50},
		}}
		result, err := ChiSquareTest(table)
		require.NoError(t, err)
		assert.InDelta(t, 0, result.Statistic, 1e-12)
		assert.False(t, result.IsSignificant)
		assert.InDelta(t, 1.0, result.PValue, 1e-9)
	})

	t.Run("flags low expected cells", func(t *testing.T) {
		table := ContingencyTable{Cells: [][]float64{
			{2, 8},
			{3, 7},
		}}
		result, err := ChiSquareTest(table)
		require.NoError(t, err)
		// Column one marginal is 5 across 20 subjects: both expected
		// counts in that column are 2.5.
		assert.Equal(t, 2, result.LowExpectedCells)
	})

	t.Run("three by two table", func(t *testing.T) {
		table := ContingencyTable{Cells: [][]float64{
			{30, 70},
			{25, 75},
			{35, 65},
		}}
		result, err := ChiSquareTest(table)
		require.NoError(t, err)
		assert.Equal(t, 2, result.DegreesOfFreedom)
		assert.False(t, result.IsSignificant)
	})

	t.Run("single row is rejected", func(t *testing.T) {
		_, err := ChiSquareTest(ContingencyTable{Cells: [][]float64{{10, 20}}})
		assert.ErrorIs(t, err, ErrTooFewGroups)
	})

	t.Run("single column is rejected", func(t *testing.T) {
		_, err := ChiSquareTest(ContingencyTable{Cells: [][]float64{{10}, {20}}})
		assert.ErrorIs(t, err, ErrTooFewGroups)
	})

	t.Run("all-zero table is rejected", func(t *testing.T) {
		_, err := ChiSquareTest(ContingencyTable{Cells: [][]float64{{0, 0}, {0, 0}}})
		assert.ErrorIs(t, err, ErrDegenerateTable)
	})

	t.Run("zero column marginal is rejected", func(t *testing.T) {
		_, err := ChiSquareTest(ContingencyTable{Cells: [][]float64{{10, 0}, {20, 0}}})
		assert.ErrorIs(t, err, ErrDegenerateTable)
	})

	t.Run("negative count is rejected", func(t *testing.T) {
		_, err := ChiSquareTest(ContingencyTable{Cells: [][]float64{{10, -1}, {20, 5}}})
		assert.ErrorIs(t, err, ErrNegativeCount)
	})
}
