package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelchTTest(t *testing.T) {
	t.Run("equal-variance shifted samples", func(t *testing.T) {
		a := []float64{1, 2, 3, 4, 5}
		b := []float64{2, 3, 4, 5, 6}
		result, err := WelchTTest(a, b)
		require.NoError(t, err)

		// Both variances are 2.5 over n=5, so se=1 and t=-1; the
		// Welch-Satterthwaite df collapses to 8.
		assert.InDelta(t, -1.0, result.Statistic, 1e-9)
		assert.InDelta(t, 8.0, result.DegreesOfFreedom, 1e-9)
		assert.InDelta(t, 0.3466, result.PValue, 1e-3)
		assert.False(t, result.IsSignificant)

		// CI for the mean difference: -1 +/- t(0.975, 8) = -1 +/- 2.306.
		assert.InDelta(t, -3.306, result.ConfidenceInterval.Lower, 1e-3)
		assert.InDelta(t, 1.306, result.ConfidenceInterval.Upper, 1e-3)
	})

	t.Run("clear separation is significant", func(t *testing.T) {
		a := []float64{10.1, 10.3, 9.9, 10.2, 10.0, 10.1}
		b := []float64{8.1, 8.0, 8.3, 7.9, 8.2, 8.1}
		result, err := WelchTTest(a, b)
		require.NoError(t, err)
		assert.True(t, result.IsSignificant)
		assert.Greater(t, result.ConfidenceInterval.Lower, 0.0)
	})

	t.Run("identical samples have t of zero", func(t *testing.T) {
		a := []float64{1, 2, 3}
		b := []float64{1, 2, 3}
		result, err := WelchTTest(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 0, result.Statistic, 1e-12)
		assert.InDelta(t, 1.0, result.PValue, 1e-9)
	})

	t.Run("one constant sample still works", func(t *testing.T) {
		a := []float64{5, 5, 5, 5}
		b := []float64{1, 2, 3, 4}
		result, err := WelchTTest(a, b)
		require.NoError(t, err)
		assert.Greater(t, result.Statistic, 0.0)
	})

	t.Run("sample below two observations is rejected", func(t *testing.T) {
		_, err := WelchTTest([]float64{1}, []float64{1, 2, 3})
		assert.ErrorIs(t, err, ErrInsufficientSample)

		_, err = WelchTTest([]float64{1, 2, 3}, []float64{})
		assert.ErrorIs(t, err, ErrInsufficientSample)
	})

	t.Run("both samples constant is rejected", func(t *testing.T) {
		_, err := WelchTTest([]float64{2, 2, 2}, []float64{3, 3, 3})
		assert.ErrorIs(t, err, ErrZeroVariance)
	})
}
