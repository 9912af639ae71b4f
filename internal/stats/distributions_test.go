package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, NormalCDF(0), 1e-12)
	assert.InDelta(t, 0.9750021048517795, NormalCDF(1.959963984540054), 1e-9)
	assert.InDelta(t, 0.0249978951482205, NormalCDF(-1.959963984540054), 1e-9)
	assert.InDelta(t, 0.8413447460685429, NormalCDF(1), 1e-9)
}

func TestChiSquareTail(t *testing.T) {
	t.Run("matches tabulated critical values", func(t *testing.T) {
		// 95th percentile of chi-square: 3.841 (df=1), 5.991 (df=2),
		// 9.488 (df=4).
		assert.InDelta(t, 0.05, ChiSquareTail(3.841458820694124, 1), 1e-6)
		assert.InDelta(t, 0.05, ChiSquareTail(5.991464547107979, 2), 1e-6)
		assert.InDelta(t, 0.05, ChiSquareTail(9.487729036781154, 4), 1e-6)
	})

	t.Run("monotone decreasing in x", func(t *testing.T) {
		prev := 1.0
		for x := 0.5; x < 30; x += 0.5 {
			p := ChiSquareTail(x, 3)
			assert.Less(t, p, prev)
			prev = p
		}
	})

	t.Run("boundary values", func(t *testing.T) {
		assert.Equal(t, 1.0, ChiSquareTail(0, 1))
		assert.Equal(t, 1.0, ChiSquareTail(-1, 1))
		assert.InDelta(t, 0, ChiSquareTail(1000, 1), 1e-12)
	})
}

func TestStudentTTail(t *testing.T) {
	t.Run("matches tabulated two-tailed values", func(t *testing.T) {
		// t=2.228 at df=10 and t=2.086 at df=20 are the 0.05 two-tailed
		// critical points.
		assert.InDelta(t, 0.05, StudentTTail(2.2281388519649385, 10), 1e-6)
		assert.InDelta(t, 0.05, StudentTTail(2.0859634472658364, 20), 1e-6)
	})

	t.Run("symmetric in t", func(t *testing.T) {
		assert.InDelta(t, StudentTTail(1.7, 12), StudentTTail(-1.7, 12), 1e-12)
	})

	t.Run("t of zero gives p of one", func(t *testing.T) {
		assert.InDelta(t, 1.0, StudentTTail(0, 5), 1e-12)
	})
}

func TestTCritical(t *testing.T) {
	assert.InDelta(t, 2.2281388519649385, TCritical(0.95, 10), 1e-6)
	assert.InDelta(t, 2.0859634472658364, TCritical(0.95, 20), 1e-6)
	// Approaches the normal quantile for large df.
	assert.InDelta(t, 1.959963984540054, TCritical(0.95, 1e6), 1e-3)
}
