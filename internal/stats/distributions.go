package stats

import "math"

// Distribution support functions. The chi-square and Student-t tails are
// computed from the regularized incomplete gamma and beta functions rather
// than lookup tables, so p-values are smooth in their inputs.

const (
	// maxIterations bounds the series/continued-fraction loops. Both
	// converge in well under 100 iterations for every argument this
	// package produces.
	maxIterations = 200
	convergeEps   = 3e-14
)

// NormalCDF returns P(Z <= x) for a standard normal Z.
//
// Built on math.Erfc, whose absolute error is below 1e-15 over the full
// range, so the CDF is accurate far beyond what threshold comparisons need.
func NormalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// ChiSquareTail returns P(X >= x) for a chi-square variable with df degrees
// of freedom, via the regularized upper incomplete gamma function Q(df/2, x/2).
func ChiSquareTail(x float64, df int) float64 {
	if x <= 0 {
		return 1
	}
	return regGammaQ(float64(df)/2, x/2)
}

// StudentTTail returns the two-tailed p-value P(|T| >= |t|) for a Student-t
// variable with df degrees of freedom, via the regularized incomplete beta
// function I_x(df/2, 1/2) at x = df/(df+t^2).
func StudentTTail(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	x := df / (df + t*t)
	return regIncBeta(x, df/2, 0.5)
}

// TCritical returns the critical value t* with P(|T| <= t*) = confidence for
// df degrees of freedom, found by bisection on the two-tailed CDF. The result
// is deterministic and accurate to ~1e-10.
func TCritical(confidence, df float64) float64 {
	alpha := 1 - confidence
	lo, hi := 0.0, 1000.0
	for i := 0; i < maxIterations; i++ {
		mid := (lo + hi) / 2
		if StudentTTail(mid, df) > alpha {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-10 {
			break
		}
	}
	return (lo + hi) / 2
}

// regGammaQ computes the regularized upper incomplete gamma function
// Q(a, x) = Γ(a, x)/Γ(a), choosing between the series for P and the
// continued fraction for Q on the usual x < a+1 boundary.
func regGammaQ(a, x float64) float64 {
	if x < 0 || a <= 0 {
		return 1
	}
	if x == 0 {
		return 1
	}
	if x < a+1 {
		return 1 - gammaSeriesP(a, x)
	}
	return gammaContinuedQ(a, x)
}

// gammaSeriesP evaluates P(a, x) by its power series.
func gammaSeriesP(a, x float64) float64 {
	lg, _ := math.Lgamma(a)
	ap := a
	sum := 1 / a
	del := sum
	for i := 0; i < maxIterations; i++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*convergeEps {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x)-lg)
}

// gammaContinuedQ evaluates Q(a, x) by its continued fraction
// (modified Lentz's method).
func gammaContinuedQ(a, x float64) float64 {
	const tiny = 1e-300
	lg, _ := math.Lgamma(a)
	b := x + 1 - a
	c := 1 / tiny
	d := 1 / b
	h := d
	for i := 1; i <= maxIterations; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = b + an/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < convergeEps {
			break
		}
	}
	return math.Exp(-x+a*math.Log(x)-lg) * h
}

// regIncBeta computes the regularized incomplete beta function I_x(a, b)
// using the continued fraction with the standard symmetry split.
func regIncBeta(x, a, b float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lga, _ := math.Lgamma(a)
	lgb, _ := math.Lgamma(b)
	lgab, _ := math.Lgamma(a + b)
	front := math.Exp(lgab - lga - lgb + a*math.Log(x) + b*math.Log(1-x))
	if x < (a+1)/(a+b+2) {
		return front * betaContinued(x, a, b) / a
	}
	return 1 - front*betaContinued(1-x, b, a)/b
}

// betaContinued evaluates the incomplete beta continued fraction
// (modified Lentz's method).
func betaContinued(x, a, b float64) float64 {
	const tiny = 1e-300
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d
	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		aa := fm * (b - fm) * x / ((qam + 2*fm) * (a + 2*fm))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c
		aa = -(a + fm) * (qab + fm) * x / ((a + 2*fm) * (qap + 2*fm))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < convergeEps {
			break
		}
	}
	return h
}
