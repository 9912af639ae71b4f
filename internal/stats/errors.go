package stats

import "errors"

// Named errors for degenerate inputs. Callers wrap these with domain error
// codes; nothing in this package ever returns NaN or Inf instead of an error.
var (
	// ErrTooFewGroups: a contingency test needs at least 2 rows and 2 columns.
	ErrTooFewGroups = errors.New("stats: contingency table needs at least 2 rows and 2 columns")
	// ErrDegenerateTable: a zero marginal (empty row/column) or an all-zero
	// table leaves the expected counts undefined.
	ErrDegenerateTable = errors.New("stats: degenerate contingency table")
	// ErrNegativeCount: cell counts must be non-negative.
	ErrNegativeCount = errors.New("stats: negative cell count")
	// ErrInsufficientSample: each t-test sample needs at least 2 observations.
	ErrInsufficientSample = errors.New("stats: insufficient sample size")
	// ErrZeroVariance: both samples constant, the t statistic is undefined.
	ErrZeroVariance = errors.New("stats: zero variance in both samples")
)
