package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyArray  = errors.New("empty array")
	ErrColMismatch = errors.New("column size mismatch")
	ErrNegativeLag = errors.New("negative lag not allowed")
	ErrLagTooLarge = errors.New("lag exceeds series length")
)

// NewDenseFromArray builds a row ordered dense matrix from a slice of rows. Every row must
// have the same number of columns.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, ErrEmptyArray
	}

	n := len(x[0])
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
	}
	if n == 0 {
		return nil, ErrEmptyArray
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// Lagmat returns the lagged values of x where row i holds x[t-1], x[t-2], ..., x[t-maxlag]
// for t = maxlag + i. Rows without a complete set of lags are dropped.
func Lagmat(x []float64, maxlag int) ([][]float64, error) {
	if maxlag < 0 {
		return nil, ErrNegativeLag
	}
	if maxlag >= len(x) {
		return nil, fmt.Errorf("lag %d with %d observations, %w", maxlag, len(x), ErrLagTooLarge)
	}
	out := make([][]float64, 0, len(x)-maxlag)
	for t := maxlag; t < len(x); t++ {
		row := make([]float64, maxlag)
		for k := 1; k <= maxlag; k++ {
			row[k-1] = x[t-k]
		}
		out = append(out, row)
	}
	return out, nil
}

// Diff applies first differencing d times. The output has len(x)-d values, or none if d
// consumes the whole series.
func Diff(x []float64, d int) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for i := 0; i < d; i++ {
		if len(out) < 2 {
			return []float64{}
		}
		next := make([]float64, len(out)-1)
		for j := 1; j < len(out); j++ {
			next[j-1] = out[j] - out[j-1]
		}
		out = next
	}
	return out
}
