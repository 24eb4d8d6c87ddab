package stats

import (
	"errors"
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

var ErrEmptySample = errors.New("empty sample")

// Summary holds descriptive statistics of a sample. StdDev is the sample standard deviation and is
// NaN when fewer than two values are present.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
}

// Describe computes count, mean, interpolated median and sample standard deviation of x
func Describe(x []float64) (Summary, error) {
	if len(x) == 0 {
		return Summary{}, ErrEmptySample
	}
	median, err := Median(x)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Count:  len(x),
		Mean:   stat.Mean(x, nil),
		Median: median,
		StdDev: math.NaN(),
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}
	return s, nil
}

// Median returns the middle value of x, averaging the two middle values for even lengths
func Median(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptySample
	}
	return mstats.Median(x)
}

// Mean returns the arithmetic mean of x
func Mean(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptySample
	}
	return mstats.Mean(x)
}
