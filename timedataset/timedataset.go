package timedataset

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("period is not monotonic")
	ErrDatasetLenMismatch = errors.New("periods have a different length than observations")
	ErrNaNValue           = errors.New("observation is not a number")
	ErrInfValue           = errors.New("observation is infinite")
)

// TimeSeries represents a yearly series for one entity storing a slice of periods and values.
// Both must be of the same length and periods must be strictly increasing.
type TimeSeries struct {
	Entity  string
	Periods []int
	Values  []float64
}

// NewTimeSeries returns an instance of a TimeSeries given a period and value slice.
func NewTimeSeries(entity string, periods []int, values []float64) (*TimeSeries, error) {
	if len(values) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(periods) != len(values) {
		return nil, fmt.Errorf(
			"periods has length of %d, but values has a length of %d, %w",
			len(periods), len(values), ErrDatasetLenMismatch,
		)
	}

	for i := 0; i < len(periods); i++ {
		if math.IsNaN(values[i]) {
			return nil, fmt.Errorf("at period %d, %w", periods[i], ErrNaNValue)
		}
		if math.IsInf(values[i], 0) {
			return nil, fmt.Errorf("at period %d, %w", periods[i], ErrInfValue)
		}
		if i > 0 && periods[i] <= periods[i-1] {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	p := make([]int, len(periods))
	v := make([]float64, len(values))
	copy(p, periods)
	copy(v, values)
	return &TimeSeries{
		Entity:  entity,
		Periods: p,
		Values:  v,
	}, nil
}

func (ts *TimeSeries) Copy() *TimeSeries {
	if ts == nil {
		return nil
	}
	p := make([]int, len(ts.Periods))
	v := make([]float64, len(ts.Values))
	copy(p, ts.Periods)
	copy(v, ts.Values)
	return &TimeSeries{
		Entity:  ts.Entity,
		Periods: p,
		Values:  v,
	}
}

// Len returns the number of observed periods
func (ts *TimeSeries) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.Values)
}

// LastPeriod returns the most recent observed period
func (ts *TimeSeries) LastPeriod() int {
	if ts.Len() == 0 {
		return 0
	}
	return ts.Periods[len(ts.Periods)-1]
}

// LastValue returns the most recent observed value
func (ts *TimeSeries) LastValue() float64 {
	if ts.Len() == 0 {
		return math.NaN()
	}
	return ts.Values[len(ts.Values)-1]
}

// FuturePeriods returns the next h periods continuing from the last observed period
func (ts *TimeSeries) FuturePeriods(h int) []int {
	last := ts.LastPeriod()
	out := make([]int, 0, h)
	for i := 1; i <= h; i++ {
		out = append(out, last+i)
	}
	return out
}
