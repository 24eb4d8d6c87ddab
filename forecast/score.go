package forecast

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrResLenMismatch    = errors.New("predicted and actual have different lengths")
	ErrNoValidPairs      = errors.New("no overlapping predicted and actual values")
	ErrNumericEvaluation = errors.New("numeric evaluation error")
)

// NumericEvaluationError reports a metric that is undefined for the given values
type NumericEvaluationError struct {
	Metric string
	Index  int
	Reason string
}

func (e *NumericEvaluationError) Error() string {
	return fmt.Sprintf("%s: %s undefined at index %d, %s", ErrNumericEvaluation, e.Metric, e.Index, e.Reason)
}

func (e *NumericEvaluationError) Unwrap() error {
	return ErrNumericEvaluation
}

// Scores tracks the in-sample fit scores
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	RMSE float64 `json:"root_mean_squared_error"`
	MAE  float64 `json:"mean_absolute_error"`
	MAPE float64 `json:"mean_absolute_percent_error"`
}

// NewScores calculates the fit scores given the predicted and actual input slice values. Pairs
// where either side is NaN are outside the overlapping range and skipped.
func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute percent error, %w", err)
	}

	return &Scores{
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAE:  mae,
		MAPE: mape,
	}, nil
}

// overlap calls fn for every index where both predicted and actual are numbers and returns the
// number of such pairs
func overlap(predicted, actual []float64, fn func(i int, p, a float64) error) (int, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	n := 0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		if err := fn(i, predicted[i], actual[i]); err != nil {
			return 0, err
		}
		n++
	}
	if n == 0 {
		return 0, ErrNoValidPairs
	}
	return n, nil
}

// MSE computes the mean squared error, mean((y-yhat)^2).
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	mse := 0.0
	n, err := overlap(predicted, actual, func(_ int, p, a float64) error {
		mse += (a - p) * (a - p)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return mse / float64(n), nil
}

// MAE computes the mean absolute error, mean(abs(y-yhat)).
func MAE(predicted, actual []float64) (float64, error) {
	mae := 0.0
	n, err := overlap(predicted, actual, func(_ int, p, a float64) error {
		mae += math.Abs(a - p)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return mae / float64(n), nil
}

// MAPE calculates the mean absolute percent error, mean(abs((y-yhat)/y)) * 100. An actual value of
// exactly zero makes the metric undefined and is returned as a NumericEvaluationError.
func MAPE(predicted, actual []float64) (float64, error) {
	mape := 0.0
	n, err := overlap(predicted, actual, func(i int, p, a float64) error {
		if a == 0 {
			return &NumericEvaluationError{Metric: "MAPE", Index: i, Reason: "actual value is zero"}
		}
		mape += math.Abs((a - p) / a)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return mape / float64(n) * 100.0, nil
}
