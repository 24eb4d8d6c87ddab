package arima

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeOrder         = errors.New("negative model order")
	ErrEmptySeries           = errors.New("empty series")
	ErrInvalidSeries         = errors.New("series contains non-finite values")
	ErrTooFewObservations    = errors.New("too few observations for model order")
	ErrDegenerateSeries      = errors.New("differenced series is identically zero")
	ErrNonFiniteLikelihood   = errors.New("likelihood is not finite")
	ErrNonPositiveHorizon    = errors.New("horizon must be positive")
	ErrNoConvergentModel     = errors.New("no candidate model could be fit")
	ErrUnknownCriterion      = errors.New("unknown information criterion")
	ErrInvalidInitialState   = errors.New("unable to initialize state covariance")
	ErrNonPositiveInnovation = errors.New("innovation variance is not positive")
)

// FitError reports why a single order could not be fit
type FitError struct {
	Order  Order
	Reason error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("unable to fit arima%s, %s", e.Order, e.Reason)
}

func (e *FitError) Unwrap() error {
	return e.Reason
}

// NoConvergentModelError reports a search where every candidate order failed to fit
type NoConvergentModelError struct {
	Tested  int
	LastErr error
}

func (e *NoConvergentModelError) Error() string {
	return fmt.Sprintf("%s across %d candidates, last error: %v", ErrNoConvergentModel, e.Tested, e.LastErr)
}

func (e *NoConvergentModelError) Unwrap() error {
	return ErrNoConvergentModel
}
