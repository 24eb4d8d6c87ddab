package forecaster

import "fmt"

// Stage is the position of a Forecaster in a run
type Stage int

const (
	Idle Stage = iota
	PreparingNational
	FittingNational
	ForecastingNational
	PreparingRegional
	Done
	Failed
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case PreparingNational:
		return "preparing_national"
	case FittingNational:
		return "fitting_national"
	case ForecastingNational:
		return "forecasting_national"
	case PreparingRegional:
		return "preparing_regional"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError identifies the stage a run failed in
type StageError struct {
	Stage  Stage
	Entity string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed for %s, %v", e.Stage, e.Entity, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
