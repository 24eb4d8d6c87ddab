// Package forecaster drives expenditure forecasting for a national aggregate and the leading
// regions. The national series must succeed for a run to succeed while every regional failure
// is recorded and skipped.
package forecaster

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/forecast"
	"github.com/aouyang1/go-demoforecast/stats"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"go.uber.org/zap"
)

// skip kinds recorded for regions that could not be forecast
const (
	KindInsufficientData  = "insufficient_data"
	KindNoConvergentModel = "no_convergent_model"
	KindNumericEvaluation = "numeric_evaluation"
	KindInvalidSeries     = "invalid_series"
	KindOther             = "error"
)

var ErrEmptyInput = errors.New("no observations provided")

// Forecaster runs the national and regional forecasting stages over a table of observations
type Forecaster struct {
	opt      *Options
	stage    Stage
	preparer *timedataset.Preparer
	selector *arima.Selector
	logger   *zap.Logger
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate options, %w", err)
	}

	selector, err := arima.NewSelector(&opt.Search)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize model selector, %w", err)
	}

	return &Forecaster{
		opt:   opt,
		stage: Idle,
		preparer: timedataset.NewPreparer(&timedataset.PrepareOptions{
			Agg:        opt.Agg,
			MinPeriods: opt.MinPeriods,
		}),
		selector: selector,
		logger:   opt.Logger,
	}, nil
}

// Stage returns the stage the forecaster is in or stopped at
func (f *Forecaster) Stage() Stage {
	return f.stage
}

// Run forecasts the national aggregate of all rows followed by each of the top regions
func (f *Forecaster) Run(rows []timedataset.Observation) (*Results, error) {
	f.stage = Idle
	if len(rows) == 0 {
		return nil, f.fail(PreparingNational, f.opt.NationalEntity, ErrEmptyInput)
	}

	national, err := f.runNational(rows)
	if err != nil {
		return nil, err
	}

	res := &Results{
		National: national,
	}

	regions := TopRegions(rows, f.opt.TopN)
	f.logger.Info("forecasting top regions",
		zap.Int("requested", f.opt.TopN),
		zap.Strings("regions", regions),
	)
	for _, region := range regions {
		f.stage = PreparingRegional
		er, err := f.runRegion(rows, region)
		if err != nil {
			skip := newSkipped(region, err)
			f.logger.Warn("skipping region",
				zap.String("region", region),
				zap.String("kind", skip.Kind),
				zap.String("reason", skip.Reason),
			)
			res.Skipped = append(res.Skipped, skip)
			continue
		}
		res.Regional = append(res.Regional, er)
	}

	if len(res.Regional) == 0 && len(regions) > 0 {
		f.logger.Warn("no regional forecasts succeeded", zap.Int("skipped", len(res.Skipped)))
	}

	f.stage = Done
	res.Success = true
	return res, nil
}

func (f *Forecaster) fail(stage Stage, entity string, err error) error {
	f.stage = Failed
	f.logger.Error("forecasting failed",
		zap.Stringer("stage", stage),
		zap.String("entity", entity),
		zap.Error(err),
	)
	return &StageError{Stage: stage, Entity: entity, Err: err}
}

func (f *Forecaster) runNational(rows []timedataset.Observation) (*EntityResult, error) {
	entity := f.opt.NationalEntity

	f.stage = PreparingNational
	series, err := f.preparer.PrepareNational(rows, entity)
	if err != nil {
		return nil, f.fail(PreparingNational, entity, err)
	}

	er := &EntityResult{Series: series}

	adf, err := stats.ADF(series.Values)
	if err != nil {
		er.StationarityErr = err
		f.logger.Warn("stationarity test failed",
			zap.String("entity", entity),
			zap.Error(err),
		)
	} else {
		er.Stationarity = adf
		f.logger.Info("stationarity test",
			zap.String("entity", entity),
			zap.Float64("statistic", adf.Statistic),
			zap.Float64("p_value", adf.PValue),
			zap.Bool("stationary", adf.IsStationary),
		)
	}

	f.stage = FittingNational
	search, err := f.selector.Select(series.Values)
	if err != nil {
		return nil, f.fail(FittingNational, entity, err)
	}
	er.Search = search

	fc, err := forecast.New(series, search.Best, &forecast.Options{Horizon: f.opt.Horizon})
	if err != nil {
		return nil, f.fail(FittingNational, entity, err)
	}
	scores, err := fc.Evaluate()
	if err != nil {
		return nil, f.fail(FittingNational, entity, err)
	}
	er.Model = forecast.NewModel(entity, search, scores, er.Stationarity)

	f.stage = ForecastingNational
	pred, err := fc.Predict()
	if err != nil {
		return nil, f.fail(ForecastingNational, entity, err)
	}
	er.Forecast = pred
	er.fitted = fc.FittedValues()

	f.logger.Info("selected model",
		zap.String("entity", entity),
		zap.Stringer("order", search.Best.Order),
		zap.String("criterion", string(search.Criterion)),
		zap.Float64("value", search.BestScore()),
		zap.Float64("rmse", scores.RMSE),
		zap.Float64("mae", scores.MAE),
		zap.Float64("mape", scores.MAPE),
		zap.Float64("growth_pct", pred.GrowthPct),
	)
	return er, nil
}

func (f *Forecaster) runRegion(rows []timedataset.Observation, region string) (*EntityResult, error) {
	series, err := f.preparer.Prepare(rows, region)
	if err != nil {
		return nil, err
	}

	search, err := f.selector.Select(series.Values)
	if err != nil {
		return nil, err
	}

	fc, err := forecast.New(series, search.Best, &forecast.Options{Horizon: f.opt.Horizon})
	if err != nil {
		return nil, err
	}
	pred, err := fc.Predict()
	if err != nil {
		return nil, err
	}

	// accuracy is diagnostic for regions so a zero actual only drops the scores
	scores, err := fc.Evaluate()
	if err != nil {
		f.logger.Warn("unable to evaluate region",
			zap.String("region", region),
			zap.Error(err),
		)
		scores = nil
	}

	f.logger.Debug("selected model",
		zap.String("region", region),
		zap.Stringer("order", search.Best.Order),
		zap.Float64("value", search.BestScore()),
	)

	return &EntityResult{
		Series:   series,
		Search:   search,
		Model:    forecast.NewModel(region, search, scores, nil),
		Forecast: pred,
		fitted:   fc.FittedValues(),
	}, nil
}

func newSkipped(region string, err error) Skipped {
	var (
		insufficient *timedataset.InsufficientDataError
		noModel      *arima.NoConvergentModelError
		numeric      *forecast.NumericEvaluationError
	)

	kind := KindOther
	switch {
	case errors.As(err, &insufficient):
		kind = KindInsufficientData
	case errors.As(err, &noModel):
		kind = KindNoConvergentModel
	case errors.As(err, &numeric):
		kind = KindNumericEvaluation
	case errors.Is(err, timedataset.ErrNoTrainingData),
		errors.Is(err, timedataset.ErrNaNValue),
		errors.Is(err, timedataset.ErrInfValue),
		errors.Is(err, timedataset.ErrNonMontonic):
		kind = KindInvalidSeries
	}
	return Skipped{
		Region: region,
		Kind:   kind,
		Reason: err.Error(),
		Err:    err,
	}
}

// TopRegions ranks entities by their value in the latest period of rows, largest first with ties
// broken by name, and returns up to k of them. Entities without a value in the latest period are
// not ranked.
func TopRegions(rows []timedataset.Observation, k int) []string {
	if k <= 0 {
		return nil
	}
	latest, err := timedataset.LatestPeriod(rows)
	if err != nil {
		return nil
	}
	values := timedataset.CrossSection(rows, latest)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := values[names[i]], values[names[j]]
		if vi != vj {
			return vi > vj
		}
		return names[i] < names[j]
	})

	if len(names) > k {
		names = names[:k]
	}
	return names
}
