package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultHorizon = 5

	// ConfidenceLevel of the two sided forecast interval
	ConfidenceLevel = 0.95
)

var (
	ErrUninitializedForecast = errors.New("uninitialized forecast")
	ErrNonPositiveHorizon    = errors.New("horizon must be positive")
	ErrNoSeries              = errors.New("no series to forecast")
	ErrNoModel               = errors.New("no fitted model")
	ErrSeriesMismatch        = errors.New("model was fit to a different series")
)

// Options configures forecasting
type Options struct {
	Horizon int `json:"horizon"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Horizon: DefaultHorizon,
	}
}

func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.Horizon <= 0 {
		return nil, fmt.Errorf("horizon %d, %w", o.Horizon, ErrNonPositiveHorizon)
	}
	return o, nil
}

// Row is one forecast period with a symmetric normal interval
type Row struct {
	Period   int     `json:"year"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower_bound"`
	Upper    float64 `json:"upper_bound"`
}

// Result is the forecast of a single entity for the periods after its last observation
type Result struct {
	Entity     string  `json:"entity"`
	Confidence float64 `json:"confidence"`
	Rows       []Row   `json:"rows"`

	// GrowthPct is the percent change from the last observed value to the final forecast
	GrowthPct float64 `json:"growth_pct"`
}

// Periods returns the forecast periods in order
func (r *Result) Periods() []int {
	out := make([]int, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Period)
	}
	return out
}

// Forecast pairs a series with the model selected for it
type Forecast struct {
	opt    *Options
	series *timedataset.TimeSeries
	model  *arima.Model
	scores *Scores
}

// New creates a forecast for the series using the fitted model. If no options are provided a
// default is used.
func New(series *timedataset.TimeSeries, model *arima.Model, opt *Options) (*Forecast, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if series == nil || series.Len() == 0 {
		return nil, ErrNoSeries
	}
	if model == nil {
		return nil, ErrNoModel
	}
	if len(model.Series()) != series.Len() {
		return nil, fmt.Errorf("model has %d observations and series has %d, %w",
			len(model.Series()), series.Len(), ErrSeriesMismatch)
	}
	return &Forecast{
		opt:    opt,
		series: series.Copy(),
		model:  model,
	}, nil
}

// Predict produces the configured number of periods beyond the last observation with point
// forecasts and 95% intervals
func (f *Forecast) Predict() (*Result, error) {
	if f == nil || f.model == nil {
		return nil, ErrUninitializedForecast
	}

	h := f.opt.Horizon
	point, se, err := f.model.Forecast(h)
	if err != nil {
		return nil, fmt.Errorf("unable to forecast %s, %w", f.series.Entity, err)
	}

	z := distuv.UnitNormal.Quantile(1 - (1-ConfidenceLevel)/2)
	periods := f.series.FuturePeriods(h)
	rows := make([]Row, 0, h)
	for i := 0; i < h; i++ {
		half := z * se[i]
		rows = append(rows, Row{
			Period:   periods[i],
			Forecast: point[i],
			Lower:    point[i] - half,
			Upper:    point[i] + half,
		})
	}

	growth := math.NaN()
	if last := f.series.LastValue(); last != 0 {
		growth = (point[h-1] - last) / last * 100.0
	}

	return &Result{
		Entity:     f.series.Entity,
		Confidence: ConfidenceLevel,
		Rows:       rows,
		GrowthPct:  growth,
	}, nil
}

// Evaluate computes in-sample accuracy of the one step ahead fitted values against the
// observations
func (f *Forecast) Evaluate() (*Scores, error) {
	if f == nil || f.model == nil {
		return nil, ErrUninitializedForecast
	}
	if f.scores != nil {
		s := *f.scores
		return &s, nil
	}
	scores, err := NewScores(f.model.FittedValues(), f.series.Values)
	if err != nil {
		return nil, fmt.Errorf("unable to evaluate %s, %w", f.series.Entity, err)
	}
	f.scores = scores
	s := *scores
	return &s, nil
}

// Series returns a copy of the forecast series
func (f *Forecast) Series() *timedataset.TimeSeries {
	return f.series.Copy()
}

// FittedValues returns the in-sample one step ahead predictions
func (f *Forecast) FittedValues() []float64 {
	return f.model.FittedValues()
}
