package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/forecast"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"go.uber.org/zap"
)

const (
	DefaultTopN           = 10
	DefaultNationalEntity = "Indonesia"
)

var (
	ErrNegativeTopN       = errors.New("top n regions must not be negative")
	ErrInvalidMinPeriods  = errors.New("minimum periods must be at least 1")
	ErrEmptyNationalLabel = errors.New("national entity label is empty")
)

// Options configures a forecasting run. The value is copied on New so later changes by the caller
// do not affect a running Forecaster.
type Options struct {
	// Horizon is the number of periods forecast beyond the last observation
	Horizon int

	Search arima.SearchOptions

	// TopN is the number of regions forecast, ranked by their value in the latest period
	TopN int

	// MinPeriods is the fewest periods a series needs to be modeled
	MinPeriods int

	// Agg collapses duplicate rows for the same entity and period
	Agg timedataset.AggRule

	// NationalEntity labels the series aggregated over all regions
	NationalEntity string

	Logger *zap.Logger
}

// NewDefaultOptions returns a 5 period horizon, a (3,2,3) AIC search and the top 10 regions
func NewDefaultOptions() *Options {
	return &Options{
		Horizon:        forecast.DefaultHorizon,
		Search:         *arima.NewDefaultSearchOptions(),
		TopN:           DefaultTopN,
		MinPeriods:     timedataset.MinPeriods,
		Agg:            timedataset.AggMean,
		NationalEntity: DefaultNationalEntity,
	}
}

// Validate returns a validated copy of the options with defaults filled in
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	opt := *o

	if _, err := (&forecast.Options{Horizon: opt.Horizon}).Validate(); err != nil {
		return nil, err
	}
	search, err := opt.Search.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid search options, %w", err)
	}
	opt.Search = *search

	if opt.TopN < 0 {
		return nil, ErrNegativeTopN
	}
	if opt.MinPeriods < 1 {
		return nil, ErrInvalidMinPeriods
	}
	if opt.Agg == "" {
		opt.Agg = timedataset.AggMean
	}
	if opt.NationalEntity == "" {
		return nil, ErrEmptyNationalLabel
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &opt, nil
}
