package forecaster

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/forecast"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func smallSearchOptions() *Options {
	opt := NewDefaultOptions()
	opt.Search = arima.SearchOptions{
		Bounds:    arima.Bounds{MaxP: 1, MaxD: 1, MaxQ: 1},
		Criterion: arima.AIC,
	}
	return opt
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt         *Options
		expectedErr error
	}{
		"nil":         {opt: nil},
		"default":     {opt: NewDefaultOptions()},
		"zero top n":  {opt: &Options{Horizon: 5, MinPeriods: 5, NationalEntity: "Indonesia"}},
		"bad horizon": {opt: &Options{Horizon: 0, MinPeriods: 5, NationalEntity: "Indonesia"}, expectedErr: forecast.ErrNonPositiveHorizon},
		"negative top n": {
			opt:         &Options{Horizon: 5, TopN: -1, MinPeriods: 5, NationalEntity: "Indonesia"},
			expectedErr: ErrNegativeTopN,
		},
		"zero min periods": {
			opt:         &Options{Horizon: 5, MinPeriods: 0, NationalEntity: "Indonesia"},
			expectedErr: ErrInvalidMinPeriods,
		},
		"no national label": {
			opt:         &Options{Horizon: 5, MinPeriods: 5},
			expectedErr: ErrEmptyNationalLabel,
		},
		"bad criterion": {
			opt: &Options{
				Horizon:        5,
				MinPeriods:     5,
				NationalEntity: "Indonesia",
				Search:         arima.SearchOptions{Bounds: arima.NewDefaultBounds(), Criterion: "hqic"},
			},
			expectedErr: arima.ErrUnknownCriterion,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.expectedErr != nil {
				assert.ErrorIs(t, err, td.expectedErr)
				return
			}
			require.Nil(t, err)
			assert.NotNil(t, opt.Logger)
			assert.NotEmpty(t, opt.Agg)
		})
	}
}

func TestOptionsCopiedOnNew(t *testing.T) {
	opt := smallSearchOptions()
	f, err := New(opt)
	require.Nil(t, err)

	opt.Horizon = 99
	opt.TopN = 0
	assert.Equal(t, 5, f.opt.Horizon)
	assert.Equal(t, DefaultTopN, f.opt.TopN)
}

func TestTopRegions(t *testing.T) {
	rows := []timedataset.Observation{
		{Entity: "A", Period: 2020, Value: 5},
		{Entity: "A", Period: 2021, Value: 10},
		{Entity: "B", Period: 2021, Value: 30},
		{Entity: "C", Period: 2021, Value: 10},
		{Entity: "D", Period: 2020, Value: 100},
		{Entity: "E", Period: 2021, Value: 20},
		{Entity: "E", Period: 2021, Value: 40},
	}

	testData := map[string]struct {
		k        int
		expected []string
	}{
		"zero":         {k: 0, expected: nil},
		"one":          {k: 1, expected: []string{"B"}},
		"ties by name": {k: 4, expected: []string{"B", "E", "A", "C"}},
		"more than available": {
			k:        10,
			expected: []string{"B", "E", "A", "C"},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, TopRegions(rows, td.k))
		})
	}

	assert.Nil(t, TopRegions(nil, 3))
}

func growthRegion(entity string, n int, base, rate float64, seed uint64) []timedataset.Observation {
	y := timedataset.GenerateGrowth(n, base, rate)
	floats.Add(y, timedataset.GenerateNoise(n, base*0.01, seed))
	return timedataset.ToObservations(entity, timedataset.GeneratePeriods(2014, n), y)
}

func TestRunSkipsShortRegion(t *testing.T) {
	var rows []timedataset.Observation
	rows = append(rows, growthRegion("KOTA BANDUNG", 10, 1000, 0.05, 1)...)
	rows = append(rows, growthRegion("KABUPATEN BOGOR", 10, 800, 0.03, 2)...)
	rows = append(rows, timedataset.ToObservations(
		"KOTA DEPOK", []int{2021, 2022, 2023}, []float64{5000, 5200, 5400},
	)...)

	f, err := New(smallSearchOptions())
	require.Nil(t, err)
	assert.Equal(t, Idle, f.Stage())

	res, err := f.Run(rows)
	require.Nil(t, err)
	assert.Equal(t, Done, f.Stage())
	assert.True(t, res.Success)

	// national
	require.NotNil(t, res.National)
	assert.Equal(t, DefaultNationalEntity, res.National.Series.Entity)
	assert.Equal(t, 10, res.National.Series.Len())
	require.NotNil(t, res.National.Search.Best)
	assert.Equal(t, 8, res.National.Search.Tested)
	assert.Equal(t, []int{2024, 2025, 2026, 2027, 2028}, res.National.Forecast.Periods())
	for _, row := range res.National.Forecast.Rows {
		assert.LessOrEqual(t, row.Lower, row.Forecast)
		assert.LessOrEqual(t, row.Forecast, row.Upper)
	}
	assert.NotNil(t, res.National.Model.Scores)
	assert.True(t, res.National.Stationarity != nil || res.National.StationarityErr != nil)

	// regions ranked by the latest period with the short series first
	require.Len(t, res.Skipped, 1)
	skip := res.Skipped[0]
	assert.Equal(t, "KOTA DEPOK", skip.Region)
	assert.Equal(t, KindInsufficientData, skip.Kind)
	assert.ErrorIs(t, skip.Err, timedataset.ErrInsufficientData)
	assert.Contains(t, skip.Reason, "insufficient data")

	require.Len(t, res.Regional, 2)
	assert.Equal(t, "KOTA BANDUNG", res.Regional[0].Series.Entity)
	assert.Equal(t, "KABUPATEN BOGOR", res.Regional[1].Series.Entity)
	for _, er := range res.Regional {
		assert.Len(t, er.Forecast.Rows, 5)
		assert.Equal(t, 2024, er.Forecast.Rows[0].Period)
		assert.Nil(t, er.Stationarity)
	}

	assert.Len(t, res.RegionalTable(), 10)
	assert.Len(t, res.NationalTable(), 15)
	assert.Len(t, res.ModelInfo(), 3)
}

func TestRunNationalFailure(t *testing.T) {
	testData := map[string]struct {
		rows          []timedataset.Observation
		expectedStage Stage
		expectedErr   error
	}{
		"empty": {
			expectedStage: PreparingNational,
			expectedErr:   ErrEmptyInput,
		},
		"too short": {
			rows: timedataset.ToObservations(
				"KOTA DEPOK", []int{2021, 2022, 2023}, []float64{5000, 5200, 5400},
			),
			expectedStage: PreparingNational,
			expectedErr:   timedataset.ErrInsufficientData,
		},
		"missing values": {
			rows: timedataset.ToObservations(
				"KOTA DEPOK",
				timedataset.GeneratePeriods(2016, 6),
				[]float64{1, 2, math.NaN(), math.NaN(), 5, 6},
			),
			expectedStage: PreparingNational,
			expectedErr:   timedataset.ErrInsufficientData,
		},
		"infinite value": {
			rows: append(
				growthRegion("KOTA BANDUNG", 10, 1000, 0.05, 1),
				timedataset.Observation{Entity: "KOTA DEPOK", Period: 2020, Value: math.Inf(1)},
			),
			expectedStage: PreparingNational,
			expectedErr:   timedataset.ErrInfValue,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := New(smallSearchOptions())
			require.Nil(t, err)

			res, err := f.Run(td.rows)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, td.expectedErr)

			var stageErr *StageError
			require.True(t, errors.As(err, &stageErr))
			assert.Equal(t, td.expectedStage, stageErr.Stage)
			assert.Equal(t, DefaultNationalEntity, stageErr.Entity)
			assert.Equal(t, Failed, f.Stage())
		})
	}
}

func TestStageString(t *testing.T) {
	testData := map[string]struct {
		stage    Stage
		expected string
	}{
		"idle":     {stage: Idle, expected: "idle"},
		"fitting":  {stage: FittingNational, expected: "fitting_national"},
		"regional": {stage: PreparingRegional, expected: "preparing_regional"},
		"failed":   {stage: Failed, expected: "failed"},
		"unknown":  {stage: Stage(42), expected: "stage(42)"},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.stage.String())
		})
	}

	err := &StageError{Stage: FittingNational, Entity: "Indonesia", Err: arima.ErrNoConvergentModel}
	assert.Equal(t, "fitting_national failed for Indonesia, no candidate model could be fit", err.Error())
	assert.ErrorIs(t, err, arima.ErrNoConvergentModel)
}

func TestNewSkipped(t *testing.T) {
	testData := map[string]struct {
		err      error
		expected string
	}{
		"insufficient": {
			err:      &timedataset.InsufficientDataError{Entity: "A", Available: 3, Required: 5},
			expected: KindInsufficientData,
		},
		"no model": {
			err:      &arima.NoConvergentModelError{Tested: 8},
			expected: KindNoConvergentModel,
		},
		"invalid series": {
			err:      timedataset.ErrNaNValue,
			expected: KindInvalidSeries,
		},
		"infinite value": {
			err:      fmt.Errorf("KOTA A at 2020, %w", timedataset.ErrInfValue),
			expected: KindInvalidSeries,
		},
		"other": {
			err:      errors.New("boom"),
			expected: KindOther,
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s := newSkipped("A", td.err)
			assert.Equal(t, td.expected, s.Kind)
			assert.Equal(t, td.err.Error(), s.Reason)
		})
	}
}
