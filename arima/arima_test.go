package arima

import (
	"errors"
	"math"
	"testing"

	"github.com/aouyang1/go-demoforecast/timedataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestFitErrors(t *testing.T) {
	testData := map[string]struct {
		y     []float64
		order Order
		err   error
	}{
		"negative order": {
			y:     []float64{1, 2, 3},
			order: Order{P: -1},
			err:   ErrNegativeOrder,
		},
		"empty": {
			order: Order{},
			err:   ErrEmptySeries,
		},
		"nan": {
			y:     []float64{1, math.NaN(), 3},
			order: Order{},
			err:   ErrInvalidSeries,
		},
		"too few observations": {
			y:     []float64{1, 2, 3},
			order: Order{P: 3, D: 0, Q: 3},
			err:   ErrTooFewObservations,
		},
		"differencing consumes series": {
			y:     []float64{1, 2},
			order: Order{D: 2},
			err:   ErrTooFewObservations,
		},
		"linear series second difference": {
			y:     []float64{2, 4, 6, 8, 10},
			order: Order{D: 2},
			err:   ErrDegenerateSeries,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := Fit(td.y, td.order)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, td.err)

			var fitErr *FitError
			require.True(t, errors.As(err, &fitErr))
			assert.Equal(t, td.order, fitErr.Order)
		})
	}
}

func TestFitWhiteNoiseMean(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	m, err := Fit(y, Order{})
	require.Nil(t, err)

	tol := 1e-4
	assert.InDelta(t, 3.0, m.Const, tol)
	assert.InDelta(t, 2.0, m.Sigma2, tol)
	assert.InDelta(t, -8.827561, m.LogLik, tol)
	assert.InDelta(t, 21.655121, m.AIC, tol)
	assert.InDelta(t, 20.873997, m.BIC, tol)
	assert.Equal(t, 5, m.NObs)
	assert.Empty(t, m.AR)
	assert.Empty(t, m.MA)
}

func TestFitRandomWalk(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	m, err := Fit(y, Order{D: 1})
	require.Nil(t, err)

	tol := 1e-9
	assert.Equal(t, 0.0, m.Const)
	assert.InDelta(t, 1.0, m.Sigma2, tol)
	assert.InDelta(t, -5.675754, m.LogLik, 1e-6)
	assert.InDelta(t, 13.351508, m.AIC, 1e-6)
	assert.Equal(t, 4, m.NObs)

	fitted := m.FittedValues()
	assert.True(t, math.IsNaN(fitted[0]))
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4}, fitted[1:], tol)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1}, m.Residuals(), tol)
	assert.Equal(t, y, m.Series())

	f, se, err := m.Forecast(3)
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{5, 5, 5}, f, tol)
	assert.InDeltaSlice(t, []float64{1, math.Sqrt(2), math.Sqrt(3)}, se, tol)

	_, _, err = m.Forecast(0)
	assert.ErrorIs(t, err, ErrNonPositiveHorizon)
}

func TestFitAccessorsCopy(t *testing.T) {
	m, err := Fit([]float64{3, 1, 4, 1, 5, 9, 2, 6}, Order{P: 1})
	require.Nil(t, err)

	s := m.Series()
	s[0] = 100
	assert.Equal(t, 3.0, m.Series()[0])

	r := m.Residuals()
	r[0] = 100
	assert.NotEqual(t, 100.0, m.Residuals()[0])
	assert.Len(t, m.FittedValues(), 8)
	assert.Less(t, math.Abs(m.AR[0]), 1.0)
}

func TestForecastIntervalWidens(t *testing.T) {
	n := 16
	y := timedataset.GenerateGrowth(n, 8000, 0.06)
	floats.Add(y, timedataset.GenerateNoise(n, 150, 3))

	for _, order := range []Order{{1, 1, 0}, {0, 1, 1}, {1, 0, 0}, {2, 2, 1}} {
		m, err := Fit(y, order)
		require.Nil(t, err, order.String())

		f, se, err := m.Forecast(5)
		require.Nil(t, err)
		assert.Len(t, f, 5)
		for i := 1; i < len(se); i++ {
			assert.GreaterOrEqual(t, se[i], se[i-1], order.String())
		}
		for _, v := range f {
			assert.False(t, math.IsNaN(v))
		}
	}
}
