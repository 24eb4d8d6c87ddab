package arima

import (
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-demoforecast/mat"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const (
	// DefaultMaxIterations bounds each Nelder-Mead pass
	DefaultMaxIterations = 2000

	// restarts of the simplex from the previous optimum
	numPasses = 2
)

// Model is a fitted ARIMA model. Fitting differences the series d times and estimates a
// stationary, invertible ARMA(p, q) on the result by exact gaussian likelihood. A mean term is
// only estimated when d is zero.
type Model struct {
	Order  Order     `json:"order"`
	AR     []float64 `json:"ar"`
	MA     []float64 `json:"ma"`
	Const  float64   `json:"const"`
	Sigma2 float64   `json:"sigma2"`
	LogLik float64   `json:"log_likelihood"`
	AIC    float64   `json:"aic"`
	BIC    float64   `json:"bic"`

	// NObs is the number of observations after differencing
	NObs int `json:"nobs"`

	series []float64
	fitted []float64
	resid  []float64
	state  []float64
	ss     *stateSpace
}

// params unpacks an optimizer vector into coefficients on the scaled series
type params struct {
	order Order
}

func (p params) dim() int {
	n := p.order.P + p.order.Q
	if p.order.hasConst() {
		n++
	}
	return n
}

func (p params) unpack(x []float64) (ar, ma []float64, mu float64) {
	ar = constrain(x[:p.order.P])
	ma = constrainMA(x[p.order.P : p.order.P+p.order.Q])
	if p.order.hasConst() {
		mu = x[p.order.P+p.order.Q]
	}
	return ar, ma, mu
}

// Fit estimates an ARIMA model of the given order. Any failure is reported as a *FitError so a
// caller searching over orders can drop the candidate and move on.
func Fit(y []float64, order Order) (*Model, error) {
	m, err := fit(y, order)
	if err != nil {
		return nil, &FitError{Order: order, Reason: err}
	}
	return m, nil
}

func fit(y []float64, order Order) (*Model, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if len(y) == 0 {
		return nil, ErrEmptySeries
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrInvalidSeries
		}
	}

	w := mat_.Diff(y, order.D)
	n := len(w)
	k := order.NumParams()
	if n < k+1 {
		return nil, fmt.Errorf("%d observations after differencing for %d parameters, %w", n, k, ErrTooFewObservations)
	}

	// optimize on a unit scale so the simplex step is meaningful for any magnitude
	scale := math.Sqrt(floats.Dot(w, w) / float64(n))
	if scale == 0 {
		return nil, ErrDegenerateSeries
	}
	ws := make([]float64, n)
	copy(ws, w)
	floats.Scale(1.0/scale, ws)

	prm := params{order: order}
	x := make([]float64, prm.dim())
	if order.hasConst() {
		x[len(x)-1] = floats.Sum(ws) / float64(n)
	}

	if len(x) > 0 {
		negLogLik := func(x []float64) float64 {
			ar, ma, mu := prm.unpack(x)
			res, err := newStateSpace(ar, ma).filter(ws, mu)
			if err != nil {
				return math.Inf(1)
			}
			return -res.logLik
		}
		for i := 0; i < numPasses; i++ {
			settings := &optimize.Settings{
				MajorIterations: DefaultMaxIterations,
				Converger: &optimize.FunctionConverge{
					Absolute:   1e-10,
					Relative:   1e-10,
					Iterations: 100,
				},
			}
			res, err := optimize.Minimize(optimize.Problem{Func: negLogLik}, x, settings, &optimize.NelderMead{})
			if err != nil {
				return nil, fmt.Errorf("unable to optimize likelihood, %w", err)
			}
			if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
				return nil, ErrNonFiniteLikelihood
			}
			x = res.X
		}
	}

	ar, ma, mu := prm.unpack(x)
	ss := newStateSpace(ar, ma)
	res, err := ss.filter(ws, mu)
	if err != nil {
		return nil, err
	}

	// back to the scale of the observations
	logLik := res.logLik - float64(n)*math.Log(scale)
	floats.Scale(scale, res.innovations)
	floats.Scale(scale, res.state)

	fitted := make([]float64, len(y))
	for i := 0; i < order.D; i++ {
		fitted[i] = math.NaN()
	}
	for i, v := range res.innovations {
		fitted[i+order.D] = y[i+order.D] - v
	}

	series := make([]float64, len(y))
	copy(series, y)

	return &Model{
		Order:  order,
		AR:     ar,
		MA:     ma,
		Const:  mu * scale,
		Sigma2: res.sigma2 * scale * scale,
		LogLik: logLik,
		AIC:    -2*logLik + 2*float64(k),
		BIC:    -2*logLik + float64(k)*math.Log(float64(n)),
		NObs:   n,
		series: series,
		fitted: fitted,
		resid:  res.innovations,
		state:  res.state,
		ss:     ss,
	}, nil
}

// Series returns a copy of the observations the model was fit to
func (m *Model) Series() []float64 {
	out := make([]float64, len(m.series))
	copy(out, m.series)
	return out
}

// FittedValues returns the one step ahead in-sample predictions on the scale of the observations.
// The first d values have no prediction and are NaN.
func (m *Model) FittedValues() []float64 {
	out := make([]float64, len(m.fitted))
	copy(out, m.fitted)
	return out
}

// Residuals returns the one step ahead prediction errors of the differenced series
func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.resid))
	copy(out, m.resid)
	return out
}

// Forecast returns h point forecasts beyond the last observation and their standard errors. The
// standard error at step h is sqrt(sigma2 * sum_{j<h} psi_j^2) where psi are the moving average
// weights of phi(L)(1-L)^d.
func (m *Model) Forecast(h int) ([]float64, []float64, error) {
	if h <= 0 {
		return nil, nil, ErrNonPositiveHorizon
	}

	f := m.ss.project(m.state, h)
	floats.AddConst(m.Const, f)

	// integrate each level of differencing back
	for d := m.Order.D - 1; d >= 0; d-- {
		level := mat_.Diff(m.series, d)
		last := level[len(level)-1]
		for i := range f {
			last += f[i]
			f[i] = last
		}
	}

	psi := psiWeights(integratedAR(m.AR, m.Order.D), m.MA, h)
	se := make([]float64, h)
	cum := 0.0
	for i := 0; i < h; i++ {
		cum += psi[i] * psi[i]
		se[i] = math.Sqrt(m.Sigma2 * cum)
	}
	return f, se, nil
}
