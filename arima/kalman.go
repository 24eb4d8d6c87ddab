package arima

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// stateSpace is the companion form of a zero mean ARMA(p, q) process
//
//	a_{t+1} = T a_t + R e_{t+1}
//	y_t     = a_t[0]
//
// with a state of dimension max(p, q+1). The innovation variance is concentrated out of the
// likelihood so RR' is kept at unit scale.
type stateSpace struct {
	r  int
	t  *mat.Dense
	rr *mat.Dense
}

func newStateSpace(ar, ma []float64) *stateSpace {
	r := len(ar)
	if len(ma)+1 > r {
		r = len(ma) + 1
	}

	t := mat.NewDense(r, r, nil)
	for i, v := range ar {
		t.Set(i, 0, v)
	}
	for i := 0; i < r-1; i++ {
		t.Set(i, i+1, 1.0)
	}

	rv := make([]float64, r)
	rv[0] = 1.0
	for i, v := range ma {
		rv[i+1] = v
	}
	rvec := mat.NewVecDense(r, rv)
	rr := mat.NewDense(r, r, nil)
	rr.Outer(1.0, rvec, rvec)

	return &stateSpace{r: r, t: t, rr: rr}
}

// initialCov solves the discrete Lyapunov equation P = T P T' + RR' for the stationary state
// covariance.
func (s *stateSpace) initialCov() (*mat.Dense, error) {
	r2 := s.r * s.r

	var kron mat.Dense
	kron.Kronecker(s.t, s.t)

	a := mat.NewDense(r2, r2, nil)
	for i := 0; i < r2; i++ {
		a.Set(i, i, 1.0)
	}
	a.Sub(a, &kron)

	b := make([]float64, 0, r2)
	for i := 0; i < s.r; i++ {
		b = append(b, s.rr.RawRowView(i)...)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(r2, b)); err != nil {
		return nil, ErrInvalidInitialState
	}

	data := make([]float64, r2)
	copy(data, x.RawVector().Data)
	p := mat.NewDense(s.r, s.r, data)
	if !(p.At(0, 0) > 0) {
		return nil, ErrInvalidInitialState
	}
	return p, nil
}

// filterResult holds the concentrated likelihood evaluation of a series
type filterResult struct {
	logLik      float64
	sigma2      float64
	innovations []float64
	variances   []float64

	// predicted state for the period after the last observation
	state []float64
}

// filter runs the Kalman filter over y - mu and returns the exact gaussian log likelihood with
// the innovation variance concentrated out.
func (s *stateSpace) filter(y []float64, mu float64) (*filterResult, error) {
	p, err := s.initialCov()
	if err != nil {
		return nil, err
	}
	a := mat.NewVecDense(s.r, nil)
	tT := s.t.T()

	n := len(y)
	res := &filterResult{
		innovations: make([]float64, n),
		variances:   make([]float64, n),
	}

	var sumLogF, ssq float64
	for i := 0; i < n; i++ {
		v := y[i] - mu - a.AtVec(0)
		f := p.At(0, 0)
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, ErrNonPositiveInnovation
		}

		var tp mat.Dense
		tp.Mul(s.t, p)
		k := mat.NewVecDense(s.r, mat.Col(nil, 0, &tp))
		k.ScaleVec(1.0/f, k)

		var next mat.VecDense
		next.MulVec(s.t, a)
		next.AddScaledVec(&next, v, k)
		a = &next

		var pNext mat.Dense
		pNext.Mul(&tp, tT)
		pNext.Add(&pNext, s.rr)
		var kk mat.Dense
		kk.Outer(f, k, k)
		pNext.Sub(&pNext, &kk)
		p = &pNext

		sumLogF += math.Log(f)
		ssq += v * v / f
		res.innovations[i] = v
		res.variances[i] = f
	}

	res.sigma2 = ssq / float64(n)
	if !(res.sigma2 > 0) {
		return nil, ErrNonPositiveInnovation
	}
	res.logLik = -float64(n)/2.0*(math.Log(2*math.Pi)+math.Log(res.sigma2)+1) - 0.5*sumLogF
	if math.IsNaN(res.logLik) || math.IsInf(res.logLik, 0) {
		return nil, ErrNonFiniteLikelihood
	}
	res.state = mat.Col(nil, 0, a)
	return res, nil
}

// project returns h forecasts of the zero mean process from the predicted state
func (s *stateSpace) project(state []float64, h int) []float64 {
	a := mat.NewVecDense(s.r, append([]float64(nil), state...))
	out := make([]float64, 0, h)
	for i := 0; i < h; i++ {
		out = append(out, a.AtVec(0))
		var next mat.VecDense
		next.MulVec(s.t, a)
		a = &next
	}
	return out
}
