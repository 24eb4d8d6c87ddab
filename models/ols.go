package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var _ Model = (*OLSRegression)(nil)

// rankTol is the smallest allowed ratio between the smallest and largest diagonal of R
const rankTol = 1e-10

type OLSOptions struct {
	FitIntercept bool
}

// Validate returns the default options when none are set
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		o = NewDefaultOLSOptions()
	}
	return o, nil
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization and keeps enough of the
// factorization around to report coefficient standard errors and the gaussian log likelihood.
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64

	// standard errors aligned with coef, plus the intercept
	coefSE      []float64
	interceptSE float64

	ssr  float64
	nobs int
	k    int
	fit  bool
}

func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

func (o *OLSRegression) withIntercept(x mat.Matrix) mat.Matrix {
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	onesMx := mat.NewDense(1, m, ones)
	xT := x.T()

	var xWithOnes mat.Dense
	xWithOnes.Stack(onesMx, xT)
	return xWithOnes.T()
}

func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, _ := x.Dims()

	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	if o.opt.FitIntercept {
		x = o.withIntercept(x)
	}
	_, n := x.Dims()
	if m <= n {
		return fmt.Errorf("%d observations for %d parameters, %w", m, n, ErrNoDegreesOfFreedom)
	}

	yT := y.T()

	qr := new(mat.QR)
	qr.Factorize(x)

	q := new(mat.Dense)
	r := new(mat.Dense)

	qr.QTo(q)
	qr.RTo(r)

	maxDiag := 0.0
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}
	for i := 0; i < n; i++ {
		if maxDiag == 0 || math.Abs(r.At(i, i)) < rankTol*maxDiag {
			return fmt.Errorf("column %d, %w", i, ErrSingularDesign)
		}
	}

	yq := new(mat.Dense)
	yq.Mul(yT, q)

	c := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		c[i] = yq.At(0, i)
		for j := i + 1; j < n; j++ {
			c[i] -= c[j] * r.At(i, j)
		}
		c[i] /= r.At(i, i)
	}

	// residual sum of squares from the fitted values
	var fitted mat.VecDense
	fitted.MulVec(x, mat.NewVecDense(n, c))
	ssr := 0.0
	for i := 0; i < m; i++ {
		res := y.At(i, 0) - fitted.AtVec(i)
		ssr += res * res
	}

	// cov(beta) = sigma2 * (R'R)^-1 = sigma2 * Rinv Rinv'
	var rInv mat.Dense
	if err := rInv.Inverse(r.Slice(0, n, 0, n)); err != nil {
		return fmt.Errorf("unable to invert r factor, %w", err)
	}
	var cov mat.Dense
	cov.Mul(&rInv, rInv.T())
	sigma2 := ssr / float64(m-n)
	se := make([]float64, n)
	for i := 0; i < n; i++ {
		se[i] = math.Sqrt(sigma2 * cov.At(i, i))
	}

	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.coef = c[1:]
		o.interceptSE = se[0]
		o.coefSE = se[1:]
	} else {
		o.coef = c
		o.coefSE = se
	}
	o.ssr = ssr
	o.nobs = m
	o.k = n
	o.fit = true

	return nil
}

func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}

// StdErrors returns the coefficient standard errors in the same order as Coef
func (o *OLSRegression) StdErrors() []float64 {
	se := make([]float64, len(o.coefSE))
	copy(se, o.coefSE)
	return se
}

func (o *OLSRegression) InterceptStdError() float64 {
	return o.interceptSE
}

// TValues returns the coefficient t statistics in the same order as Coef
func (o *OLSRegression) TValues() []float64 {
	t := make([]float64, len(o.coef))
	for i := range o.coef {
		t[i] = o.coef[i] / o.coefSE[i]
	}
	return t
}

// SSR returns the residual sum of squares
func (o *OLSRegression) SSR() float64 {
	return o.ssr
}

// NObs returns the number of observations used in the fit
func (o *OLSRegression) NObs() int {
	return o.nobs
}

// LogLikelihood returns the gaussian log likelihood of the fit at the maximum likelihood variance
func (o *OLSRegression) LogLikelihood() (float64, error) {
	if !o.fit {
		return 0, ErrNotFit
	}
	n := float64(o.nobs)
	return -n / 2.0 * (math.Log(2*math.Pi) + math.Log(o.ssr/n) + 1), nil
}

// AIC returns the akaike information criterion counting every estimated coefficient including the
// intercept
func (o *OLSRegression) AIC() (float64, error) {
	ll, err := o.LogLikelihood()
	if err != nil {
		return 0, err
	}
	return -2*ll + 2*float64(o.k), nil
}
