package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Response surface coefficients for a unit root test with a constant and a single series.
// MacKinnon (1994) for p-values and MacKinnon (2010) for critical values.
const (
	tauMax  = 2.74
	tauMin  = -18.83
	tauStar = -1.61
)

var (
	tauSmallP = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP = []float64{1.7339, 0.93202, -0.12745, -0.010368}

	tauCrit = map[string][]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.04},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
)

// polyval evaluates c[0] + c[1]x + c[2]x^2 + ...
func polyval(c []float64, x float64) float64 {
	res := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		res = res*x + c[i]
	}
	return res
}

// MacKinnonP returns the approximate p-value of a Dickey-Fuller statistic for a regression with a
// constant term.
func MacKinnonP(stat float64) float64 {
	if stat > tauMax {
		return 1.0
	}
	if stat < tauMin {
		return 0.0
	}
	coef := tauLargeP
	if stat <= tauStar {
		coef = tauSmallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// MacKinnonCrit returns the 1%, 5% and 10% critical values for nobs observations
func MacKinnonCrit(nobs int) map[string]float64 {
	out := make(map[string]float64, len(tauCrit))
	inv := 1.0 / float64(nobs)
	for label, coef := range tauCrit {
		out[label] = polyval(coef, inv)
	}
	return out
}
