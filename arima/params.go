package arima

import "math"

// constrain maps unconstrained values to the coefficients of a stationary autoregressive
// polynomial 1 - c1 L - ... - cn L^n. Each value is squashed to a partial autocorrelation in
// (-1, 1) and the Durbin-Levinson recursion builds the coefficients.
func constrain(u []float64) []float64 {
	coef := make([]float64, 0, len(u))
	for k, uk := range u {
		r := math.Tanh(uk)
		next := make([]float64, k+1)
		next[k] = r
		for j := 0; j < k; j++ {
			next[j] = coef[j] - r*coef[k-1-j]
		}
		coef = next
	}
	return coef
}

// constrainMA returns invertible moving average coefficients for 1 + t1 L + ... + tn L^n
func constrainMA(u []float64) []float64 {
	c := constrain(u)
	for i := range c {
		c[i] = -c[i]
	}
	return c
}

// polyMul multiplies two lag polynomials given as coefficient slices starting at L^0
func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// integratedAR returns the autoregressive coefficients of phi(L)(1-L)^d
func integratedAR(ar []float64, d int) []float64 {
	poly := make([]float64, 0, len(ar)+1)
	poly = append(poly, 1)
	for _, v := range ar {
		poly = append(poly, -v)
	}
	for i := 0; i < d; i++ {
		poly = polyMul(poly, []float64{1, -1})
	}
	out := make([]float64, len(poly)-1)
	for i := 1; i < len(poly); i++ {
		out[i-1] = -poly[i]
	}
	return out
}

// psiWeights returns the first n moving average weights of the infinite order representation
// y_t = sum_j psi_j e_{t-j} for the autoregressive and moving average coefficients.
func psiWeights(ar, ma []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	psi := make([]float64, n)
	psi[0] = 1
	for j := 1; j < n; j++ {
		v := 0.0
		if j <= len(ma) {
			v = ma[j-1]
		}
		for i := 1; i <= j && i <= len(ar); i++ {
			v += ar[i-1] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}
