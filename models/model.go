// Package models is a collection of linear regression fitting implementations used by the
// unit root tests
package models

import (
	"gonum.org/v1/gonum/mat"
)

// Model is a linear regression exposing the inference results a unit root test reads after Fit
type Model interface {
	Fit(x, y mat.Matrix) error
	Intercept() float64
	Coef() []float64
	TValues() []float64
	NObs() int
	AIC() (float64, error)
}
