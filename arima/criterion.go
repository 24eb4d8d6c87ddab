package arima

import (
	"fmt"
	"strings"
)

// Criterion is the information criterion used to rank candidate orders. Lower is better.
type Criterion string

const (
	AIC Criterion = "aic"
	BIC Criterion = "bic"
)

// ParseCriterion accepts aic or bic in any case
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case AIC, BIC:
		return c, nil
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownCriterion)
}

// Score returns the criterion value of a candidate
func (c Criterion) Score(aic, bic float64) float64 {
	if c == BIC {
		return bic
	}
	return aic
}

// Of returns the criterion value of a fitted model
func (c Criterion) Of(m *Model) float64 {
	return c.Score(m.AIC, m.BIC)
}
