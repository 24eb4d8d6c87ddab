package arima

import (
	"sort"
)

// SearchOptions configures the order grid search
type SearchOptions struct {
	Bounds    Bounds    `json:"bounds"`
	Criterion Criterion `json:"criterion"`
}

func NewDefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		Bounds:    NewDefaultBounds(),
		Criterion: AIC,
	}
}

// Validate fills in defaults and checks the bounds and criterion
func (o *SearchOptions) Validate() (*SearchOptions, error) {
	if o == nil {
		o = NewDefaultSearchOptions()
	}
	if err := o.Bounds.Validate(); err != nil {
		return nil, err
	}
	if o.Criterion == "" {
		o.Criterion = AIC
	}
	if _, err := ParseCriterion(string(o.Criterion)); err != nil {
		return nil, err
	}
	return o, nil
}

// Candidate is one successfully fit order in a search
type Candidate struct {
	Order Order   `json:"order"`
	AIC   float64 `json:"aic"`
	BIC   float64 `json:"bic"`
}

// Failure records an order that could not be fit
type Failure struct {
	Order Order
	Err   error
}

// SearchResult holds the ranked successful candidates and the selected model
type SearchResult struct {
	Criterion Criterion

	// Candidates are sorted ascending by the criterion with ties kept in enumeration order
	Candidates []Candidate
	Failures   []Failure
	Tested     int
	Best       *Model
}

// BestScore returns the criterion value of the selected model
func (s *SearchResult) BestScore() float64 {
	return s.Criterion.Of(s.Best)
}

// Selector grid searches model orders
type Selector struct {
	opt *SearchOptions
}

// NewSelector creates a Selector. If no options are provided a default is used.
func NewSelector(opt *SearchOptions) (*Selector, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Selector{opt: opt}, nil
}

// Select fits every order within the bounds and keeps the one with the strictly smallest
// criterion, the first found on ties. Orders that fail to fit are left out of the ranking.
func (s *Selector) Select(y []float64) (*SearchResult, error) {
	orders := s.opt.Bounds.Orders()
	res := &SearchResult{
		Criterion:  s.opt.Criterion,
		Candidates: make([]Candidate, 0, len(orders)),
		Tested:     len(orders),
	}

	var lastErr error
	for _, order := range orders {
		m, err := Fit(y, order)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Order: order, Err: err})
			lastErr = err
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{Order: order, AIC: m.AIC, BIC: m.BIC})
		if res.Best == nil || s.opt.Criterion.Of(m) < s.opt.Criterion.Of(res.Best) {
			res.Best = m
		}
	}

	if res.Best == nil {
		return nil, &NoConvergentModelError{Tested: len(orders), LastErr: lastErr}
	}

	crit := s.opt.Criterion
	sort.SliceStable(res.Candidates, func(i, j int) bool {
		return crit.Score(res.Candidates[i].AIC, res.Candidates[i].BIC) <
			crit.Score(res.Candidates[j].AIC, res.Candidates[j].BIC)
	})
	return res, nil
}

// Search is a convenience wrapper creating a Selector and running it on y
func Search(y []float64, opt *SearchOptions) (*SearchResult, error) {
	s, err := NewSelector(opt)
	if err != nil {
		return nil, err
	}
	return s.Select(y)
}
