// Package arima fits autoregressive integrated moving average models by exact gaussian maximum
// likelihood and selects an order by information criterion grid search.
package arima

import "fmt"

const (
	DefaultMaxP = 3
	DefaultMaxD = 2
	DefaultMaxQ = 3
)

// Order is the (p, d, q) order of an ARIMA model
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// Validate checks every term is non-negative
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("%s, %w", o, ErrNegativeOrder)
	}
	return nil
}

// hasConst reports whether a mean term is estimated. Only undifferenced models carry one.
func (o Order) hasConst() bool {
	return o.D == 0
}

// NumParams counts the estimated parameters including the innovation variance
func (o Order) NumParams() int {
	k := o.P + o.Q + 1
	if o.hasConst() {
		k++
	}
	return k
}

// Bounds are the inclusive maxima of each order term searched
type Bounds struct {
	MaxP int `json:"max_p"`
	MaxD int `json:"max_d"`
	MaxQ int `json:"max_q"`
}

func NewDefaultBounds() Bounds {
	return Bounds{
		MaxP: DefaultMaxP,
		MaxD: DefaultMaxD,
		MaxQ: DefaultMaxQ,
	}
}

func (b Bounds) Validate() error {
	if b.MaxP < 0 || b.MaxD < 0 || b.MaxQ < 0 {
		return fmt.Errorf("bounds (%d,%d,%d), %w", b.MaxP, b.MaxD, b.MaxQ, ErrNegativeOrder)
	}
	return nil
}

// Count returns the number of orders within the bounds
func (b Bounds) Count() int {
	return (b.MaxP + 1) * (b.MaxD + 1) * (b.MaxQ + 1)
}

// Orders enumerates every order within the bounds with p varying slowest and q fastest
func (b Bounds) Orders() []Order {
	out := make([]Order, 0, b.Count())
	for p := 0; p <= b.MaxP; p++ {
		for d := 0; d <= b.MaxD; d++ {
			for q := 0; q <= b.MaxQ; q++ {
				out = append(out, Order{P: p, D: d, Q: q})
			}
		}
	}
	return out
}
