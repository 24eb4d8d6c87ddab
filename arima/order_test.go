package arima

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundsOrders(t *testing.T) {
	testData := map[string]struct {
		bounds Bounds
		count  int
		first  Order
		second Order
		last   Order
	}{
		"default": {
			bounds: NewDefaultBounds(),
			count:  48,
			first:  Order{0, 0, 0},
			second: Order{0, 0, 1},
			last:   Order{3, 2, 3},
		},
		"small": {
			bounds: Bounds{MaxP: 2, MaxD: 1, MaxQ: 2},
			count:  18,
			first:  Order{0, 0, 0},
			second: Order{0, 0, 1},
			last:   Order{2, 1, 2},
		},
		"single": {
			bounds: Bounds{},
			count:  1,
			first:  Order{0, 0, 0},
			last:   Order{0, 0, 0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			orders := td.bounds.Orders()
			assert.Len(t, orders, td.count)
			assert.Equal(t, td.count, td.bounds.Count())
			assert.Equal(t, td.first, orders[0])
			if td.count > 1 {
				assert.Equal(t, td.second, orders[1])
			}
			assert.Equal(t, td.last, orders[len(orders)-1])

			seen := make(map[Order]struct{})
			for _, o := range orders {
				seen[o] = struct{}{}
			}
			assert.Len(t, seen, td.count)
		})
	}
}

func TestOrder(t *testing.T) {
	assert.Equal(t, "(2,1,0)", Order{2, 1, 0}.String())
	assert.Equal(t, 4, Order{1, 0, 1}.NumParams())
	assert.Equal(t, 3, Order{1, 1, 1}.NumParams())
	assert.ErrorIs(t, Order{-1, 0, 0}.Validate(), ErrNegativeOrder)
	assert.ErrorIs(t, Bounds{MaxQ: -1}.Validate(), ErrNegativeOrder)
}

func TestParseCriterion(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected Criterion
		err      error
	}{
		"aic":     {"aic", AIC, nil},
		"bic":     {"BIC", BIC, nil},
		"spaces":  {" aic ", AIC, nil},
		"unknown": {"hqic", "", ErrUnknownCriterion},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			c, err := ParseCriterion(td.input)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Equal(t, td.expected, c)
		})
	}
	assert.Equal(t, 2.0, BIC.Score(1.0, 2.0))
	assert.Equal(t, 1.0, AIC.Score(1.0, 2.0))
}
