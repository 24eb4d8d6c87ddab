package mat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDenseFromArray(t *testing.T) {
	testData := map[string]struct {
		err error
		x   [][]float64
		m   int
		n   int
	}{
		"nil input": {
			ErrEmptyArray,
			nil,
			0, 0,
		},
		"empty row": {
			ErrEmptyArray,
			[][]float64{{}},
			0, 0,
		},
		"single element": {
			nil,
			[][]float64{{1}},
			1, 1,
		},
		"one row multiple cols": {
			nil,
			[][]float64{{1, 2, 3}},
			1, 3,
		},
		"multiple rows and cols": {
			nil,
			[][]float64{{1, 2, 3}, {4, 5, 6}},
			2, 3,
		},
		"inconsistent cols": {
			ErrColMismatch,
			[][]float64{{1, 2, 3}, {4, 5}},
			0, 0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := NewDenseFromArray(td.x)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			m, n := x.Dims()
			assert.Equal(t, td.m, m)
			assert.Equal(t, td.n, n)
			assert.Equal(t, td.x[len(td.x)-1][n-1], x.At(m-1, n-1))
		})
	}
}

func TestLagmat(t *testing.T) {
	testData := map[string]struct {
		x        []float64
		maxlag   int
		expected [][]float64
		err      error
	}{
		"negative": {
			x:      []float64{1, 2},
			maxlag: -1,
			err:    ErrNegativeLag,
		},
		"too large": {
			x:      []float64{1, 2},
			maxlag: 2,
			err:    ErrLagTooLarge,
		},
		"zero lag": {
			x:        []float64{1, 2},
			maxlag:   0,
			expected: [][]float64{{}, {}},
		},
		"two lags": {
			x:        []float64{1, 2, 3, 4},
			maxlag:   2,
			expected: [][]float64{{2, 1}, {3, 2}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Lagmat(td.x, td.maxlag)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestDiff(t *testing.T) {
	testData := map[string]struct {
		x        []float64
		d        int
		expected []float64
	}{
		"no differencing": {[]float64{1, 4, 9}, 0, []float64{1, 4, 9}},
		"first":           {[]float64{1, 4, 9, 16}, 1, []float64{3, 5, 7}},
		"second":          {[]float64{1, 4, 9, 16}, 2, []float64{2, 2}},
		"consumes series": {[]float64{1}, 1, []float64{}},
		"beyond series":   {[]float64{1, 2}, 3, []float64{}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, Diff(td.x, td.d))
		})
	}
}
