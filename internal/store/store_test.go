package store

import (
	"context"
	"math"
	"testing"

	forecaster "github.com/aouyang1/go-demoforecast"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	tables map[string][][]any
	order  []string
}

func (m *memWriter) Replace(_ context.Context, t Table, rows [][]any) error {
	if m.tables == nil {
		m.tables = make(map[string][][]any)
	}
	m.tables[t.Name] = rows
	m.order = append(m.order, t.Name)
	return nil
}

func TestTables(t *testing.T) {
	for _, tbl := range append(append([]Table{}, Inputs...), Outputs...) {
		t.Run(tbl.Name, func(t *testing.T) {
			names := tbl.ColumnNames()
			assert.Len(t, names, len(tbl.Columns))
			seen := make(map[string]struct{})
			for _, n := range names {
				_, dup := seen[n]
				assert.False(t, dup, n)
				seen[n] = struct{}{}
			}
		})
	}
	assert.Equal(t, "expenditure", Expenditure.ValueColumn())
	assert.Equal(t, "tfr", TFR.ValueColumn())
}

func TestNullable(t *testing.T) {
	assert.Nil(t, Nullable(math.NaN()))
	assert.Nil(t, Nullable(math.Inf(1)))
	assert.Equal(t, 1.5, Nullable(1.5))
}

func TestNationalForecastRows(t *testing.T) {
	lower, upper := 9.0, 11.0
	rows := NationalForecastRows([]forecaster.NationalRow{
		{Type: forecaster.RowHistorical, Period: 2023, Value: 8},
		{Type: forecaster.RowForecast, Period: 2024, Value: 10, Lower: &lower, Upper: &upper},
	})
	assert.Equal(t, [][]any{
		{"historical", 2023, 8.0, nil, nil},
		{"forecast", 2024, 10.0, 9.0, 11.0},
	}, rows)
}

func TestModelInfoRows(t *testing.T) {
	rmse := 2.0
	stationary := true
	rows := ModelInfoRows([]forecaster.ModelInfo{{
		Entity: "Indonesia", P: 1, D: 1, Q: 0,
		Criterion: "aic", CriterionValue: 10, AIC: 10, BIC: 11,
		RMSE: &rmse, Tested: 48, Failed: 1, Stationary: &stationary,
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, []any{
		"Indonesia", 1, 1, 0,
		"aic", 10.0, 10.0, 11.0,
		2.0, nil, nil,
		48, 1,
		true, nil,
	}, rows[0])
	assert.Len(t, rows[0], len(ModelInfo.Columns))
}

func TestSegmentRows(t *testing.T) {
	res := &quadrant.Result{
		Period: 2023,
		Assignments: []quadrant.Assignment{
			{Region: "KOTA A", RegionType: quadrant.Kota, Period: 2023, TFR: 2.5, Expenditure: 12000, Label: "Stars", MarketScore: 1},
		},
		Statistics: []quadrant.SegmentStats{{
			Label:       "Stars",
			Count:       1,
			TFR:         stats.Summary{Count: 1, Mean: 2.5, Median: 2.5, StdDev: math.NaN()},
			Expenditure: stats.Summary{Count: 1, Mean: 12000, Median: 12000, StdDev: math.NaN()},
		}},
	}

	w := &memWriter{}
	require.NoError(t, WriteSegmentation(context.Background(), w, res))
	assert.Equal(t, []string{"market_segmentation", "segment_statistics"}, w.order)
	assert.Equal(t, [][]any{{"KOTA A", "Kota", 2023, 2.5, 12000.0, "Stars", 1.0}}, w.tables["market_segmentation"])
	assert.Equal(t, [][]any{{"Stars", 1, 2.5, 2.5, nil, 12000.0, 12000.0, nil}}, w.tables["segment_statistics"])

	assert.ErrorIs(t, WriteSegmentation(context.Background(), w, nil), ErrNilResults)
	assert.ErrorIs(t, WriteForecasts(context.Background(), w, nil), ErrNilResults)
}

func TestRegionTypes(t *testing.T) {
	assert.Equal(t,
		map[string]quadrant.RegionType{"KOTA A": quadrant.Kota, "KAB. B": quadrant.Kabupaten},
		RegionTypes([]Region{{Name: "KOTA A", Type: quadrant.Kota}, {Name: "KAB. B", Type: quadrant.Kabupaten}}),
	)
}
