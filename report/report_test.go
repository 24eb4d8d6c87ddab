package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	forecaster "github.com/aouyang1/go-demoforecast"
	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/forecast"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"github.com/goccy/go-json"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntity(t *testing.T, entity string, last float64) *forecaster.EntityResult {
	t.Helper()
	series, err := timedataset.NewTimeSeries(entity, []int{2021, 2022, 2023}, []float64{last - 2, last - 1, last})
	require.NoError(t, err)
	return &forecaster.EntityResult{
		Series: series,
		Search: &arima.SearchResult{
			Criterion:  arima.AIC,
			Candidates: []arima.Candidate{{Order: arima.Order{P: 0, D: 1, Q: 0}, AIC: 4.5, BIC: 4.2}},
			Tested:     1,
		},
		Model: forecast.Model{
			Entity:    entity,
			Order:     arima.Order{P: 0, D: 1, Q: 0},
			Criterion: arima.AIC,
			AIC:       4.5,
			BIC:       4.2,
		},
		Forecast: &forecast.Result{
			Entity:     entity,
			Confidence: forecast.ConfidenceLevel,
			Rows: []forecast.Row{
				{Period: 2024, Forecast: last + 1, Lower: last, Upper: last + 2},
			},
			GrowthPct: math.NaN(),
		},
	}
}

func testResults(t *testing.T) (*forecaster.Results, *quadrant.Result) {
	fres := &forecaster.Results{
		Success:  true,
		National: testEntity(t, "Indonesia", 100),
		Regional: []*forecaster.EntityResult{
			testEntity(t, "KOTA A", 50),
		},
		Skipped: []forecaster.Skipped{{Region: "KOTA B", Kind: forecaster.KindInsufficientData, Reason: "too short"}},
	}

	a, err := quadrant.New(nil)
	require.NoError(t, err)
	qres, err := a.Segment([]quadrant.Point{
		{Region: "KOTA A", TFR: 3.0, Expenditure: 15000},
		{Region: "KOTA B", TFR: 1.5, Expenditure: 15000},
		{Region: "KOTA C", TFR: 3.0, Expenditure: 5000},
	}, 2023, nil)
	require.NoError(t, err)
	return fres, qres
}

func TestRegionalForecasts(t *testing.T) {
	fres, _ := testResults(t)
	fres.Regional = append(fres.Regional, testEntity(t, "KOTA C", 70))

	line := RegionalForecasts(fres)
	require.Len(t, line.MultiSeries, 2)
	data, ok := line.MultiSeries[0].Data.([]opts.LineData)
	require.True(t, ok)
	assert.Equal(t, []opts.LineData{{Value: 48.0}, {Value: 49.0}, {Value: 50.0}, {Value: 51.0}}, data)
}

func TestQuadrant(t *testing.T) {
	_, qres := testResults(t)
	scatter := Quadrant(qres)
	require.Len(t, scatter.MultiSeries, 3)
	assert.Equal(t, "Stars", scatter.MultiSeries[0].Name)
	assert.Equal(t, "Developing", scatter.MultiSeries[1].Name)
	assert.Equal(t, "Cash Cows", scatter.MultiSeries[2].Name)
}

func TestDashboard(t *testing.T) {
	fres, qres := testResults(t)

	testData := map[string]struct {
		fres     *forecaster.Results
		qres     *quadrant.Result
		contains []string
		missing  []string
	}{
		"all": {
			fres:     fres,
			qres:     qres,
			contains: []string{DashboardTitle, "Forecast: Indonesia", "Regional Expenditure Forecasts", "Market Segmentation", "Segment Distribution"},
		},
		"segmentation only": {
			qres:     qres,
			contains: []string{"Region Count by Segment"},
			missing:  []string{"Forecast: Indonesia"},
		},
		"empty": {
			contains: []string{DashboardTitle},
			missing:  []string{"Market Segmentation"},
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Dashboard(&buf, td.fres, td.qres))
			for _, s := range td.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range td.missing {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestWriteSummary(t *testing.T) {
	fres, qres := testResults(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s := NewSummary(now, fres, qres)
	require.NotNil(t, s.National)
	assert.Len(t, s.National.Candidates, 1)
	require.Len(t, s.Regional, 1)
	assert.Nil(t, s.Regional[0].Candidates)
	assert.Nil(t, s.National.GrowthPct)
	require.NotNil(t, s.Segmentation)
	assert.Equal(t, 3, s.Segmentation.Regions)
	assert.Equal(t, map[string]int{"Stars": 1, "Developing": 1, "Cash Cows": 1}, s.Segmentation.Counts)

	path := filepath.Join(t.TempDir(), "run_summary.json")
	require.NoError(t, WriteSummary(path, s))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"std": null`)
	assert.Contains(t, string(b), `"generated_at": "2026-01-02T03:04:05Z"`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, true, decoded["success"])
	skipped, ok := decoded["skipped"].([]any)
	require.True(t, ok)
	assert.Len(t, skipped, 1)
}

func TestNewSummaryEmpty(t *testing.T) {
	s := NewSummary(time.Unix(0, 0), nil, nil)
	assert.False(t, s.Success)
	assert.Nil(t, s.National)
	assert.Nil(t, s.Segmentation)
	assert.NotNil(t, s.Regional)
	assert.NotNil(t, s.Skipped)
}
