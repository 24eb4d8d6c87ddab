package forecaster

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/forecast"
	"github.com/aouyang1/go-demoforecast/stats"
	"github.com/aouyang1/go-demoforecast/timedataset"
)

// national row types
const (
	RowHistorical = "historical"
	RowForecast   = "forecast"
)

// EntityResult is everything produced while forecasting a single entity
type EntityResult struct {
	Series *timedataset.TimeSeries

	// Stationarity is nil when the test could not be run, with the cause in StationarityErr
	Stationarity    *stats.ADFResult
	StationarityErr error

	Search   *arima.SearchResult
	Model    forecast.Model
	Forecast *forecast.Result

	fitted []float64
}

// FittedValues returns the in-sample one step ahead predictions
func (e *EntityResult) FittedValues() []float64 {
	return append([]float64(nil), e.fitted...)
}

// Skipped records a region that could not be forecast
type Skipped struct {
	Region string `json:"region"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Results of a forecasting run. Success is set once the national stage completes.
type Results struct {
	Success  bool            `json:"success"`
	National *EntityResult   `json:"-"`
	Regional []*EntityResult `json:"-"`
	Skipped  []Skipped       `json:"skipped"`
}

// NationalRow is a historical observation or a forecast of the national series. Bounds are only
// set on forecast rows.
type NationalRow struct {
	Type   string   `json:"type"`
	Period int      `json:"year"`
	Value  float64  `json:"value"`
	Lower  *float64 `json:"lower_bound"`
	Upper  *float64 `json:"upper_bound"`
}

// RegionalRow is a single forecast period of a region
type RegionalRow struct {
	Region   string  `json:"region_name"`
	Period   int     `json:"year"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower_bound"`
	Upper    float64 `json:"upper_bound"`
}

// ModelInfo is a flat diagnostic row of the model selected for an entity
type ModelInfo struct {
	Entity         string   `json:"entity"`
	P              int      `json:"p"`
	D              int      `json:"d"`
	Q              int      `json:"q"`
	Criterion      string   `json:"criterion"`
	CriterionValue float64  `json:"criterion_value"`
	AIC            float64  `json:"aic"`
	BIC            float64  `json:"bic"`
	RMSE           *float64 `json:"rmse"`
	MAE            *float64 `json:"mae"`
	MAPE           *float64 `json:"mape"`
	Tested         int      `json:"candidates_tested"`
	Failed         int      `json:"candidates_failed"`
	Stationary     *bool    `json:"is_stationary"`
	ADFPValue      *float64 `json:"adf_p_value"`
}

func floatPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NationalTable returns the national history followed by its forecast
func (r *Results) NationalTable() []NationalRow {
	if r == nil || r.National == nil {
		return nil
	}
	series := r.National.Series
	out := make([]NationalRow, 0, series.Len()+len(r.National.Forecast.Rows))
	for i, p := range series.Periods {
		out = append(out, NationalRow{
			Type:   RowHistorical,
			Period: p,
			Value:  series.Values[i],
		})
	}
	for _, row := range r.National.Forecast.Rows {
		out = append(out, NationalRow{
			Type:   RowForecast,
			Period: row.Period,
			Value:  row.Forecast,
			Lower:  floatPtr(row.Lower),
			Upper:  floatPtr(row.Upper),
		})
	}
	return out
}

// RegionalTable returns the forecast rows of every successful region in ranked order
func (r *Results) RegionalTable() []RegionalRow {
	if r == nil {
		return nil
	}
	var out []RegionalRow
	for _, er := range r.Regional {
		for _, row := range er.Forecast.Rows {
			out = append(out, RegionalRow{
				Region:   er.Series.Entity,
				Period:   row.Period,
				Forecast: row.Forecast,
				Lower:    row.Lower,
				Upper:    row.Upper,
			})
		}
	}
	return out
}

// ModelInfo flattens the model diagnostics
func (e *EntityResult) ModelInfo() ModelInfo {
	m := e.Model
	info := ModelInfo{
		Entity:         m.Entity,
		P:              m.Order.P,
		D:              m.Order.D,
		Q:              m.Order.Q,
		Criterion:      string(m.Criterion),
		CriterionValue: m.CriterionValue,
		AIC:            m.AIC,
		BIC:            m.BIC,
		Tested:         m.Tested,
		Failed:         m.Failed,
	}
	if m.Scores != nil {
		info.RMSE = floatPtr(m.Scores.RMSE)
		info.MAE = floatPtr(m.Scores.MAE)
		info.MAPE = floatPtr(m.Scores.MAPE)
	}
	if m.Stationarity != nil {
		stationary := m.Stationarity.IsStationary
		info.Stationary = &stationary
		info.ADFPValue = floatPtr(m.Stationarity.PValue)
	}
	return info
}

// ModelInfo returns the national diagnostics followed by each successful region
func (r *Results) ModelInfo() []ModelInfo {
	if r == nil || r.National == nil {
		return nil
	}
	out := make([]ModelInfo, 0, 1+len(r.Regional))
	out = append(out, r.National.ModelInfo())
	for _, er := range r.Regional {
		out = append(out, er.ModelInfo())
	}
	return out
}

// TablePrint writes the national model and forecast, a growth summary of each region and the
// skipped regions
func (r *Results) TablePrint(w io.Writer, prefix, indent string) error {
	if r == nil || r.National == nil {
		return nil
	}
	if err := r.National.Model.TablePrint(w, prefix, indent); err != nil {
		return err
	}
	if err := r.National.Forecast.TablePrint(w, prefix, indent); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%sRegions: %d forecast, %d skipped\n", prefix, len(r.Regional), len(r.Skipped)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if len(r.Regional) > 0 {
		if _, err := fmt.Fprintf(tbl, "%s%sRegion\tOrder\tLast\tFinal\tGrowth\t\n", prefix, indent); err != nil {
			return err
		}
	}
	for _, er := range r.Regional {
		rows := er.Forecast.Rows
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t%.2f\t%.2f\t%.2f%%\t\n",
			prefix, indent,
			er.Series.Entity, er.Model.Order,
			er.Series.LastValue(), rows[len(rows)-1].Forecast, er.Forecast.GrowthPct,
		); err != nil {
			return err
		}
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	for _, s := range r.Skipped {
		if _, err := fmt.Fprintf(w, "%s%sskipped %s [%s]: %s\n", prefix, indent, s.Region, s.Kind, s.Reason); err != nil {
			return err
		}
	}
	return nil
}
