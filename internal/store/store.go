// Package store defines the cleaned input tables and the result tables of a run, and converts
// engine results into table rows shared by every backend.
package store

import (
	"context"
	"errors"
	"math"

	forecaster "github.com/aouyang1/go-demoforecast"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/timedataset"
)

var ErrNilResults = errors.New("no results to write")

// Kind is the storage type of a column
type Kind int

const (
	Text Kind = iota
	Integer
	Real
	Bool
)

type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// Table is a named, ordered set of columns
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order
func (t Table) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// ValueColumn is the observed value column of an observation table
func (t Table) ValueColumn() string {
	return t.Columns[len(t.Columns)-1].Name
}

var (
	Expenditure = Table{
		Name: "expenditure",
		Columns: []Column{
			{Name: "region_name", Kind: Text},
			{Name: "year", Kind: Integer},
			{Name: "expenditure", Kind: Real, Nullable: true},
		},
	}
	TFR = Table{
		Name: "tfr",
		Columns: []Column{
			{Name: "region_name", Kind: Text},
			{Name: "year", Kind: Integer},
			{Name: "tfr", Kind: Real, Nullable: true},
		},
	}
	Regions = Table{
		Name: "regions",
		Columns: []Column{
			{Name: "region_name", Kind: Text},
			{Name: "region_type", Kind: Text},
		},
	}

	NationalForecast = Table{
		Name: "national_expenditure_forecast",
		Columns: []Column{
			{Name: "type", Kind: Text},
			{Name: "year", Kind: Integer},
			{Name: "value", Kind: Real},
			{Name: "lower_bound", Kind: Real, Nullable: true},
			{Name: "upper_bound", Kind: Real, Nullable: true},
		},
	}
	RegionalForecasts = Table{
		Name: "regional_expenditure_forecasts",
		Columns: []Column{
			{Name: "region_name", Kind: Text},
			{Name: "year", Kind: Integer},
			{Name: "forecast", Kind: Real},
			{Name: "lower_bound", Kind: Real},
			{Name: "upper_bound", Kind: Real},
		},
	}
	ModelInfo = Table{
		Name: "expenditure_arima_model_info",
		Columns: []Column{
			{Name: "entity", Kind: Text},
			{Name: "p", Kind: Integer},
			{Name: "d", Kind: Integer},
			{Name: "q", Kind: Integer},
			{Name: "criterion", Kind: Text},
			{Name: "criterion_value", Kind: Real},
			{Name: "aic", Kind: Real},
			{Name: "bic", Kind: Real},
			{Name: "rmse", Kind: Real, Nullable: true},
			{Name: "mae", Kind: Real, Nullable: true},
			{Name: "mape", Kind: Real, Nullable: true},
			{Name: "candidates_tested", Kind: Integer},
			{Name: "candidates_failed", Kind: Integer},
			{Name: "is_stationary", Kind: Bool, Nullable: true},
			{Name: "adf_p_value", Kind: Real, Nullable: true},
		},
	}
	Segmentation = Table{
		Name: "market_segmentation",
		Columns: []Column{
			{Name: "region_name", Kind: Text},
			{Name: "region_type", Kind: Text},
			{Name: "year", Kind: Integer},
			{Name: "tfr", Kind: Real},
			{Name: "expenditure", Kind: Real},
			{Name: "segment", Kind: Text},
			{Name: "market_score", Kind: Real},
		},
	}
	SegmentStatistics = Table{
		Name: "segment_statistics",
		Columns: []Column{
			{Name: "segment", Kind: Text},
			{Name: "count", Kind: Integer},
			{Name: "tfr_mean", Kind: Real},
			{Name: "tfr_median", Kind: Real},
			{Name: "tfr_std", Kind: Real, Nullable: true},
			{Name: "expenditure_mean", Kind: Real},
			{Name: "expenditure_median", Kind: Real},
			{Name: "expenditure_std", Kind: Real, Nullable: true},
		},
	}
)

// Inputs are the cleaned tables read by a run
var Inputs = []Table{Expenditure, TFR, Regions}

// Outputs are the tables written by a run
var Outputs = []Table{NationalForecast, RegionalForecasts, ModelInfo, Segmentation, SegmentStatistics}

// Region is a named region and its administrative type
type Region struct {
	Name string
	Type quadrant.RegionType
}

// Reader reads the cleaned input tables
type Reader interface {
	// ReadObservations reads the region_name, year and value columns of an observation table
	ReadObservations(ctx context.Context, t Table) ([]timedataset.Observation, error)
	ReadRegions(ctx context.Context) ([]Region, error)
}

// Writer replaces the full contents of a table
type Writer interface {
	Replace(ctx context.Context, t Table, rows [][]any) error
}

type Store interface {
	Reader
	Writer
	Close() error
}

// Nullable maps NaN and infinities to a SQL NULL
func Nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func ptr[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// RegionTypes indexes regions by name
func RegionTypes(regions []Region) map[string]quadrant.RegionType {
	out := make(map[string]quadrant.RegionType, len(regions))
	for _, r := range regions {
		out[r.Name] = r.Type
	}
	return out
}

func ObservationRows(obs []timedataset.Observation) [][]any {
	out := make([][]any, 0, len(obs))
	for _, o := range obs {
		out = append(out, []any{o.Entity, o.Period, Nullable(o.Value)})
	}
	return out
}

func RegionRows(regions []Region) [][]any {
	out := make([][]any, 0, len(regions))
	for _, r := range regions {
		out = append(out, []any{r.Name, string(r.Type)})
	}
	return out
}

func NationalForecastRows(rows []forecaster.NationalRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{r.Type, r.Period, r.Value, ptr(r.Lower), ptr(r.Upper)})
	}
	return out
}

func RegionalForecastRows(rows []forecaster.RegionalRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{r.Region, r.Period, r.Forecast, r.Lower, r.Upper})
	}
	return out
}

func ModelInfoRows(infos []forecaster.ModelInfo) [][]any {
	out := make([][]any, 0, len(infos))
	for _, m := range infos {
		out = append(out, []any{
			m.Entity, m.P, m.D, m.Q,
			m.Criterion, m.CriterionValue, m.AIC, m.BIC,
			ptr(m.RMSE), ptr(m.MAE), ptr(m.MAPE),
			m.Tested, m.Failed,
			ptr(m.Stationary), ptr(m.ADFPValue),
		})
	}
	return out
}

func SegmentationRows(assignments []quadrant.Assignment) [][]any {
	out := make([][]any, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, []any{
			a.Region, string(a.RegionType), a.Period,
			a.TFR, a.Expenditure, a.Label, a.MarketScore,
		})
	}
	return out
}

func SegmentStatisticsRows(stats []quadrant.SegmentStats) [][]any {
	out := make([][]any, 0, len(stats))
	for _, s := range stats {
		out = append(out, []any{
			s.Label, s.Count,
			s.TFR.Mean, s.TFR.Median, Nullable(s.TFR.StdDev),
			s.Expenditure.Mean, s.Expenditure.Median, Nullable(s.Expenditure.StdDev),
		})
	}
	return out
}

// WriteForecasts replaces the national, regional and model info tables
func WriteForecasts(ctx context.Context, w Writer, res *forecaster.Results) error {
	if res == nil || res.National == nil {
		return ErrNilResults
	}
	if err := w.Replace(ctx, NationalForecast, NationalForecastRows(res.NationalTable())); err != nil {
		return err
	}
	if err := w.Replace(ctx, RegionalForecasts, RegionalForecastRows(res.RegionalTable())); err != nil {
		return err
	}
	return w.Replace(ctx, ModelInfo, ModelInfoRows(res.ModelInfo()))
}

// WriteSegmentation replaces the segmentation and segment statistics tables
func WriteSegmentation(ctx context.Context, w Writer, res *quadrant.Result) error {
	if res == nil {
		return ErrNilResults
	}
	if err := w.Replace(ctx, Segmentation, SegmentationRows(res.Assignments)); err != nil {
		return err
	}
	return w.Replace(ctx, SegmentStatistics, SegmentStatisticsRows(res.Statistics))
}

// Dataset is the full set of cleaned inputs
type Dataset struct {
	Expenditure []timedataset.Observation
	TFR         []timedataset.Observation
	Regions     []Region
}

// ReadDataset reads every input table
func ReadDataset(ctx context.Context, r Reader) (*Dataset, error) {
	exp, err := r.ReadObservations(ctx, Expenditure)
	if err != nil {
		return nil, err
	}
	tfr, err := r.ReadObservations(ctx, TFR)
	if err != nil {
		return nil, err
	}
	regions, err := r.ReadRegions(ctx)
	if err != nil {
		return nil, err
	}
	return &Dataset{Expenditure: exp, TFR: tfr, Regions: regions}, nil
}

// WriteDataset replaces every input table
func WriteDataset(ctx context.Context, w Writer, ds *Dataset) error {
	if err := w.Replace(ctx, Expenditure, ObservationRows(ds.Expenditure)); err != nil {
		return err
	}
	if err := w.Replace(ctx, TFR, ObservationRows(ds.TFR)); err != nil {
		return err
	}
	return w.Replace(ctx, Regions, RegionRows(ds.Regions))
}
