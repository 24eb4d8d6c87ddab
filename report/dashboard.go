// Package report renders the dashboard page and the run summary of a forecasting and segmentation
// run.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	forecaster "github.com/aouyang1/go-demoforecast"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const DashboardTitle = "Demographic Expenditure Dashboard"

// RegionalForecasts plots the history and forecast of every forecast region on one chart
func RegionalForecasts(res *forecaster.Results) *charts.Line {
	seen := make(map[int]struct{})
	for _, er := range res.Regional {
		for _, p := range er.Series.Periods {
			seen[p] = struct{}{}
		}
		for _, p := range er.Forecast.Periods() {
			seen[p] = struct{}{}
		}
	}
	periods := make([]int, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	pos := make(map[int]int, len(periods))
	for i, p := range periods {
		pos[p] = i
	}

	names := make([]string, 0, len(res.Regional))
	values := make([][]float64, 0, len(res.Regional))
	for _, er := range res.Regional {
		y := make([]float64, len(periods))
		for i := range y {
			y[i] = math.NaN()
		}
		for i, p := range er.Series.Periods {
			y[pos[p]] = er.Series.Values[i]
		}
		for _, row := range er.Forecast.Rows {
			y[pos[row.Period]] = row.Forecast
		}
		names = append(names, er.Series.Entity)
		values = append(values, y)
	}
	return forecaster.LineTSeries("Regional Expenditure Forecasts", names, periods, values)
}

// Quadrant scatters regions by fertility rate and expenditure with one series per segment
func Quadrant(res *quadrant.Result) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Market Segmentation",
			Subtitle: fmt.Sprintf("%d, TFR threshold %.2f (%s), expenditure threshold %.0f (%s)",
				res.Period,
				res.Thresholds.TFR, res.Thresholds.TFRMethod,
				res.Thresholds.Expenditure, res.Thresholds.ExpenditureMethod,
			),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "TFR", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Expenditure", Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)

	bySegment := make(map[quadrant.Segment][]opts.ScatterData)
	labels := make(map[quadrant.Segment]string)
	for _, a := range res.Assignments {
		bySegment[a.Segment] = append(bySegment[a.Segment], opts.ScatterData{
			Name:  a.Region,
			Value: []interface{}{a.TFR, a.Expenditure},
		})
		labels[a.Segment] = a.Label
	}
	for _, seg := range quadrant.Segments {
		if len(bySegment[seg]) == 0 {
			continue
		}
		scatter.AddSeries(labels[seg], bySegment[seg])
	}
	return scatter
}

// SegmentCounts charts the number of regions per segment
func SegmentCounts(res *quadrant.Result) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Region Count by Segment"}),
	)

	labels := make([]string, 0, len(res.Statistics))
	data := make([]opts.BarData, 0, len(res.Statistics))
	for _, s := range res.Statistics {
		labels = append(labels, s.Label)
		data = append(data, opts.BarData{Value: s.Count})
	}
	bar.SetXAxis(labels).AddSeries("Regions", data)
	return bar
}

// SegmentShare charts the share of regions in each segment
func SegmentShare(res *quadrant.Result) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Segment Distribution"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)

	data := make([]opts.PieData, 0, len(res.Statistics))
	for _, s := range res.Statistics {
		data = append(data, opts.PieData{Name: s.Label, Value: s.Count})
	}
	pie.AddSeries("Segments", data)
	return pie
}

// Dashboard renders every available chart to a single page. Either result may be nil.
func Dashboard(w io.Writer, fres *forecaster.Results, qres *quadrant.Result) error {
	page := components.NewPage()
	page.PageTitle = DashboardTitle

	if fres != nil && fres.National != nil {
		page.AddCharts(forecaster.LineForecaster(fres.National))
		if len(fres.Regional) > 0 {
			page.AddCharts(RegionalForecasts(fres))
		}
	}
	if qres != nil {
		page.AddCharts(
			Quadrant(qres),
			SegmentCounts(qres),
			SegmentShare(qres),
		)
	}
	return page.Render(w)
}

// WriteDashboard renders the dashboard to a file at path
func WriteDashboard(path string, fres *forecaster.Results, qres *quadrant.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Dashboard(file, fres, qres); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
