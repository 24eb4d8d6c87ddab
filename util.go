package forecaster

import (
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func periodLabels(periods []int) []string {
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, strconv.Itoa(p))
	}
	return out
}

// lineValue maps NaN to an echarts gap
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}

// LineTSeries generates an echart multi-line chart for some arbitrary period/value combination. The
// input y is a slice of series that must each have the same length as the periods.
func LineTSeries(title string, seriesName []string, periods []int, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)

	line = line.SetXAxis(periodLabels(periods))
	for i, series := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			lineData = append(lineData, lineValue(v))
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// LineForecaster generates an echart line chart for an entity plotting the observed and fitted
// values followed by the forecast with its upper and lower bounds.
func LineForecaster(er *EntityResult) *charts.Line {
	hist := er.Series
	fc := er.Forecast.Rows
	n := hist.Len() + len(fc)

	periods := make([]int, 0, n)
	periods = append(periods, hist.Periods...)
	periods = append(periods, er.Forecast.Periods()...)

	actual := make([]float64, n)
	fitted := make([]float64, n)
	point := make([]float64, n)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := range n {
		actual[i], fitted[i], point[i], upper[i], lower[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
	}

	copy(actual, hist.Values)
	copy(fitted, er.fitted)

	// join the forecast to the last observation
	last := hist.Len() - 1
	point[last], upper[last], lower[last] = hist.Values[last], hist.Values[last], hist.Values[last]
	for i, row := range fc {
		point[hist.Len()+i] = row.Forecast
		upper[hist.Len()+i] = row.Upper
		lower[hist.Len()+i] = row.Lower
	}

	return LineTSeries(
		"Forecast: "+hist.Entity,
		[]string{"Actual", "Fitted", "Forecast", "Upper", "Lower"},
		periods,
		[][]float64{actual, fitted, point, upper, lower},
	)
}

// Plot renders the national forecast followed by each regional forecast to a single page
func (r *Results) Plot(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "Expenditure Forecasts"
	if r != nil && r.National != nil {
		page.AddCharts(LineForecaster(r.National))
		for _, er := range r.Regional {
			page.AddCharts(LineForecaster(er))
		}
	}
	return page.Render(w)
}
