package forecaster

import (
	"fmt"
	"os"
	"runtime/debug"
	"testing"

	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"gonum.org/v1/gonum/floats"
)

// generateExampleRegions simulates yearly household expenditure for a handful of regions from 2010
// through 2023. One region only reports the last three years.
func generateExampleRegions() []timedataset.Observation {
	const n = 14
	periods := timedataset.GeneratePeriods(2010, n)

	var rows []timedataset.Observation

	y := timedataset.GenerateGrowth(n, 11500, 0.06)
	floats.Add(y, timedataset.GenerateNoise(n, 150, 1))
	rows = append(rows, timedataset.ToObservations("KOTA JAKARTA SELATAN", periods, y)...)

	y = timedataset.GenerateGrowth(n, 9800, 0.045)
	floats.Add(y, timedataset.GenerateNoise(n, 120, 2))
	rows = append(rows, timedataset.ToObservations("KOTA SURABAYA", periods, y)...)

	y = timedataset.GenerateLinear(n, 7200, 180)
	floats.Add(y, timedataset.GenerateNoise(n, 90, 3))
	rows = append(rows, timedataset.ToObservations("KABUPATEN BOGOR", periods, y)...)

	y = timedataset.GenerateRandomWalk(n, 6100, 140, 4)
	rows = append(rows, timedataset.ToObservations("KAB. SLEMAN", periods, y)...)

	rows = append(rows, timedataset.ToObservations(
		"KOTA TANGERANG SELATAN",
		timedataset.GeneratePeriods(2021, 3),
		[]float64{24000, 25100, 26350},
	)...)
	return rows
}

func runForecastExample(opt *Options, rows []timedataset.Observation, filename string) error {
	f, err := New(opt)
	if err != nil {
		return err
	}
	res, err := f.Run(rows)
	if err != nil {
		return err
	}
	if err := res.TablePrint(os.Stderr, "", "  "); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return res.Plot(file)
}

func recoverForecastPanic(t *testing.T) {
	if r := recover(); r != nil {
		if t != nil {
			t.Errorf("panic: %v\n", r)
		} else {
			fmt.Printf("panic: %v\n", r)
		}
		debug.PrintStack()
	}
}

func Example_forecasterRegions() {
	defer recoverForecastPanic(nil)

	opt := NewDefaultOptions()
	opt.TopN = 4
	if err := runForecastExample(opt, generateExampleRegions(), "examples/forecaster_regions.html"); err != nil {
		panic(err)
	}
}

func Example_forecasterBIC() {
	defer recoverForecastPanic(nil)

	opt := NewDefaultOptions()
	opt.Horizon = 8
	opt.Search = arima.SearchOptions{
		Bounds:    arima.Bounds{MaxP: 2, MaxD: 1, MaxQ: 2},
		Criterion: arima.BIC,
	}
	if err := runForecastExample(opt, generateExampleRegions(), "examples/forecaster_bic.html"); err != nil {
		panic(err)
	}
}
