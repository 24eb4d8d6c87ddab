package timedataset

import (
	"math"
	"math/rand/v2"
)

// GeneratePeriods returns n consecutive yearly periods beginning at start
func GeneratePeriods(start, n int) []int {
	p := make([]int, 0, n)
	for i := 0; i < n; i++ {
		p = append(p, start+i)
	}
	return p
}

// GenerateGrowth returns n values compounding from base at the given yearly rate
func GenerateGrowth(n int, base, rate float64) []float64 {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, base*math.Pow(1.0+rate, float64(i)))
	}
	return y
}

// GenerateLinear returns n values on a line with the given intercept and slope
func GenerateLinear(n int, intercept, slope float64) []float64 {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, intercept+slope*float64(i))
	}
	return y
}

// GenerateRandomWalk returns n values of a gaussian random walk seeded for reproducibility
func GenerateRandomWalk(n int, start, scale float64, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, 0, n)
	curr := start
	for i := 0; i < n; i++ {
		curr += r.NormFloat64() * scale
		y = append(y, curr)
	}
	return y
}

// GenerateNoise returns n gaussian values with zero mean seeded for reproducibility
func GenerateNoise(n int, scale float64, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, r.NormFloat64()*scale)
	}
	return y
}

// ToObservations expands a series into per-period observation rows for entity
func ToObservations(entity string, periods []int, values []float64) []Observation {
	rows := make([]Observation, 0, len(values))
	for i := range values {
		rows = append(rows, Observation{Entity: entity, Period: periods[i], Value: values[i]})
	}
	return rows
}
