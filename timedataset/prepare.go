package timedataset

import (
	"errors"
	"fmt"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// MinPeriods is the fewest periods a series needs before it can be modeled
const MinPeriods = 5

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoObservations   = errors.New("no observations")
	ErrUnknownAgg       = errors.New("unknown aggregation rule")
)

// Observation is a single cleaned input row for an entity at a period.
type Observation struct {
	Entity string
	Period int
	Value  float64
}

// AggRule determines how multiple observations sharing an entity and period collapse into one value
type AggRule string

const (
	AggMean   AggRule = "mean"
	AggSum    AggRule = "sum"
	AggMedian AggRule = "median"
)

func (a AggRule) apply(vals []float64) (float64, error) {
	switch a {
	case AggMean, "":
		return floats.Sum(vals) / float64(len(vals)), nil
	case AggSum:
		return floats.Sum(vals), nil
	case AggMedian:
		return mstats.Median(vals)
	default:
		return 0, fmt.Errorf("%q, %w", a, ErrUnknownAgg)
	}
}

// InsufficientDataError reports an entity with too few periods to model
type InsufficientDataError struct {
	Entity    string
	Available int
	Required  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s has %d periods, need at least %d, %s", e.Entity, e.Available, e.Required, ErrInsufficientData)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// PrepareOptions configures series preparation
type PrepareOptions struct {
	Agg        AggRule
	MinPeriods int
}

func NewDefaultPrepareOptions() *PrepareOptions {
	return &PrepareOptions{
		Agg:        AggMean,
		MinPeriods: MinPeriods,
	}
}

// Preparer builds per-entity series from flat observation tables
type Preparer struct {
	opt *PrepareOptions
}

// NewPreparer creates a Preparer. If no options are provided a default is used.
func NewPreparer(opt *PrepareOptions) *Preparer {
	if opt == nil {
		opt = NewDefaultPrepareOptions()
	}
	return &Preparer{opt: opt}
}

// Prepare collapses the rows belonging to entity into a series sorted by period
func (p *Preparer) Prepare(rows []Observation, entity string) (*TimeSeries, error) {
	filtered := make([]Observation, 0, len(rows))
	for _, r := range rows {
		if r.Entity == entity {
			filtered = append(filtered, r)
		}
	}
	return p.build(entity, filtered)
}

// PrepareNational collapses every row of a period across all entities into a single series labeled name
func (p *Preparer) PrepareNational(rows []Observation, name string) (*TimeSeries, error) {
	return p.build(name, rows)
}

func (p *Preparer) build(entity string, rows []Observation) (*TimeSeries, error) {
	byPeriod := make(map[int][]float64)
	for _, r := range rows {
		if math.IsNaN(r.Value) {
			continue
		}
		if math.IsInf(r.Value, 0) {
			return nil, fmt.Errorf("%s at %d, %w", r.Entity, r.Period, ErrInfValue)
		}
		byPeriod[r.Period] = append(byPeriod[r.Period], r.Value)
	}

	if len(byPeriod) < p.opt.MinPeriods {
		return nil, &InsufficientDataError{
			Entity:    entity,
			Available: len(byPeriod),
			Required:  p.opt.MinPeriods,
		}
	}

	periods := make([]int, 0, len(byPeriod))
	for period := range byPeriod {
		periods = append(periods, period)
	}
	sort.Ints(periods)

	values := make([]float64, 0, len(periods))
	for _, period := range periods {
		v, err := p.opt.Agg.apply(byPeriod[period])
		if err != nil {
			return nil, fmt.Errorf("unable to aggregate %s at %d, %w", entity, period, err)
		}
		values = append(values, v)
	}
	return NewTimeSeries(entity, periods, values)
}

// Entities returns the distinct entities found in rows sorted by name
func Entities(rows []Observation) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Entity] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// LatestPeriod returns the most recent period across all rows
func LatestPeriod(rows []Observation) (int, error) {
	if len(rows) == 0 {
		return 0, ErrNoObservations
	}
	latest := rows[0].Period
	for _, r := range rows[1:] {
		if r.Period > latest {
			latest = r.Period
		}
	}
	return latest, nil
}

// CrossSection returns the mean value per entity observed at period
func CrossSection(rows []Observation, period int) map[string]float64 {
	sums := make(map[string]float64)
	cnts := make(map[string]int)
	for _, r := range rows {
		if r.Period != period || math.IsNaN(r.Value) {
			continue
		}
		sums[r.Entity] += r.Value
		cnts[r.Entity]++
	}
	out := make(map[string]float64, len(sums))
	for e, s := range sums {
		out[e] = s / float64(cnts[e])
	}
	return out
}

// Periods returns the distinct periods found in rows in ascending order
func Periods(rows []Observation) []int {
	seen := make(map[int]struct{})
	for _, r := range rows {
		seen[r.Period] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
