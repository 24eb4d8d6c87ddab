// Package quadrant segments regions into four markets by comparing their fertility rate and
// expenditure against thresholds computed over a single period cross-section.
package quadrant

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/aouyang1/go-demoforecast/stats"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"go.uber.org/zap"
)

var (
	ErrEmptyCrossSection = errors.New("no regions in the joined cross-section")
	ErrNoCommonPeriod    = errors.New("tfr and expenditure share no period")
)

// Segment is one of the four quadrants
type Segment int

const (
	HighTFRHighExp Segment = iota
	HighTFRLowExp
	LowTFRHighExp
	LowTFRLowExp
)

// Segments in reporting order
var Segments = []Segment{HighTFRHighExp, HighTFRLowExp, LowTFRHighExp, LowTFRLowExp}

// Key is the configuration key of the segment
func (s Segment) Key() string {
	switch s {
	case HighTFRHighExp:
		return "high_tfr_high_exp"
	case HighTFRLowExp:
		return "high_tfr_low_exp"
	case LowTFRHighExp:
		return "low_tfr_high_exp"
	case LowTFRLowExp:
		return "low_tfr_low_exp"
	}
	return fmt.Sprintf("segment(%d)", int(s))
}

// Classify places a point in a quadrant. Values equal to a threshold count as high.
func Classify(tfr, expenditure float64, th Thresholds) Segment {
	highTFR := tfr >= th.TFR
	highExp := expenditure >= th.Expenditure
	switch {
	case highTFR && highExp:
		return HighTFRHighExp
	case highTFR:
		return HighTFRLowExp
	case highExp:
		return LowTFRHighExp
	}
	return LowTFRLowExp
}

// Point is a region's joined fertility rate and expenditure
type Point struct {
	Region      string
	TFR         float64
	Expenditure float64
}

// Thresholds split each dimension into high and low
type Thresholds struct {
	TFR               float64 `json:"tfr"`
	Expenditure       float64 `json:"expenditure"`
	TFRMethod         Method  `json:"tfr_method"`
	ExpenditureMethod Method  `json:"expenditure_method"`
}

// Assignment is the segment of a single region
type Assignment struct {
	Region      string     `json:"region_name"`
	RegionType  RegionType `json:"region_type"`
	Period      int        `json:"year"`
	TFR         float64    `json:"tfr"`
	Expenditure float64    `json:"expenditure"`
	Segment     Segment    `json:"-"`
	Label       string     `json:"segment"`
	MarketScore float64    `json:"market_score"`
}

// SegmentStats are the descriptive statistics of the members of a segment
type SegmentStats struct {
	Segment     Segment       `json:"-"`
	Label       string        `json:"segment"`
	Count       int           `json:"count"`
	TFR         stats.Summary `json:"tfr"`
	Expenditure stats.Summary `json:"expenditure"`
}

// Result of a segmentation run
type Result struct {
	Period      int            `json:"year"`
	Thresholds  Thresholds     `json:"thresholds"`
	Assignments []Assignment   `json:"assignments"`
	Statistics  []SegmentStats `json:"statistics"`
}

// Counts returns the number of regions per segment label
func (r *Result) Counts() map[string]int {
	out := make(map[string]int, len(r.Statistics))
	for _, s := range r.Statistics {
		out[s.Label] = s.Count
	}
	return out
}

// Analyzer computes thresholds, segment assignments and segment statistics
type Analyzer struct {
	opt    *Options
	logger *zap.Logger
}

// New creates an Analyzer. If no options are provided a default is used.
func New(opt *Options) (*Analyzer, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate options, %w", err)
	}
	return &Analyzer{opt: opt, logger: opt.Logger}, nil
}

func threshold(method Method, fixed float64, x []float64) (float64, error) {
	switch method {
	case Median:
		return stats.Median(x)
	case Mean:
		return stats.Mean(x)
	case Fixed:
		return fixed, nil
	}
	return 0, fmt.Errorf("%q, %w", method, ErrUnknownMethod)
}

// Thresholds computes the tfr and expenditure thresholds over the points
func (a *Analyzer) Thresholds(points []Point) (Thresholds, error) {
	if len(points) == 0 {
		return Thresholds{}, ErrEmptyCrossSection
	}
	tfr := make([]float64, 0, len(points))
	exp := make([]float64, 0, len(points))
	for _, p := range points {
		tfr = append(tfr, p.TFR)
		exp = append(exp, p.Expenditure)
	}

	th := Thresholds{
		TFRMethod:         a.opt.TFRMethod,
		ExpenditureMethod: a.opt.ExpenditureMethod,
	}
	var err error
	if th.TFR, err = threshold(a.opt.TFRMethod, a.opt.TFRFixed, tfr); err != nil {
		return Thresholds{}, fmt.Errorf("unable to compute tfr threshold, %w", err)
	}
	if th.Expenditure, err = threshold(a.opt.ExpenditureMethod, a.opt.ExpenditureFixed, exp); err != nil {
		return Thresholds{}, fmt.Errorf("unable to compute expenditure threshold, %w", err)
	}
	return th, nil
}

// Assign labels every point with its segment and market score. The market score averages the
// max-normalized tfr and expenditure of the point. Region types missing from types are inferred
// from the region name.
func (a *Analyzer) Assign(points []Point, th Thresholds, period int, types map[string]RegionType) []Assignment {
	var maxTFR, maxExp float64
	for _, p := range points {
		maxTFR = math.Max(maxTFR, p.TFR)
		maxExp = math.Max(maxExp, p.Expenditure)
	}

	out := make([]Assignment, 0, len(points))
	for _, p := range points {
		seg := Classify(p.TFR, p.Expenditure, th)
		rt, ok := types[p.Region]
		if !ok || rt == "" {
			rt = ClassifyRegion(p.Region)
		}
		out = append(out, Assignment{
			Region:      p.Region,
			RegionType:  rt,
			Period:      period,
			TFR:         p.TFR,
			Expenditure: p.Expenditure,
			Segment:     seg,
			Label:       a.opt.Labels.Of(seg),
			MarketScore: (normalize(p.TFR, maxTFR) + normalize(p.Expenditure, maxExp)) / 2.0,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Region < out[j].Region
	})
	return out
}

func normalize(v, peak float64) float64 {
	if peak == 0 {
		return 0
	}
	return v / peak
}

// Statistics groups assignments by segment in reporting order. Segments without members are left
// out.
func (a *Analyzer) Statistics(assignments []Assignment) ([]SegmentStats, error) {
	tfr := make(map[Segment][]float64)
	exp := make(map[Segment][]float64)
	for _, as := range assignments {
		tfr[as.Segment] = append(tfr[as.Segment], as.TFR)
		exp[as.Segment] = append(exp[as.Segment], as.Expenditure)
	}

	var out []SegmentStats
	for _, seg := range Segments {
		if len(tfr[seg]) == 0 {
			continue
		}
		tfrSummary, err := stats.Describe(tfr[seg])
		if err != nil {
			return nil, fmt.Errorf("unable to describe tfr of %s, %w", seg.Key(), err)
		}
		expSummary, err := stats.Describe(exp[seg])
		if err != nil {
			return nil, fmt.Errorf("unable to describe expenditure of %s, %w", seg.Key(), err)
		}
		out = append(out, SegmentStats{
			Segment:     seg,
			Label:       a.opt.Labels.Of(seg),
			Count:       len(tfr[seg]),
			TFR:         tfrSummary,
			Expenditure: expSummary,
		})
	}
	return out, nil
}

// Segment runs thresholds, assignment and statistics over an already joined cross-section
func (a *Analyzer) Segment(points []Point, period int, types map[string]RegionType) (*Result, error) {
	th, err := a.Thresholds(points)
	if err != nil {
		return nil, err
	}
	assignments := a.Assign(points, th, period, types)
	statistics, err := a.Statistics(assignments)
	if err != nil {
		return nil, err
	}
	return &Result{
		Period:      period,
		Thresholds:  th,
		Assignments: assignments,
		Statistics:  statistics,
	}, nil
}

// Analyze segments regions at the latest period found in both the tfr and expenditure tables.
// Regions missing from either table at that period are dropped.
func (a *Analyzer) Analyze(tfr, exp []timedataset.Observation, types map[string]RegionType) (*Result, error) {
	period, err := CommonPeriod(tfr, exp)
	if err != nil {
		return nil, err
	}
	tfrSection := timedataset.CrossSection(tfr, period)
	expSection := timedataset.CrossSection(exp, period)
	points := Join(tfrSection, expSection)

	a.logger.Info("joined cross-section",
		zap.Int("period", period),
		zap.Int("tfr_regions", len(tfrSection)),
		zap.Int("expenditure_regions", len(expSection)),
		zap.Int("joined", len(points)),
	)
	if len(points) == 0 {
		return nil, fmt.Errorf("at period %d, %w", period, ErrEmptyCrossSection)
	}

	res, err := a.Segment(points, period, types)
	if err != nil {
		return nil, err
	}

	a.logger.Info("segmented regions",
		zap.Float64("tfr_threshold", res.Thresholds.TFR),
		zap.String("tfr_method", string(res.Thresholds.TFRMethod)),
		zap.Float64("expenditure_threshold", res.Thresholds.Expenditure),
		zap.String("expenditure_method", string(res.Thresholds.ExpenditureMethod)),
		zap.Any("counts", res.Counts()),
	)
	return res, nil
}

// CommonPeriod returns the latest period present in both tables
func CommonPeriod(tfr, exp []timedataset.Observation) (int, error) {
	expPeriods := make(map[int]struct{})
	for _, p := range timedataset.Periods(exp) {
		expPeriods[p] = struct{}{}
	}
	tfrPeriods := timedataset.Periods(tfr)
	for i := len(tfrPeriods) - 1; i >= 0; i-- {
		if _, ok := expPeriods[tfrPeriods[i]]; ok {
			return tfrPeriods[i], nil
		}
	}
	return 0, fmt.Errorf("%w, %w", ErrNoCommonPeriod, ErrEmptyCrossSection)
}

// Join inner joins two cross-sections on region and returns the points sorted by region
func Join(tfr, exp map[string]float64) []Point {
	out := make([]Point, 0, len(tfr))
	for region, t := range tfr {
		e, ok := exp[region]
		if !ok {
			continue
		}
		out = append(out, Point{Region: region, TFR: t, Expenditure: e})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Region < out[j].Region
	})
	return out
}

// TablePrint writes the thresholds and segment statistics as an aligned table
func (r *Result) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%sSegmentation: %d regions in %d\n", prefix, len(r.Assignments), r.Period); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sThresholds: tfr %.2f (%s)    expenditure %.2f (%s)\n",
		prefix, indent,
		r.Thresholds.TFR, r.Thresholds.TFRMethod,
		r.Thresholds.Expenditure, r.Thresholds.ExpenditureMethod,
	); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sSegment\tCount\tTFR Mean\tTFR Median\tTFR Std\tExp Mean\tExp Median\tExp Std\t\n", prefix, indent); err != nil {
		return err
	}
	for _, s := range r.Statistics {
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			prefix, indent, s.Label, s.Count,
			s.TFR.Mean, s.TFR.Median, s.TFR.StdDev,
			s.Expenditure.Mean, s.Expenditure.Median, s.Expenditure.StdDev,
		); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
