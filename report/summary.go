package report

import (
	"math"
	"os"
	"time"

	forecaster "github.com/aouyang1/go-demoforecast"
	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/forecast"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/stats"
	"github.com/goccy/go-json"
)

// Summary is the machine readable record of a run
type Summary struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	Success      bool                 `json:"success"`
	National     *EntitySummary       `json:"national,omitempty"`
	Regional     []EntitySummary      `json:"regional"`
	Skipped      []forecaster.Skipped `json:"skipped"`
	Segmentation *SegmentationSummary `json:"segmentation,omitempty"`
}

type EntitySummary struct {
	Model      forecaster.ModelInfo `json:"model"`
	Candidates []arima.Candidate    `json:"candidates,omitempty"`
	Forecast   []forecast.Row       `json:"forecast"`
	GrowthPct  *float64             `json:"growth_pct"`
}

type SegmentationSummary struct {
	Period     int                 `json:"year"`
	Regions    int                 `json:"regions"`
	Thresholds quadrant.Thresholds `json:"thresholds"`
	Counts     map[string]int      `json:"counts"`
	Statistics []SegmentSummary    `json:"statistics"`
}

// SegmentSummary mirrors quadrant.SegmentStats with undefined deviations as null
type SegmentSummary struct {
	Segment     string       `json:"segment"`
	Count       int          `json:"count"`
	TFR         DescribeNull `json:"tfr"`
	Expenditure DescribeNull `json:"expenditure"`
}

type DescribeNull struct {
	Mean   float64  `json:"mean"`
	Median float64  `json:"median"`
	StdDev *float64 `json:"std"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func describeNull(s stats.Summary) DescribeNull {
	return DescribeNull{Mean: s.Mean, Median: s.Median, StdDev: finite(s.StdDev)}
}

func entitySummary(er *forecaster.EntityResult, withCandidates bool) EntitySummary {
	out := EntitySummary{
		Model:     er.ModelInfo(),
		Forecast:  er.Forecast.Rows,
		GrowthPct: finite(er.Forecast.GrowthPct),
	}
	if withCandidates && er.Search != nil {
		out.Candidates = er.Search.Candidates
	}
	return out
}

// NewSummary collects the results of a run. Either result may be nil.
func NewSummary(now time.Time, fres *forecaster.Results, qres *quadrant.Result) *Summary {
	s := &Summary{
		GeneratedAt: now.UTC(),
		Regional:    []EntitySummary{},
		Skipped:     []forecaster.Skipped{},
	}
	if fres != nil {
		s.Success = fres.Success
		if fres.National != nil {
			national := entitySummary(fres.National, true)
			s.National = &national
		}
		for _, er := range fres.Regional {
			s.Regional = append(s.Regional, entitySummary(er, false))
		}
		if fres.Skipped != nil {
			s.Skipped = fres.Skipped
		}
	}
	if qres != nil {
		seg := &SegmentationSummary{
			Period:     qres.Period,
			Regions:    len(qres.Assignments),
			Thresholds: qres.Thresholds,
			Counts:     qres.Counts(),
			Statistics: make([]SegmentSummary, 0, len(qres.Statistics)),
		}
		for _, st := range qres.Statistics {
			seg.Statistics = append(seg.Statistics, SegmentSummary{
				Segment:     st.Label,
				Count:       st.Count,
				TFR:         describeNull(st.TFR),
				Expenditure: describeNull(st.Expenditure),
			})
		}
		s.Segmentation = seg
	}
	return s
}

// WriteSummary writes the summary as indented JSON to path
func WriteSummary(path string, s *Summary) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
