package quadrant

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Method selects how a threshold is derived from the cross-section
type Method string

const (
	Median Method = "median"
	Mean   Method = "mean"
	Fixed  Method = "fixed"
)

const (
	DefaultTFRFixed         = 2.1
	DefaultExpenditureFixed = 10000.0
)

var (
	ErrUnknownMethod  = errors.New("unknown threshold method")
	ErrEmptyLabel     = errors.New("segment label is empty")
	ErrDuplicateLabel = errors.New("segment labels must be unique")
)

// ParseMethod returns the threshold method named by s
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case Median, Mean, Fixed:
		return m, nil
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownMethod)
}

// Labels are the display names of the four segments
type Labels struct {
	HighTFRHighExp string `json:"high_tfr_high_exp"`
	HighTFRLowExp  string `json:"high_tfr_low_exp"`
	LowTFRHighExp  string `json:"low_tfr_high_exp"`
	LowTFRLowExp   string `json:"low_tfr_low_exp"`
}

func NewDefaultLabels() Labels {
	return Labels{
		HighTFRHighExp: "Stars",
		HighTFRLowExp:  "Developing",
		LowTFRHighExp:  "Cash Cows",
		LowTFRLowExp:   "Saturated",
	}
}

// Of returns the display name of the segment
func (l Labels) Of(s Segment) string {
	switch s {
	case HighTFRHighExp:
		return l.HighTFRHighExp
	case HighTFRLowExp:
		return l.HighTFRLowExp
	case LowTFRHighExp:
		return l.LowTFRHighExp
	case LowTFRLowExp:
		return l.LowTFRLowExp
	}
	return string(Unknown)
}

func (l Labels) validate() error {
	seen := make(map[string]struct{}, len(Segments))
	for _, s := range Segments {
		label := l.Of(s)
		if label == "" {
			return fmt.Errorf("%s, %w", s.Key(), ErrEmptyLabel)
		}
		if _, exists := seen[label]; exists {
			return fmt.Errorf("%q, %w", label, ErrDuplicateLabel)
		}
		seen[label] = struct{}{}
	}
	return nil
}

// Options configures segmentation
type Options struct {
	TFRMethod         Method
	ExpenditureMethod Method

	// fixed thresholds used when the matching method is Fixed
	TFRFixed         float64
	ExpenditureFixed float64

	Labels Labels
	Logger *zap.Logger
}

// NewDefaultOptions uses median thresholds on both dimensions
func NewDefaultOptions() *Options {
	return &Options{
		TFRMethod:         Median,
		ExpenditureMethod: Median,
		TFRFixed:          DefaultTFRFixed,
		ExpenditureFixed:  DefaultExpenditureFixed,
		Labels:            NewDefaultLabels(),
	}
}

// Validate returns a validated copy of the options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	opt := *o
	if _, err := ParseMethod(string(opt.TFRMethod)); err != nil {
		return nil, fmt.Errorf("tfr threshold, %w", err)
	}
	if _, err := ParseMethod(string(opt.ExpenditureMethod)); err != nil {
		return nil, fmt.Errorf("expenditure threshold, %w", err)
	}
	if err := opt.Labels.validate(); err != nil {
		return nil, err
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &opt, nil
}
