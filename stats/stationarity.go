package stats

import (
	"errors"
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-demoforecast/mat"
	"github.com/aouyang1/go-demoforecast/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultSignificance is the p-value at or below which a series is called stationary
	DefaultSignificance = 0.05

	// MinADFObservations is the shortest series the test accepts
	MinADFObservations = 3
)

var (
	ErrStationarityTest = errors.New("stationarity test failed")
	ErrConstantSeries   = errors.New("series is constant")
	ErrSeriesTooShort   = errors.New("series too short for automatic lag selection")
	ErrDegenerateFit    = errors.New("unit root regression is degenerate")
)

// StationarityTestError reports a series the unit root test cannot be run on
type StationarityTestError struct {
	N      int
	Reason error
}

func (e *StationarityTestError) Error() string {
	return fmt.Sprintf("%s with %d observations, %s", ErrStationarityTest, e.N, e.Reason)
}

func (e *StationarityTestError) Unwrap() []error {
	return []error{ErrStationarityTest, e.Reason}
}

// ADFResult holds the outcome of an augmented Dickey-Fuller test
type ADFResult struct {
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	CriticalValues map[string]float64 `json:"critical_values"`
	UsedLag        int                `json:"used_lag"`
	NObs           int                `json:"nobs"`
	ICBest         float64            `json:"ic_best"`
	IsStationary   bool               `json:"is_stationary"`
}

// NewRegression creates the linear model each unit root regression is fit with
type NewRegression func() (models.Model, error)

func newOLS() (models.Model, error) {
	ols, err := models.NewOLSRegression(nil)
	if err != nil {
		return nil, err
	}
	return ols, nil
}

// ADF runs an augmented Dickey-Fuller unit root test with a constant, choosing the number of lagged
// differences by AIC. The maximum lag is ceil(12*(n/100)^(1/4)) capped at n/2-2.
func ADF(y []float64) (*ADFResult, error) {
	return ADFWith(y, newOLS)
}

// ADFWith runs ADF fitting every regression with a model from newModel
func ADFWith(y []float64, newModel NewRegression) (*ADFResult, error) {
	n := len(y)
	if n < MinADFObservations {
		return nil, &StationarityTestError{N: n, Reason: ErrSeriesTooShort}
	}
	if floats.Max(y) == floats.Min(y) {
		return nil, &StationarityTestError{N: n, Reason: ErrConstantSeries}
	}

	maxlag := int(math.Ceil(12.0 * math.Pow(float64(n)/100.0, 0.25)))
	if capped := n/2 - 2; capped < maxlag {
		maxlag = capped
	}
	if maxlag < 0 {
		return nil, &StationarityTestError{N: n, Reason: ErrSeriesTooShort}
	}

	// every candidate lag is scored on the same sample
	bestLag := 0
	icBest := math.Inf(1)
	for lag := 0; lag <= maxlag; lag++ {
		ols, err := adfRegression(newModel, y, lag, maxlag)
		if err != nil {
			return nil, &StationarityTestError{N: n, Reason: fmt.Errorf("lag %d, %w", lag, err)}
		}
		aic, err := ols.AIC()
		if err != nil {
			return nil, &StationarityTestError{N: n, Reason: err}
		}
		if aic < icBest {
			icBest = aic
			bestLag = lag
		}
	}

	ols, err := adfRegression(newModel, y, bestLag, bestLag)
	if err != nil {
		return nil, &StationarityTestError{N: n, Reason: err}
	}
	stat := ols.TValues()[0]
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return nil, &StationarityTestError{N: n, Reason: ErrDegenerateFit}
	}

	pvalue := MacKinnonP(stat)
	return &ADFResult{
		Statistic:      stat,
		PValue:         pvalue,
		CriticalValues: MacKinnonCrit(ols.NObs()),
		UsedLag:        bestLag,
		NObs:           ols.NObs(),
		ICBest:         icBest,
		IsStationary:   pvalue <= DefaultSignificance,
	}, nil
}

// adfRegression regresses the first difference on the lagged level and lag lagged differences. The
// sample starts after trim lagged differences so different lags can share a sample.
func adfRegression(newModel NewRegression, y []float64, lag, trim int) (models.Model, error) {
	dy := mat_.Diff(y, 1)
	lags, err := mat_.Lagmat(dy, trim)
	if err != nil {
		return nil, err
	}
	nobs := len(lags)

	rows := make([][]float64, nobs)
	target := make([]float64, nobs)
	for i := 0; i < nobs; i++ {
		t := trim + i
		row := make([]float64, 0, lag+1)
		row = append(row, y[t])
		row = append(row, lags[i][:lag]...)
		rows[i] = row
		target[i] = dy[t]
	}

	x, err := mat_.NewDenseFromArray(rows)
	if err != nil {
		return nil, err
	}
	model, err := newModel()
	if err != nil {
		return nil, err
	}
	if err := model.Fit(x, mat.NewDense(nobs, 1, target)); err != nil {
		return nil, err
	}
	return model, nil
}
