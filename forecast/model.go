package forecast

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/stats"
)

// Model is a serializeable diagnostic record of the model selected for an entity storing the
// order, information criteria, fit scores and stationarity verdict
type Model struct {
	Entity         string           `json:"entity"`
	Order          arima.Order      `json:"order"`
	Criterion      arima.Criterion  `json:"criterion"`
	CriterionValue float64          `json:"criterion_value"`
	AIC            float64          `json:"aic"`
	BIC            float64          `json:"bic"`
	Sigma2         float64          `json:"sigma2"`
	Weights        Weights          `json:"weights"`
	Scores         *Scores          `json:"scores"`
	Tested         int              `json:"candidates_tested"`
	Failed         int              `json:"candidates_failed"`
	Stationarity   *stats.ADFResult `json:"stationarity,omitempty"`
}

// Weights stores the estimated coefficients of the selected model
type Weights struct {
	AR    []float64 `json:"ar"`
	MA    []float64 `json:"ma"`
	Const float64   `json:"const"`
}

// NewModel summarizes a search result together with its accuracy scores and optional
// stationarity test
func NewModel(entity string, search *arima.SearchResult, scores *Scores, adf *stats.ADFResult) Model {
	best := search.Best
	return Model{
		Entity:         entity,
		Order:          best.Order,
		Criterion:      search.Criterion,
		CriterionValue: search.BestScore(),
		AIC:            best.AIC,
		BIC:            best.BIC,
		Sigma2:         best.Sigma2,
		Weights: Weights{
			AR:    append([]float64(nil), best.AR...),
			MA:    append([]float64(nil), best.MA...),
			Const: best.Const,
		},
		Scores:       scores,
		Tested:       search.Tested,
		Failed:       len(search.Failures),
		Stationarity: adf,
	}
}

func indentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sModel: %s\n", prefix, indentExpand(indent, 0), m.Entity); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sOrder: ARIMA%s    %s: %.3f    AIC: %.3f    BIC: %.3f\n",
		prefix, indentExpand(indent, 1),
		m.Order, m.Criterion, m.CriterionValue, m.AIC, m.BIC,
	); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sCandidates: %d tested, %d failed\n",
		prefix, indentExpand(indent, 1), m.Tested, m.Failed); err != nil {
		return err
	}

	if m.Stationarity != nil {
		if _, err := fmt.Fprintf(w, "%s%sADF: statistic %.3f    p-value %.3f    stationary %t\n",
			prefix, indentExpand(indent, 1),
			m.Stationarity.Statistic, m.Stationarity.PValue, m.Stationarity.IsStationary,
		); err != nil {
			return err
		}
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 1)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sRMSE: %.3f    MAE: %.3f    MAPE: %.3f%%\n",
			prefix, indentExpand(indent, 2),
			m.Scores.RMSE,
			m.Scores.MAE,
			m.Scores.MAPE,
		); err != nil {
			return err
		}
	}

	return m.Weights.tablePrint(w, prefix, indent, 1)
}

func (w Weights) tablePrint(wr io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(wr, "%s%sWeights:\n", prefix, indentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sTerm\tLag\tValue\t\n", prefix, indentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tbl, "%s%sconst\t0\t%.5f\t\n", prefix, indentExpand(indent, indentGrowth+1), w.Const); err != nil {
		return err
	}
	for i, v := range w.AR {
		if _, err := fmt.Fprintf(tbl, "%s%sar\t%d\t%.5f\t\n", prefix, indentExpand(indent, indentGrowth+1), i+1, v); err != nil {
			return err
		}
	}
	for i, v := range w.MA {
		if _, err := fmt.Fprintf(tbl, "%s%sma\t%d\t%.5f\t\n", prefix, indentExpand(indent, indentGrowth+1), i+1, v); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

// TablePrint writes the forecast rows as an aligned table
func (r *Result) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sForecast: %s (%.0f%% interval, growth %.2f%%)\n",
		prefix, indentExpand(indent, 0), r.Entity, r.Confidence*100, r.GrowthPct); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sYear\tForecast\tLower\tUpper\t\n", prefix, indentExpand(indent, 1)); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if _, err := fmt.Fprintf(tbl, "%s%s%d\t%.2f\t%.2f\t%.2f\t\n",
			prefix, indentExpand(indent, 1), row.Period, row.Forecast, row.Lower, row.Upper); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
