package model

// MetricsRecord is the derived, per-run view of one symbol.
type MetricsRecord struct {
	Symbol         string
	SixMonthChange float64 // percent
	OneYearChange  float64 // percent
	CAGR5          float64 // percent, annualized
	CAGR10         float64 // percent, annualized
	RSI            *float64
	Fundamentals   Fundamentals
	Samples        int
	Degenerate     []string // horizons that used a fallback base
}

// Outcome tags how an analysis ended.
type Outcome string

const (
	OutcomePassed   Outcome = "passed"
	OutcomeRejected Outcome = "rejected"
	OutcomeNoData   Outcome = "no_data"
)

// AnalysisResult is the composed verdict for one symbol. It is not mutated after creation.
type AnalysisResult struct {
	Metrics    MetricsRecord
	Passed     bool
	Outcome    Outcome
	Opinion    string // empty when absent
	Err        error  // set when Outcome is OutcomeNoData
	OpinionErr error  // set when a passing symbol could not be annotated
}

// HasOpinion reports whether commentary is attached.
func (r AnalysisResult) HasOpinion() bool {
	return r.Opinion != ""
}

// NoData builds the fail-safe all-zero, non-passing result for a symbol.
func NoData(symbol string, err error) AnalysisResult {
	return AnalysisResult{
		Metrics: MetricsRecord{Symbol: symbol},
		Passed:  false,
		Outcome: OutcomeNoData,
		Err:     err,
	}
}
