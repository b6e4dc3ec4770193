package model

import "time"

// Section is the immutable per-ETF slice of a report.
type Section struct {
	ETF         string
	Holdings    []string
	Results     []AnalysisResult // every analyzed holding, in holdings order
	HoldingsErr error
}

// Passing returns the passing results in holdings order.
func (s Section) Passing() []AnalysisResult {
	var out []AnalysisResult
	for _, r := range s.Results {
		if r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// Report is the ordered collection of sections for one run.
type Report struct {
	RunID       string
	Rule        string
	GeneratedAt time.Time
	Sections    []Section
}

// PassedCount returns the number of passing results across all sections.
func (r *Report) PassedCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Passing())
	}
	return n
}
