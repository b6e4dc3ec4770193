package report

import (
	"fmt"
	"strings"

	"StockPicker/internal/model"
)

// NoCandidates marks a section in which no holding passed the screen.
const NoCandidates = "🚫 no qualifying candidates"

// FormatResult renders one passing result and its commentary, if any.
func FormatResult(r model.AnalysisResult) string {
	m := r.Metrics
	line := fmt.Sprintf("✅ %s | 6M Change: %.2f%% | 1Y Change: %.2f%% | 5Y CAGR: %.2f%% | 10Y CAGR: %.2f%%",
		m.Symbol, m.SixMonthChange, m.OneYearChange, m.CAGR5, m.CAGR10)
	if r.HasOpinion() {
		line += "\nAI Analysis: " + r.Opinion
	}
	return line
}

// FormatSection renders the header and passing entries of one ETF.
func FormatSection(s model.Section) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("ETF: %s\n", s.ETF))

	passing := s.Passing()
	if len(passing) == 0 {
		b.WriteString(NoCandidates + "\n")
		return b.String()
	}
	entries := make([]string, len(passing))
	for i, r := range passing {
		entries[i] = FormatResult(r)
	}
	b.WriteString(strings.Join(entries, "\n\n"))
	b.WriteString("\n")
	return b.String()
}

// Render joins all sections, separated by a blank line, under a dated title.
func Render(rep *model.Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 Stock Picker | %s", rep.GeneratedAt.Format("2006-01-02")))
	if rep.Rule != "" {
		b.WriteString(fmt.Sprintf(" | rule: %s", rep.Rule))
	}
	b.WriteString("\n")
	for _, s := range rep.Sections {
		b.WriteString("\n")
		b.WriteString(FormatSection(s))
	}
	return b.String()
}
