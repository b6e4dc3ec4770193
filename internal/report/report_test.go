package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPicker/internal/collector"
	"StockPicker/internal/model"
)

// scriptedAnalyzer passes the symbols in pass and records call order.
type scriptedAnalyzer struct {
	pass  map[string]bool
	delay map[string]time.Duration

	mu    sync.Mutex
	calls []string
}

func (s *scriptedAnalyzer) Analyze(_ context.Context, symbol string) model.AnalysisResult {
	time.Sleep(s.delay[symbol])
	s.mu.Lock()
	s.calls = append(s.calls, symbol)
	s.mu.Unlock()
	if !s.pass[symbol] {
		return model.AnalysisResult{Metrics: model.MetricsRecord{Symbol: symbol}, Outcome: model.OutcomeRejected}
	}
	return model.AnalysisResult{
		Metrics: model.MetricsRecord{Symbol: symbol, SixMonthChange: -10, OneYearChange: -3.4, CAGR5: 7, CAGR10: 9.999},
		Passed:  true,
		Outcome: model.OutcomePassed,
		Opinion: "Looks " + strings.ToLower(symbol),
	}
}

func fixedNow() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

func newTestAggregator(h collector.Holdings, a SecurityAnalyzer) *Aggregator {
	agg := NewAggregator(h, a, 10, zerolog.Nop())
	agg.Now = fixedNow
	return agg
}

func TestBuildReportZeroPassingKeepsEverySection(t *testing.T) {
	holdings := &collector.MockFetcher{Holdings: map[string][]string{
		"ETF1": {"A", "B"},
		"ETF2": {"C"},
	}}
	agg := newTestAggregator(holdings, &scriptedAnalyzer{})

	rep := agg.BuildReport(context.Background(), []string{"ETF1", "ETF2"})
	require.Len(t, rep.Sections, 2)
	assert.Equal(t, "ETF1", rep.Sections[0].ETF)
	assert.Equal(t, "ETF2", rep.Sections[1].ETF)
	assert.Equal(t, 0, rep.PassedCount())

	text := Render(rep)
	assert.Equal(t, 2, strings.Count(text, NoCandidates))
	assert.Less(t, strings.Index(text, "ETF: ETF1"), strings.Index(text, "ETF: ETF2"))
}

func TestBuildReportHoldingsFailure(t *testing.T) {
	holdings := &collector.MockFetcher{Errors: map[string]error{"holdings:DEAD": errors.New("404")}}
	an := &scriptedAnalyzer{}
	agg := newTestAggregator(holdings, an)

	rep := agg.BuildReport(context.Background(), []string{"DEAD"})
	require.Len(t, rep.Sections, 1)
	assert.Error(t, rep.Sections[0].HoldingsErr)
	assert.Empty(t, rep.Sections[0].Holdings)
	assert.Empty(t, an.calls)
	assert.Contains(t, FormatSection(rep.Sections[0]), NoCandidates)
}

func TestBuildReportCapsHoldings(t *testing.T) {
	var many []string
	for i := 0; i < 15; i++ {
		many = append(many, fmt.Sprintf("S%02d", i))
	}
	an := &scriptedAnalyzer{}
	agg := newTestAggregator(&collector.MockFetcher{Holdings: map[string][]string{"BIG": many}}, an)

	rep := agg.BuildReport(context.Background(), []string{"BIG"})
	assert.Len(t, rep.Sections[0].Results, 10)
	assert.Equal(t, many[:10], an.calls)
}

func TestParallelAnalysisPreservesOrder(t *testing.T) {
	an := &scriptedAnalyzer{
		pass:  map[string]bool{"A": true, "C": true, "D": true},
		delay: map[string]time.Duration{"A": 30 * time.Millisecond, "B": 10 * time.Millisecond},
	}
	agg := newTestAggregator(&collector.MockFetcher{Holdings: map[string][]string{"ETF": {"A", "B", "C", "D"}}}, an)
	agg.Workers = 4

	rep := agg.BuildReport(context.Background(), []string{"ETF"})
	var got []string
	for _, r := range rep.Sections[0].Passing() {
		got = append(got, r.Metrics.Symbol)
	}
	assert.Equal(t, []string{"A", "C", "D"}, got)
	assert.Len(t, an.calls, 4)
}

func TestFormatSection(t *testing.T) {
	an := &scriptedAnalyzer{pass: map[string]bool{"MSFT": true, "AAPL": true}}
	agg := newTestAggregator(&collector.MockFetcher{Holdings: map[string][]string{"VII": {"MSFT", "KO", "AAPL"}}}, an)
	rep := agg.BuildReport(context.Background(), []string{"VII"})

	want := "ETF: VII\n" +
		"✅ MSFT | 6M Change: -10.00% | 1Y Change: -3.40% | 5Y CAGR: 7.00% | 10Y CAGR: 10.00%\n" +
		"AI Analysis: Looks msft\n" +
		"\n" +
		"✅ AAPL | 6M Change: -10.00% | 1Y Change: -3.40% | 5Y CAGR: 7.00% | 10Y CAGR: 10.00%\n" +
		"AI Analysis: Looks aapl\n"
	assert.Equal(t, want, FormatSection(rep.Sections[0]))

	// Deterministic for identical inputs.
	again := agg.BuildReport(context.Background(), []string{"VII"})
	assert.Equal(t, FormatSection(rep.Sections[0]), FormatSection(again.Sections[0]))
}

func TestFormatResultWithoutOpinion(t *testing.T) {
	r := model.AnalysisResult{Metrics: model.MetricsRecord{Symbol: "KO", CAGR5: 1}, Passed: true}
	assert.Equal(t, "✅ KO | 6M Change: 0.00% | 1Y Change: 0.00% | 5Y CAGR: 1.00% | 10Y CAGR: 0.00%", FormatResult(r))
}

func TestRender(t *testing.T) {
	rep := &model.Report{
		Rule:        "lenient",
		GeneratedAt: fixedNow(),
		Sections:    []model.Section{{ETF: "VII"}, {ETF: "SCHD"}},
	}
	want := "📊 Stock Picker | 2026-03-02 | rule: lenient\n" +
		"\nETF: VII\n" + NoCandidates + "\n" +
		"\nETF: SCHD\n" + NoCandidates + "\n"
	assert.Equal(t, want, Render(rep))
}
