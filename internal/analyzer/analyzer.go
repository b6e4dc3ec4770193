// Package analyzer composes fetching, metrics, screening and annotation for a
// single security.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"StockPicker/internal/calculator"
	"StockPicker/internal/collector"
	"StockPicker/internal/model"
	"StockPicker/internal/opinion"
	"StockPicker/internal/strategy"
)

// FundamentalsMode controls when valuation ratios are fetched.
type FundamentalsMode string

const (
	FundamentalsAuto   FundamentalsMode = "auto" // only when the rule set reads them
	FundamentalsAlways FundamentalsMode = "always"
	FundamentalsNever  FundamentalsMode = "never"
)

// Analyzer holds no per-symbol state and is safe for concurrent use.
type Analyzer struct {
	Market       collector.MarketData
	Rules        strategy.RuleSet
	Annotator    *opinion.Annotator // nil disables commentary
	Start        time.Time
	Interval     model.Interval
	Fundamentals FundamentalsMode
	log          zerolog.Logger
}

// New creates an analyzer.
func New(market collector.MarketData, rules strategy.RuleSet, annotator *opinion.Annotator,
	start time.Time, interval model.Interval, mode FundamentalsMode, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		Market:       market,
		Rules:        rules,
		Annotator:    annotator,
		Start:        start,
		Interval:     interval,
		Fundamentals: mode,
		log:          log.With().Str("component", "analyzer").Logger(),
	}
}

func (a *Analyzer) wantFundamentals() bool {
	switch a.Fundamentals {
	case FundamentalsAlways:
		return true
	case FundamentalsNever:
		return false
	default:
		return a.Rules.NeedsFundamentals()
	}
}

// Analyze never fails: unfetchable data yields a non-passing no-data result,
// and a failed annotation leaves a passing result without commentary.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) model.AnalysisResult {
	log := a.log.With().Str("symbol", symbol).Logger()

	series, err := a.Market.FetchHistory(ctx, symbol, a.Start, a.Interval)
	if err != nil {
		log.Warn().Err(err).Msg("price history unavailable")
		return model.NoData(symbol, fmt.Errorf("%w: %s: %v", model.ErrDataUnavailable, symbol, err))
	}
	if series.Len() == 0 {
		log.Warn().Msg("price history empty")
		return model.NoData(symbol, fmt.Errorf("%w: %s: empty price history", model.ErrDataUnavailable, symbol))
	}
	series.Symbol = symbol

	var fund *model.Fundamentals
	if a.wantFundamentals() {
		fund, err = a.Market.FetchFundamentals(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Msg("fundamentals unavailable")
			fund = nil
		}
	}

	metrics := calculator.Compute(series, fund)
	if len(metrics.Degenerate) > 0 {
		log.Debug().Strs("horizons", metrics.Degenerate).Int("samples", metrics.Samples).Msg("short history, fallback bases used")
	}

	result := model.AnalysisResult{Metrics: metrics, Outcome: model.OutcomeRejected}
	if !a.Rules.Screen(metrics) {
		log.Debug().Float64("six_month", metrics.SixMonthChange).Float64("cagr5", metrics.CAGR5).Msg("rejected")
		return result
	}
	result.Passed = true
	result.Outcome = model.OutcomePassed
	log.Info().Float64("six_month", metrics.SixMonthChange).Float64("one_year", metrics.OneYearChange).
		Float64("cagr5", metrics.CAGR5).Float64("cagr10", metrics.CAGR10).Msg("passed screen")

	if a.Annotator != nil {
		text, err := a.Annotator.Annotate(ctx, metrics)
		if err != nil {
			result.OpinionErr = err
		} else {
			result.Opinion = text
		}
	}
	return result
}
