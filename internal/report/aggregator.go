// Package report builds per-ETF sections from analyzed holdings and renders
// them as plain text.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"StockPicker/internal/collector"
	"StockPicker/internal/model"
)

// DefaultHoldingsLimit is the number of top holdings screened per ETF.
const DefaultHoldingsLimit = 10

// SecurityAnalyzer produces a verdict for one symbol and never fails.
type SecurityAnalyzer interface {
	Analyze(ctx context.Context, symbol string) model.AnalysisResult
}

// Aggregator runs the analyzer over each ETF's top holdings.
type Aggregator struct {
	Holdings collector.Holdings
	Analyzer SecurityAnalyzer
	Limit    int
	Workers  int // holdings analyzed in parallel per ETF; 1 is sequential
	Rule     string
	Now      func() time.Time
	log      zerolog.Logger
}

// NewAggregator creates an aggregator with sequential analysis.
func NewAggregator(holdings collector.Holdings, analyzer SecurityAnalyzer, limit int, log zerolog.Logger) *Aggregator {
	if limit <= 0 {
		limit = DefaultHoldingsLimit
	}
	return &Aggregator{
		Holdings: holdings,
		Analyzer: analyzer,
		Limit:    limit,
		Workers:  1,
		Now:      time.Now,
		log:      log.With().Str("component", "aggregator").Logger(),
	}
}

// BuildReport returns one section per ETF, in the given order. Every ETF gets
// a section even when its holdings could not be fetched.
func (a *Aggregator) BuildReport(ctx context.Context, etfs []string) *model.Report {
	rep := &model.Report{Rule: a.Rule, GeneratedAt: a.Now()}
	for _, etf := range etfs {
		rep.Sections = append(rep.Sections, a.buildSection(ctx, strings.ToUpper(strings.TrimSpace(etf))))
	}
	return rep
}

func (a *Aggregator) buildSection(ctx context.Context, etf string) model.Section {
	log := a.log.With().Str("etf", etf).Logger()
	sec := model.Section{ETF: etf}

	holdings, err := a.Holdings.FetchTopHoldings(ctx, etf, a.Limit)
	if err != nil {
		log.Warn().Err(err).Msg("holdings unavailable")
		sec.HoldingsErr = err
		return sec
	}
	if len(holdings) > a.Limit {
		holdings = holdings[:a.Limit]
	}
	sec.Holdings = holdings
	sec.Results = a.analyzeAll(ctx, holdings)

	log.Info().Int("holdings", len(holdings)).Int("passed", len(sec.Passing())).Msg("section built")
	return sec
}

// analyzeAll returns results indexed like symbols, whatever order they complete in.
func (a *Aggregator) analyzeAll(ctx context.Context, symbols []string) []model.AnalysisResult {
	results := make([]model.AnalysisResult, len(symbols))
	if a.Workers <= 1 {
		for i, sym := range symbols {
			results[i] = a.Analyzer.Analyze(ctx, sym)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(a.Workers)
	for i, sym := range symbols {
		g.Go(func() error {
			results[i] = a.Analyzer.Analyze(ctx, sym)
			return nil
		})
	}
	_ = g.Wait() // Analyze never fails
	return results
}
