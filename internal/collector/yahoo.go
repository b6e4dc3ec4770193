package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"StockPicker/internal/model"
)

// FundamentalModules are the quoteSummary modules the fundamentals bundle is read from.
var FundamentalModules = []string{"summaryDetail", "financialData", "defaultKeyStatistics"}

// YahooFetcher implements MarketData and Holdings using Yahoo Finance public endpoints.
type YahooFetcher struct {
	Client     *http.Client
	ChartURL   string
	SummaryURL string
	Limiter    *rate.Limiter
	Now        func() time.Time
	log        zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, rps float64, log zerolog.Logger) *YahooFetcher {
	return &YahooFetcher{
		Client:     newHTTPClient(proxyURL),
		ChartURL:   "https://query1.finance.yahoo.com",
		SummaryURL: "https://query2.finance.yahoo.com",
		Limiter:    newLimiter(rps),
		Now:        time.Now,
		log:        log.With().Str("provider", "yahoo").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooValue is the {"raw": 1.23, "fmt": "1.23"} wrapper quoteSummary uses.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE yahooValue `json:"trailingPE"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				PriceToBook yahooValue `json:"priceToBook"`
				PEGRatio    yahooValue `json:"pegRatio"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				DebtToEquity   yahooValue `json:"debtToEquity"`
				CurrentRatio   yahooValue `json:"currentRatio"`
				RevenueGrowth  yahooValue `json:"revenueGrowth"`
				EarningsGrowth yahooValue `json:"earningsGrowth"`
			} `json:"financialData"`
			TopHoldings struct {
				Holdings []struct {
					Symbol      string `json:"symbol"`
					HoldingName string `json:"holdingName"`
				} `json:"holdings"`
			} `json:"topHoldings"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	if err := f.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	f.log.Debug().Str("url", u).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("yahoo request")
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// FetchHistory returns sampled closes from start until now, oldest first.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, start time.Time, interval model.Interval) (*model.PriceSeries, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", f.Now().Unix()))
	q.Set("interval", string(interval))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.ChartURL, url.PathEscape(symbol), q.Encode())

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return &model.PriceSeries{Symbol: symbol, Interval: interval, FetchedAt: f.Now()}, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) {
			break
		}
		c := toFloat(closes[i])
		if c == 0 {
			continue // null sample
		}
		points = append(points, model.PricePoint{Date: time.Unix(ts, 0).UTC(), Close: c})
	}

	return &model.PriceSeries{
		Symbol:    symbol,
		Interval:  interval,
		Points:    strictlyIncreasing(points),
		FetchedAt: f.Now(),
	}, nil
}

func (f *YahooFetcher) summary(ctx context.Context, symbol string, modules []string) (*yahooSummary, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.SummaryURL, url.PathEscape(symbol), url.QueryEscape(strings.Join(modules, ",")))
	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var s yahooSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("yahoo decode summary: %w", err)
	}
	if s.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", s.QuoteSummary.Error.Description)
	}
	if len(s.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no summary for %s", symbol)
	}
	return &s, nil
}

// FetchFundamentals reads valuation ratios. Growth rates are converted to percent.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	s, err := f.summary(ctx, symbol, FundamentalModules)
	if err != nil {
		return nil, err
	}
	r := s.QuoteSummary.Result[0]
	return &model.Fundamentals{
		PERatio:        r.SummaryDetail.TrailingPE.Raw,
		PBRatio:        r.DefaultKeyStatistics.PriceToBook.Raw,
		PEGRatio:       r.DefaultKeyStatistics.PEGRatio.Raw,
		DebtToEquity:   r.FinancialData.DebtToEquity.Raw,
		CurrentRatio:   r.FinancialData.CurrentRatio.Raw,
		RevenueGrowth:  percent(r.FinancialData.RevenueGrowth.Raw),
		EarningsGrowth: percent(r.FinancialData.EarningsGrowth.Raw),
	}, nil
}

// FetchTopHoldings reads the topHoldings module, preserving Yahoo's order.
func (f *YahooFetcher) FetchTopHoldings(ctx context.Context, etf string, limit int) ([]string, error) {
	s, err := f.summary(ctx, etf, []string{"topHoldings"})
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, h := range s.QuoteSummary.Result[0].TopHoldings.Holdings {
		if sym := strings.TrimSpace(h.Symbol); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	return capHoldings(symbols, limit), nil
}

func percent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(*v * 100)
}

// strictlyIncreasing sorts points by date and keeps the last sample for any repeated date.
func strictlyIncreasing(points []model.PricePoint) []model.PricePoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && !p.Date.After(out[n-1].Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
