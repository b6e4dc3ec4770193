package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPicker/internal/model"
)

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("", 0, zerolog.Nop())
	f.ChartURL = srv.URL
	f.SummaryURL = srv.URL
	f.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestYahooFetchHistory(t *testing.T) {
	var gotPath, gotInterval string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1700000000,1600000000,1650000000,1660000000],
			"indicators":{"quote":[{"close":[30.5,10.0,null,20.25]}]}}],"error":null}}`)
	})

	series, err := f.FetchHistory(context.Background(), "AAPL", time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), model.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, "1mo", gotInterval)
	assert.Equal(t, []float64{10.0, 20.25, 30.5}, series.Closes())
	assert.Equal(t, model.IntervalMonthly, series.Interval)
}

func TestYahooFetchHistoryEmptyResult(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})
	series, err := f.FetchHistory(context.Background(), "NEW", time.Now(), model.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, 0, series.Len())
}

func TestYahooErrors(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "BAD") {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "boom")
			return
		}
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})

	_, err := f.FetchHistory(context.Background(), "BAD", time.Now(), model.IntervalMonthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	_, err = f.FetchHistory(context.Background(), "GONE", time.Now(), model.IntervalMonthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooFetchFundamentals(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/MSFT", r.URL.Path)
		fmt.Fprint(w, `{"quoteSummary":{"result":[{
			"summaryDetail":{"trailingPE":{"raw":31.5}},
			"defaultKeyStatistics":{"priceToBook":{"raw":0}},
			"financialData":{"currentRatio":{"raw":1.3},"revenueGrowth":{"raw":0.12}}
		}],"error":null}}`)
	})

	fund, err := f.FetchFundamentals(context.Background(), "MSFT")
	require.NoError(t, err)
	require.NotNil(t, fund.PERatio)
	assert.Equal(t, 31.5, *fund.PERatio)
	require.NotNil(t, fund.PBRatio)
	assert.Equal(t, 0.0, *fund.PBRatio)
	assert.Nil(t, fund.PEGRatio)
	assert.Nil(t, fund.DebtToEquity)
	assert.Equal(t, 1.3, *fund.CurrentRatio)
	assert.InDelta(t, 12.0, *fund.RevenueGrowth, 1e-9)
	assert.Nil(t, fund.EarningsGrowth)
}

func TestYahooFetchTopHoldings(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "topHoldings", r.URL.Query().Get("modules"))
		fmt.Fprint(w, `{"quoteSummary":{"result":[{"topHoldings":{"holdings":[
			{"symbol":"AVGO"},{"symbol":" "},{"symbol":"CSCO"},{"symbol":"HD"}]}}],"error":null}}`)
	})

	holdings, err := f.FetchTopHoldings(context.Background(), "SCHD", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"AVGO", "CSCO"}, holdings)
}

const holdingsPage = `<html><body>
<table><thead><tr><th>Rank</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>
<table class="holdings">
  <thead><tr><th>#</th><th>Name</th><th>Symbol</th><th>Weight</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>Microsoft</td><td>msft</td><td>6.1%</td></tr>
    <tr><td>2</td><td>Cash</td><td>N/A</td><td>1.0%</td></tr>
    <tr><td>3</td><td>Apple</td><td> AAPL </td><td>5.2%</td></tr>
    <tr><td>4</td><td>Other</td><td></td><td>0.5%</td></tr>
    <tr><td>5</td><td>JPMorgan</td><td>JPM</td><td>3.3%</td></tr>
  </tbody>
</table></body></html>`

func TestHTMLHoldings(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, holdingsPage)
	}))
	defer srv.Close()

	h := NewHTMLHoldings(srv.URL+"/etf/%s/holdings", "", 0, zerolog.Nop())
	got, err := h.FetchTopHoldings(context.Background(), "VIG", 10)
	require.NoError(t, err)
	assert.Equal(t, "/etf/vig/holdings", gotPath)
	assert.Equal(t, []string{"MSFT", "AAPL", "JPM"}, got)

	got, err = h.FetchTopHoldings(context.Background(), "VIG", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "AAPL"}, got)
}

func TestHTMLHoldingsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	h := NewHTMLHoldings(srv.URL+"/%s", "", 0, zerolog.Nop())
	_, err := h.FetchTopHoldings(context.Background(), "VIG", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestRelayFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/history":
			assert.Equal(t, "2020-01-01", r.URL.Query().Get("start"))
			fmt.Fprint(w, `[{"timestamp":1580515200,"close":20},{"timestamp":1577836800,"close":10}]`)
		case "/api/v1/fundamentals":
			fmt.Fprint(w, `{"pe_ratio":12.5,"current_ratio":1.1}`)
		case "/api/v1/holdings":
			assert.Equal(t, "SCHD", r.URL.Query().Get("etf"))
			fmt.Fprint(w, `["AVGO","CSCO","HD"]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRelayFetcher(srv.URL, "secret", "", 0, zerolog.Nop())
	ctx := context.Background()

	series, err := f.FetchHistory(ctx, "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), model.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, series.Closes())

	fund, err := f.FetchFundamentals(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 12.5, *fund.PERatio)
	assert.Equal(t, 1.1, *fund.CurrentRatio)
	assert.Nil(t, fund.PBRatio)

	holdings, err := f.FetchTopHoldings(ctx, "SCHD", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"AVGO", "CSCO"}, holdings)
}

func TestRelayFallsBackToDailyResample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1d" {
			http.NotFound(w, r)
			return
		}
		// Jan 30, Jan 31, Feb 3, Feb 28 2020
		fmt.Fprint(w, `[{"timestamp":1580342400,"close":1},{"timestamp":1580428800,"close":2},
			{"timestamp":1580688000,"close":3},{"timestamp":1582848000,"close":4}]`)
	}))
	defer srv.Close()

	f := NewRelayFetcher(srv.URL, "", "", 0, zerolog.Nop())
	series, err := f.FetchHistory(context.Background(), "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), model.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, series.Closes())
	assert.Equal(t, model.IntervalMonthly, series.Interval)
}

func TestResample(t *testing.T) {
	day := func(y int, m time.Month, d int, c float64) model.PricePoint {
		return model.PricePoint{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Close: c}
	}
	daily := []model.PricePoint{
		day(2024, 1, 1, 1),  // Mon, ISO week 1
		day(2024, 1, 5, 2),  // Fri, week 1
		day(2024, 1, 8, 3),  // Mon, week 2
		day(2024, 1, 31, 4), // Wed, week 5
		day(2024, 2, 1, 5),  // Thu, week 5
	}

	closes := func(pts []model.PricePoint) []float64 {
		out := make([]float64, len(pts))
		for i, p := range pts {
			out[i] = p.Close
		}
		return out
	}

	assert.Equal(t, []float64{2, 3, 5}, closes(Resample(daily, model.IntervalWeekly)))
	assert.Equal(t, []float64{4, 5}, closes(Resample(daily, model.IntervalMonthly)))
	assert.Equal(t, daily, Resample(daily, model.IntervalDaily))
	assert.Empty(t, Resample(nil, model.IntervalMonthly))
}

func TestMockFetcher(t *testing.T) {
	boom := errors.New("boom")
	m := &MockFetcher{
		Closes:   map[string][]float64{"AAA": {1, 2, 3}},
		Holdings: map[string][]string{"ETF": {"AAA", "BBB", "CCC"}},
		Errors:   map[string]error{"BAD": boom, "holdings:DEAD": boom},
	}
	ctx := context.Background()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	s, err := m.FetchHistory(ctx, "AAA", start, model.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
	assert.Equal(t, start.AddDate(0, 2, 0), s.Points[2].Date)

	s, err = m.FetchHistory(ctx, "ZZZ", start, model.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, 130, s.Len())

	_, err = m.FetchHistory(ctx, "BAD", start, model.IntervalMonthly)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.Calls("AAA"))

	h, err := m.FetchTopHoldings(ctx, "ETF", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, h)
	_, err = m.FetchTopHoldings(ctx, "DEAD", 2)
	assert.ErrorIs(t, err, boom)
}
