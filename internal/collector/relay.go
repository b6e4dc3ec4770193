package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"StockPicker/internal/model"
)

var errNotFound = errors.New("not found")

// RelayFetcher implements MarketData and Holdings against a self-hosted JSON relay.
type RelayFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
	log     zerolog.Logger
}

// NewRelayFetcher creates a new relay client with optional proxy support.
func NewRelayFetcher(baseURL, apiKey, proxyURL string, rps float64, log zerolog.Logger) *RelayFetcher {
	return &RelayFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		Limiter: newLimiter(rps),
		log:     log.With().Str("provider", "relay").Logger(),
	}
}

func (f *RelayFetcher) Name() string { return "relay" }

// relayBar is the expected JSON shape of one history sample.
type relayBar struct {
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
}

// FetchHistory asks the relay for the requested interval. If the relay has no
// such endpoint it falls back to daily bars and resamples them.
func (f *RelayFetcher) FetchHistory(ctx context.Context, symbol string, start time.Time, interval model.Interval) (*model.PriceSeries, error) {
	points, err := f.fetchBars(ctx, symbol, start, interval)
	if errors.Is(err, errNotFound) && interval != model.IntervalDaily {
		daily, dailyErr := f.fetchBars(ctx, symbol, start, model.IntervalDaily)
		if dailyErr != nil {
			return nil, fmt.Errorf("%s fetch failed: %w; daily fallback also failed: %w", interval, err, dailyErr)
		}
		f.log.Debug().Str("symbol", symbol).Str("interval", string(interval)).Msg("resampling daily bars")
		points, err = Resample(daily, interval), nil
	}
	if err != nil {
		return nil, err
	}
	return &model.PriceSeries{Symbol: symbol, Interval: interval, Points: points, FetchedAt: time.Now()}, nil
}

func (f *RelayFetcher) fetchBars(ctx context.Context, symbol string, start time.Time, interval model.Interval) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(interval))
	q.Set("start", start.Format("2006-01-02"))

	var bars []relayBar
	if err := f.getJSON(ctx, "/api/v1/history?"+q.Encode(), &bars); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	points := make([]model.PricePoint, 0, len(bars))
	for _, b := range bars {
		if b.Close == 0 {
			continue
		}
		points = append(points, model.PricePoint{Date: time.Unix(b.Timestamp, 0).UTC(), Close: b.Close})
	}
	return strictlyIncreasing(points), nil
}

// FetchFundamentals decodes the relay's fundamentals object; omitted keys stay absent.
func (f *RelayFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	var fund model.Fundamentals
	if err := f.getJSON(ctx, "/api/v1/fundamentals?symbol="+url.QueryEscape(symbol), &fund); err != nil {
		return nil, fmt.Errorf("fetch fundamentals: %w", err)
	}
	return &fund, nil
}

// FetchTopHoldings returns the relay's ordered symbol list.
func (f *RelayFetcher) FetchTopHoldings(ctx context.Context, etf string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("etf", etf)
	q.Set("limit", fmt.Sprintf("%d", limit))
	var symbols []string
	if err := f.getJSON(ctx, "/api/v1/holdings?"+q.Encode(), &symbols); err != nil {
		return nil, fmt.Errorf("fetch holdings: %w", err)
	}
	return capHoldings(symbols, limit), nil
}

func (f *RelayFetcher) getJSON(ctx context.Context, path string, dst interface{}) error {
	if err := f.Limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Resample reduces chronologically ordered daily points to one point per
// period: the last close of each ISO week or calendar month.
func Resample(daily []model.PricePoint, interval model.Interval) []model.PricePoint {
	if len(daily) == 0 || interval == model.IntervalDaily {
		return daily
	}
	periodKey := func(t time.Time) int {
		if interval == model.IntervalWeekly {
			y, w := t.ISOWeek()
			return y*100 + w
		}
		return t.Year()*100 + int(t.Month())
	}

	var out []model.PricePoint
	current := periodKey(daily[0].Date)
	last := daily[0]
	for _, d := range daily[1:] {
		if k := periodKey(d.Date); k != current {
			out = append(out, last)
			current = k
		}
		last = d
	}
	return append(out, last)
}
