package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTMLHoldings scrapes an ETF holdings table from a public web page.
// URLTemplate contains a single %s for the ETF symbol.
type HTMLHoldings struct {
	URLTemplate string
	Client      *http.Client
	Limiter     *rate.Limiter
	log         zerolog.Logger
}

// NewHTMLHoldings creates a scraper for the given page template.
func NewHTMLHoldings(urlTemplate, proxyURL string, rps float64, log zerolog.Logger) *HTMLHoldings {
	return &HTMLHoldings{
		URLTemplate: urlTemplate,
		Client:      newHTTPClient(proxyURL),
		Limiter:     newLimiter(rps),
		log:         log.With().Str("provider", "html").Logger(),
	}
}

func (h *HTMLHoldings) Name() string { return "html" }

// FetchTopHoldings parses the first table with a "Symbol" (or "Ticker") header.
func (h *HTMLHoldings) FetchTopHoldings(ctx context.Context, etf string, limit int) ([]string, error) {
	if err := h.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("holdings rate limit: %w", err)
	}
	u := fmt.Sprintf(h.URLTemplate, strings.ToLower(etf))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "text/html")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holdings page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("holdings page: status %d, body: %s", resp.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse holdings page: %w", err)
	}
	symbols := extractHoldingSymbols(doc)
	h.log.Debug().Str("etf", etf).Int("found", len(symbols)).Msg("holdings scraped")
	return capHoldings(symbols, limit), nil
}

func extractHoldingSymbols(doc *goquery.Document) []string {
	var symbols []string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := -1
		table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
			label := strings.ToLower(strings.TrimSpace(th.Text()))
			if label == "symbol" || label == "ticker" {
				col = i
				return false
			}
			return true
		})
		if col < 0 {
			return true
		}
		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			fields := strings.Fields(row.Find("td").Eq(col).Text())
			if len(fields) == 0 {
				return
			}
			switch cell := strings.ToUpper(fields[0]); cell {
			case "N/A", "--", "-":
			default:
				symbols = append(symbols, cell)
			}
		})
		return len(symbols) == 0
	})
	return symbols
}
