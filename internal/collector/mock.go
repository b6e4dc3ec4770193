package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockPicker/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without explicit data get a generated, gently rising series.
type MockFetcher struct {
	Price        float64
	Closes       map[string][]float64
	Fundamentals map[string]*model.Fundamentals
	Holdings     map[string][]string
	Errors       map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many history requests were made for symbol.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockFetcher) record(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
}

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, start time.Time, interval model.Interval) (*model.PriceSeries, error) {
	m.record(symbol)
	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}
	closes, ok := m.Closes[symbol]
	if !ok {
		closes = generateMockCloses(m.Price, 130)
	}
	points := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = model.PricePoint{Date: start.AddDate(0, i, 0), Close: c}
	}
	return &model.PriceSeries{Symbol: symbol, Interval: interval, Points: points, FetchedAt: time.Now()}, nil
}

func (m *MockFetcher) FetchFundamentals(_ context.Context, symbol string) (*model.Fundamentals, error) {
	if err := m.Errors["fundamentals:"+symbol]; err != nil {
		return nil, err
	}
	if f, ok := m.Fundamentals[symbol]; ok {
		return f, nil
	}
	return &model.Fundamentals{}, nil
}

func (m *MockFetcher) FetchTopHoldings(_ context.Context, etf string, limit int) ([]string, error) {
	if err := m.Errors["holdings:"+etf]; err != nil {
		return nil, err
	}
	symbols, ok := m.Holdings[etf]
	if !ok {
		for i := 1; i <= limit; i++ {
			symbols = append(symbols, fmt.Sprintf("%s-%d", etf, i))
		}
	}
	return capHoldings(symbols, limit), nil
}

func generateMockCloses(basePrice float64, count int) []float64 {
	if basePrice <= 0 {
		basePrice = 100
	}
	closes := make([]float64, count)
	for i := 0; i < count; i++ {
		closes[i] = basePrice * (1 + float64(i-count/2)*0.001)
	}
	return closes
}
