package model

import "time"

// PricePoint is one observed closing price.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries holds one symbol's sampled closing prices, oldest first.
type PriceSeries struct {
	Symbol    string
	Interval  Interval
	Points    []PricePoint
	FetchedAt time.Time
}

// Len returns the number of samples in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Closes returns the closing prices in series order.
func (s *PriceSeries) Closes() []float64 {
	if s == nil {
		return nil
	}
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Interval is the sampling interval of a price series.
type Interval string

const (
	IntervalDaily   Interval = "1d"
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// SamplesPerYear returns how many samples of this interval make up one year.
func (i Interval) SamplesPerYear() int {
	switch i {
	case IntervalDaily:
		return 252
	case IntervalWeekly:
		return 52
	default:
		return 12
	}
}

// Valid reports whether the interval is one of the supported values.
func (i Interval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// Fundamentals is an optional bundle of valuation ratios. A nil field is absent, never zero.
type Fundamentals struct {
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	PBRatio        *float64 `json:"pb_ratio,omitempty"`
	PEGRatio       *float64 `json:"peg_ratio,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	CurrentRatio   *float64 `json:"current_ratio,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`  // percent
	EarningsGrowth *float64 `json:"earnings_growth,omitempty"` // percent
}

// Float returns a pointer to v. Used to populate optional fields.
func Float(v float64) *float64 {
	return &v
}
