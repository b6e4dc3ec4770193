package calculator

import (
	"math"

	"StockPicker/internal/model"
)

// Fallback names the sample used when a series is too short for a horizon.
type Fallback int

const (
	// FallbackEarliest uses the oldest sample in the series.
	FallbackEarliest Fallback = iota
	// FallbackLatest uses the newest sample, which makes the derived return 0%.
	FallbackLatest
)

func (f Fallback) String() string {
	if f == FallbackLatest {
		return "latest"
	}
	return "earliest"
}

// Horizon is one row of the fallback table: the base sample sits Offset samples
// before the end of the series (index len-Offset). Offset 0 anchors on the
// earliest sample unconditionally.
type Horizon struct {
	Name     string
	Offset   int
	Fallback Fallback
}

// HorizonTable holds the lookback horizons used by Compute.
type HorizonTable struct {
	SixMonth Horizon
	OneYear  Horizon
	FiveYear Horizon
	TenYear  Horizon
}

// Horizons derives the table from the sampling interval. Monthly samples give
// offsets 6, 12 and 61 (five years plus one anchor sample).
func Horizons(interval model.Interval) HorizonTable {
	perYear := interval.SamplesPerYear()
	return HorizonTable{
		SixMonth: Horizon{Name: "six_month", Offset: perYear / 2, Fallback: FallbackEarliest},
		OneYear:  Horizon{Name: "one_year", Offset: perYear, Fallback: FallbackEarliest},
		FiveYear: Horizon{Name: "five_year", Offset: 5*perYear + 1, Fallback: FallbackLatest},
		TenYear:  Horizon{Name: "ten_year", Offset: 0, Fallback: FallbackEarliest},
	}
}

// Base resolves the base close for the horizon. degenerate is true when the
// fallback sample was used. closes must not be empty.
func (h Horizon) Base(closes []float64) (base float64, degenerate bool) {
	n := len(closes)
	if h.Offset <= 0 {
		return closes[0], false
	}
	idx := n - h.Offset
	if idx >= 0 {
		base = closes[idx]
		if h.Fallback == FallbackLatest && !usable(base) {
			return closes[n-1], true
		}
		return base, false
	}
	if h.Fallback == FallbackLatest {
		return closes[n-1], true
	}
	return closes[0], true
}

// PercentChange returns (latest-base)/base*100, or 0 when base cannot divide.
func PercentChange(latest, base float64) float64 {
	if !usable(base) || math.IsNaN(latest) || math.IsInf(latest, 0) {
		return 0
	}
	return (latest - base) / base * 100
}

// CAGR returns the compound annual growth rate in percent over years, or 0
// when the ratio is not a positive finite number.
func CAGR(latest, base, years float64) float64 {
	if years <= 0 || !usable(base) {
		return 0
	}
	ratio := latest / base
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return (math.Pow(ratio, 1/years) - 1) * 100
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
