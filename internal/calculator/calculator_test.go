package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPicker/internal/model"
)

func monthlySeries(symbol string, closes ...float64) *model.PriceSeries {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = model.PricePoint{Date: start.AddDate(0, i, 0), Close: c}
	}
	return &model.PriceSeries{Symbol: symbol, Interval: model.IntervalMonthly, Points: points}
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCompute_EmptySeries(t *testing.T) {
	rec := Compute(monthlySeries("EMPTY"), nil)

	assert.Equal(t, "EMPTY", rec.Symbol)
	assert.Zero(t, rec.SixMonthChange)
	assert.Zero(t, rec.OneYearChange)
	assert.Zero(t, rec.CAGR5)
	assert.Zero(t, rec.CAGR10)
	assert.Nil(t, rec.RSI)
	assert.Zero(t, rec.Samples)
}

func TestCompute_NilSeries(t *testing.T) {
	rec := Compute(nil, nil)
	assert.Zero(t, rec.Samples)
	assert.Zero(t, rec.CAGR10)
}

func TestCompute_LongSeriesCAGR(t *testing.T) {
	closes := make([]float64, 130)
	for i := range closes {
		closes[i] = 50 + float64(i)*0.75
	}
	rec := Compute(monthlySeries("LONG", closes...), nil)

	latest := closes[len(closes)-1]
	fiveYear := closes[len(closes)-61]
	tenYear := closes[0]
	assert.InDelta(t, (math.Pow(latest/fiveYear, 0.2)-1)*100, rec.CAGR5, 1e-9)
	assert.InDelta(t, (math.Pow(latest/tenYear, 0.1)-1)*100, rec.CAGR10, 1e-9)
	assert.InDelta(t, (latest-closes[len(closes)-6])/closes[len(closes)-6]*100, rec.SixMonthChange, 1e-9)
	assert.InDelta(t, (latest-closes[len(closes)-12])/closes[len(closes)-12]*100, rec.OneYearChange, 1e-9)
	assert.Empty(t, rec.Degenerate)
	assert.False(t, math.IsInf(rec.CAGR5, 0) || math.IsNaN(rec.CAGR5))
}

func TestCompute_ShortHistoryNeutralCAGR5(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	rec := Compute(monthlySeries("SHORT", closes...), nil)

	assert.Zero(t, rec.CAGR5)
	assert.Contains(t, rec.Degenerate, "five_year")
	assert.NotContains(t, rec.Degenerate, "six_month")
	assert.Greater(t, rec.CAGR10, 0.0)
}

func TestCompute_TinySeriesFallsBackToEarliest(t *testing.T) {
	rec := Compute(monthlySeries("TINY", 100, 90, 80), nil)

	assert.InDelta(t, -20.0, rec.SixMonthChange, 1e-9)
	assert.InDelta(t, -20.0, rec.OneYearChange, 1e-9)
	assert.Zero(t, rec.CAGR5)
	assert.ElementsMatch(t, []string{"six_month", "one_year", "five_year"}, rec.Degenerate)
}

func TestCompute_DipWithLongTermGrowth(t *testing.T) {
	closes := flat(70, 100)
	closes[len(closes)-61] = 30
	closes[len(closes)-1] = 40

	rec := Compute(monthlySeries("DIP", closes...), nil)

	assert.InDelta(t, -60.0, rec.SixMonthChange, 1e-9)
	assert.InDelta(t, -60.0, rec.OneYearChange, 1e-9)
	assert.InDelta(t, 5.92, rec.CAGR5, 0.01)
	assert.Less(t, rec.CAGR10, 0.0)
}

func TestCompute_FundamentalsPassThrough(t *testing.T) {
	f := &model.Fundamentals{CurrentRatio: model.Float(1.5), PERatio: model.Float(0)}
	rec := Compute(monthlySeries("F", 1, 2, 3), f)

	require.NotNil(t, rec.Fundamentals.CurrentRatio)
	assert.Equal(t, 1.5, *rec.Fundamentals.CurrentRatio)
	require.NotNil(t, rec.Fundamentals.PERatio)
	assert.Zero(t, *rec.Fundamentals.PERatio)
	assert.Nil(t, rec.Fundamentals.PBRatio)
	assert.Nil(t, rec.Fundamentals.DebtToEquity)
}

func TestHorizons_ByInterval(t *testing.T) {
	tests := []struct {
		interval model.Interval
		six      int
		year     int
		five     int
	}{
		{model.IntervalMonthly, 6, 12, 61},
		{model.IntervalWeekly, 26, 52, 261},
		{model.IntervalDaily, 126, 252, 1261},
	}
	for _, tt := range tests {
		t.Run(string(tt.interval), func(t *testing.T) {
			h := Horizons(tt.interval)
			assert.Equal(t, tt.six, h.SixMonth.Offset)
			assert.Equal(t, tt.year, h.OneYear.Offset)
			assert.Equal(t, tt.five, h.FiveYear.Offset)
			assert.Equal(t, FallbackLatest, h.FiveYear.Fallback)
			assert.Equal(t, FallbackEarliest, h.SixMonth.Fallback)
		})
	}
}

func TestHorizonBase_ZeroFiveYearUsesLatest(t *testing.T) {
	closes := flat(61, 20)
	closes[0] = 0
	base, degenerate := Horizons(model.IntervalMonthly).FiveYear.Base(closes)
	assert.Equal(t, 20.0, base)
	assert.True(t, degenerate)
}

func TestPercentChange_ZeroBase(t *testing.T) {
	assert.Zero(t, PercentChange(10, 0))
	assert.Zero(t, PercentChange(10, math.NaN()))
	assert.InDelta(t, 50.0, PercentChange(15, 10), 1e-9)
}

func TestCAGR_InvalidRatio(t *testing.T) {
	assert.Zero(t, CAGR(-5, 10, 5))
	assert.Zero(t, CAGR(10, 0, 5))
	assert.Zero(t, CAGR(10, 10, 0))
	assert.InDelta(t, 0.0, CAGR(10, 10, 5), 1e-12)
}

func TestCalculateRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i)
	}
	alternating := []float64{10}
	for i := 0; i < 7; i++ {
		last := alternating[len(alternating)-1]
		alternating = append(alternating, last+2, last+1)
	}

	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"all gains", rising, 100},
		{"flat", flat(15, 5), 100},
		{"alternating, seven losses", alternating, 100 - 100/(1+12.0/7)},
		{"all losses", []float64{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi, err := CalculateRSI(tt.closes, DefaultRSIPeriod)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, rsi, 1e-9)
			assert.GreaterOrEqual(t, rsi, 0.0)
			assert.LessOrEqual(t, rsi, 100.0)
		})
	}
}

func TestCalculateRSI_UsesOnlyTrailingWindow(t *testing.T) {
	closes := append([]float64{1000, 1}, flat(12, 50)...)
	closes = append(closes, 51)
	rsi, err := CalculateRSI(closes, DefaultRSIPeriod)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)
}

func TestCalculateRSI_IgnoresDropBeforeWindow(t *testing.T) {
	// 15 closes: the 200 -> 100 drop is the 15th sample back and falls outside.
	closes := []float64{200}
	for v := 100.0; v <= 113; v++ {
		closes = append(closes, v)
	}
	require.Len(t, closes, 15)

	rsi, err := CalculateRSI(closes, DefaultRSIPeriod)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	// A trailing loss enters the window; the drop stays out.
	rsi, err = CalculateRSI(append(closes, 112), DefaultRSIPeriod)
	require.NoError(t, err)
	assert.InDelta(t, 100-100/13.0, rsi, 1e-9)
}

func TestCalculateRSI_Errors(t *testing.T) {
	_, err := CalculateRSI([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
	_, err = CalculateRSI([]float64{1}, DefaultRSIPeriod)
	assert.Error(t, err)
}
