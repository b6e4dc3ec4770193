package calculator

import "StockPicker/internal/model"

// Compute turns a price series and optional fundamentals into a metrics record.
// An empty series yields all-zero derived fields; the caller must not screen it.
func Compute(series *model.PriceSeries, fundamentals *model.Fundamentals) model.MetricsRecord {
	rec := model.MetricsRecord{}
	if series != nil {
		rec.Symbol = series.Symbol
	}
	if fundamentals != nil {
		rec.Fundamentals = *fundamentals
	}
	if series.Len() == 0 {
		return rec
	}

	interval := series.Interval
	if !interval.Valid() {
		interval = model.IntervalMonthly
	}
	table := Horizons(interval)
	closes := series.Closes()
	latest := closes[len(closes)-1]
	rec.Samples = len(closes)

	sixMonth, d6 := table.SixMonth.Base(closes)
	oneYear, d12 := table.OneYear.Base(closes)
	fiveYear, d5 := table.FiveYear.Base(closes)
	tenYear, _ := table.TenYear.Base(closes)
	if d6 {
		rec.Degenerate = append(rec.Degenerate, table.SixMonth.Name)
	}
	if d12 {
		rec.Degenerate = append(rec.Degenerate, table.OneYear.Name)
	}
	if d5 {
		rec.Degenerate = append(rec.Degenerate, table.FiveYear.Name)
	}

	rec.SixMonthChange = PercentChange(latest, sixMonth)
	rec.OneYearChange = PercentChange(latest, oneYear)
	rec.CAGR5 = CAGR(latest, fiveYear, 5)
	rec.CAGR10 = CAGR(latest, tenYear, 10)

	if rsi, err := CalculateRSI(closes, DefaultRSIPeriod); err == nil {
		rec.RSI = model.Float(rsi)
	}
	return rec
}
