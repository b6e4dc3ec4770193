package strategy

import (
	"fmt"
	"math"
	"strings"

	"StockPicker/internal/model"
)

// Field names a metric that a clause can reference.
type Field string

const (
	FieldSixMonthChange Field = "six_month_change"
	FieldOneYearChange  Field = "one_year_change"
	FieldCAGR5          Field = "cagr5"
	FieldCAGR10         Field = "cagr10"
	FieldRSI            Field = "rsi"
	FieldPERatio        Field = "pe_ratio"
	FieldPBRatio        Field = "pb_ratio"
	FieldPEGRatio       Field = "peg_ratio"
	FieldDebtToEquity   Field = "debt_to_equity"
	FieldCurrentRatio   Field = "current_ratio"
	FieldRevenueGrowth  Field = "revenue_growth"
	FieldEarningsGrowth Field = "earnings_growth"
)

// fundamental reports whether the field comes from the fundamentals bundle.
func (f Field) fundamental() bool {
	switch f {
	case FieldPERatio, FieldPBRatio, FieldPEGRatio, FieldDebtToEquity,
		FieldCurrentRatio, FieldRevenueGrowth, FieldEarningsGrowth:
		return true
	}
	return false
}

// value looks up the field on m. ok is false for absent or non-finite values.
func (f Field) value(m *model.MetricsRecord) (v float64, ok bool) {
	var p *float64
	switch f {
	case FieldSixMonthChange:
		v, ok = m.SixMonthChange, true
	case FieldOneYearChange:
		v, ok = m.OneYearChange, true
	case FieldCAGR5:
		v, ok = m.CAGR5, true
	case FieldCAGR10:
		v, ok = m.CAGR10, true
	case FieldRSI:
		p = m.RSI
	case FieldPERatio:
		p = m.Fundamentals.PERatio
	case FieldPBRatio:
		p = m.Fundamentals.PBRatio
	case FieldPEGRatio:
		p = m.Fundamentals.PEGRatio
	case FieldDebtToEquity:
		p = m.Fundamentals.DebtToEquity
	case FieldCurrentRatio:
		p = m.Fundamentals.CurrentRatio
	case FieldRevenueGrowth:
		p = m.Fundamentals.RevenueGrowth
	case FieldEarningsGrowth:
		p = m.Fundamentals.EarningsGrowth
	default:
		return 0, false
	}
	if p != nil {
		v, ok = *p, true
	}
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Op compares a metric against a threshold.
type Op string

const (
	OpLT  Op = "<"
	OpLTE Op = "<="
	OpGT  Op = ">"
	OpGTE Op = ">="
)

// Clause is a single threshold test.
type Clause struct {
	Field     Field   `yaml:"field"`
	Op        Op      `yaml:"op"`
	Threshold float64 `yaml:"value"`
}

// Eval evaluates the clause. An absent field evaluates to false.
func (c Clause) Eval(m *model.MetricsRecord) bool {
	v, ok := c.Field.value(m)
	if !ok {
		return false
	}
	switch c.Op {
	case OpLT:
		return v < c.Threshold
	case OpLTE:
		return v <= c.Threshold
	case OpGT:
		return v > c.Threshold
	case OpGTE:
		return v >= c.Threshold
	default:
		return false
	}
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Threshold)
}

// Group passes when any of its clauses passes.
type Group struct {
	AnyOf []Clause `yaml:"any_of"`
}

// Eval evaluates the disjunction.
func (g Group) Eval(m *model.MetricsRecord) bool {
	for _, c := range g.AnyOf {
		if c.Eval(m) {
			return true
		}
	}
	return false
}

func (g Group) String() string {
	parts := make([]string, len(g.AnyOf))
	for i, c := range g.AnyOf {
		parts[i] = c.String()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// Validate checks field and operator names.
func (c Clause) Validate() error {
	if _, ok := knownFields[c.Field]; !ok {
		return fmt.Errorf("unknown field %q", c.Field)
	}
	switch c.Op {
	case OpLT, OpLTE, OpGT, OpGTE:
		return nil
	}
	return fmt.Errorf("unknown operator %q for field %s", c.Op, c.Field)
}

var knownFields = map[Field]struct{}{
	FieldSixMonthChange: {}, FieldOneYearChange: {}, FieldCAGR5: {}, FieldCAGR10: {},
	FieldRSI: {}, FieldPERatio: {}, FieldPBRatio: {}, FieldPEGRatio: {},
	FieldDebtToEquity: {}, FieldCurrentRatio: {}, FieldRevenueGrowth: {}, FieldEarningsGrowth: {},
}
