package strategy

import (
	"fmt"
	"strings"

	"StockPicker/internal/model"
)

// RuleSet is a conjunction of groups: a record passes when every group passes.
type RuleSet struct {
	Name   string  `yaml:"name"`
	Groups []Group `yaml:"all_of"`
}

// dip is shared by both built-in rule sets: a short-term drawdown of at least 5%.
var dip = Group{AnyOf: []Clause{
	{Field: FieldSixMonthChange, Op: OpLTE, Threshold: -5},
	{Field: FieldOneYearChange, Op: OpLTE, Threshold: -5},
}}

// Lenient buys a short-term dip only while the long-term trend is still positive.
var Lenient = RuleSet{
	Name: "lenient",
	Groups: []Group{
		dip,
		{AnyOf: []Clause{
			{Field: FieldCAGR5, Op: OpGT, Threshold: 0},
			{Field: FieldCAGR10, Op: OpGT, Threshold: 0},
		}},
	},
}

// Strict additionally requires 5%+ growth on both horizons and a healthy current ratio.
var Strict = RuleSet{
	Name: "strict",
	Groups: []Group{
		dip,
		{AnyOf: []Clause{{Field: FieldCAGR5, Op: OpGT, Threshold: 5}}},
		{AnyOf: []Clause{{Field: FieldCAGR10, Op: OpGT, Threshold: 5}}},
		{AnyOf: []Clause{{Field: FieldCurrentRatio, Op: OpGT, Threshold: 1.2}}},
	},
}

// Named returns a built-in rule set by name.
func Named(name string) (RuleSet, error) {
	switch strings.ToLower(name) {
	case "", Lenient.Name, "a":
		return Lenient, nil
	case Strict.Name, "b":
		return Strict, nil
	}
	return RuleSet{}, fmt.Errorf("unknown rule set %q", name)
}

// Screen evaluates the rule set against m. It never panics and has no side effects.
func (r RuleSet) Screen(m model.MetricsRecord) bool {
	if len(r.Groups) == 0 {
		return false
	}
	for _, g := range r.Groups {
		if !g.Eval(&m) {
			return false
		}
	}
	return true
}

// NeedsFundamentals reports whether any clause references the fundamentals bundle.
func (r RuleSet) NeedsFundamentals() bool {
	for _, g := range r.Groups {
		for _, c := range g.AnyOf {
			if c.Field.fundamental() {
				return true
			}
		}
	}
	return false
}

// Validate rejects empty rule sets and unknown fields or operators.
func (r RuleSet) Validate() error {
	if len(r.Groups) == 0 {
		return fmt.Errorf("rule set %q has no groups", r.Name)
	}
	for i, g := range r.Groups {
		if len(g.AnyOf) == 0 {
			return fmt.Errorf("rule set %q: group %d is empty", r.Name, i)
		}
		for _, c := range g.AnyOf {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("rule set %q: %w", r.Name, err)
			}
		}
	}
	return nil
}

func (r RuleSet) String() string {
	parts := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		parts[i] = g.String()
	}
	return strings.Join(parts, " AND ")
}
