// Package opinion asks an external text service for a short buy/hold note on
// a passing security. The note is advisory and never affects screening.
package opinion

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"StockPicker/internal/model"
)

// Completer turns a prompt into free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Annotator builds prompts from metrics and delegates to a Completer.
type Annotator struct {
	completer Completer
	log       zerolog.Logger
}

// NewAnnotator returns nil when completer is nil so callers can skip annotation.
func NewAnnotator(completer Completer, log zerolog.Logger) *Annotator {
	if completer == nil {
		return nil
	}
	return &Annotator{
		completer: completer,
		log:       log.With().Str("opinion", completer.Name()).Logger(),
	}
}

// Prompt renders the question sent for a security.
func Prompt(m model.MetricsRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock: %s\n", m.Symbol)
	fmt.Fprintf(&b, "6M Change: %.2f%%\n", m.SixMonthChange)
	fmt.Fprintf(&b, "1Y Change: %.2f%%\n", m.OneYearChange)
	fmt.Fprintf(&b, "5Y CAGR: %.2f%%\n", m.CAGR5)
	fmt.Fprintf(&b, "10Y CAGR: %.2f%%\n", m.CAGR10)
	b.WriteString("\nQuestion: Based on this data, should this stock be considered for buying?\n")
	b.WriteString("Give a short yes/no with reasoning.")
	return b.String()
}

// Annotate returns the opinion text. Any failure is logged and returned
// wrapped in model.ErrAnnotationFailure.
func (a *Annotator) Annotate(ctx context.Context, m model.MetricsRecord) (string, error) {
	text, err := a.completer.Complete(ctx, Prompt(m))
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = fmt.Errorf("empty response")
		}
	}
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", m.Symbol).Msg("annotation failed")
		return "", fmt.Errorf("%w: %s: %v", model.ErrAnnotationFailure, m.Symbol, err)
	}
	return text, nil
}
