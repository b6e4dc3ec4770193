// Package pipeline executes one complete screening run: build the report,
// deliver it and journal it.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"StockPicker/internal/model"
	"StockPicker/internal/notifier"
	"StockPicker/internal/recorder"
	"StockPicker/internal/report"
)

// ReportBuilder is satisfied by *report.Aggregator.
type ReportBuilder interface {
	BuildReport(ctx context.Context, etfs []string) *model.Report
}

// Runner wires a report builder to delivery and the run journal. Runs are
// serialized so a cron tick and a manual trigger never overlap.
type Runner struct {
	Builder    ReportBuilder
	Dispatcher *notifier.Dispatcher
	Recorder   recorder.Recorder
	ETFs       []string
	Subject    string
	NewID      func() string

	mu  sync.Mutex
	log zerolog.Logger
}

func NewRunner(builder ReportBuilder, dispatcher *notifier.Dispatcher, rec recorder.Recorder, etfs []string, subject string, log zerolog.Logger) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		Builder:    builder,
		Dispatcher: dispatcher,
		Recorder:   rec,
		ETFs:       etfs,
		Subject:    subject,
		NewID:      uuid.NewString,
		log:        log.With().Str("component", "runner").Logger(),
	}
}

// Run screens etfs (or the configured list when empty). Delivery and journal
// failures are logged; only an empty ETF list is returned as an error.
func (r *Runner) Run(ctx context.Context, etfs []string) (*model.Report, error) {
	if len(etfs) == 0 {
		etfs = r.ETFs
	}
	etfs = normalize(etfs)
	if len(etfs) == 0 {
		return nil, fmt.Errorf("%w: no ETF symbols to screen", model.ErrFatalConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	runID := r.NewID()
	log := r.log.With().Str("run_id", runID).Logger()
	log.Info().Strs("etfs", etfs).Msg("run started")
	start := time.Now()

	rep := r.Builder.BuildReport(ctx, etfs)
	rep.RunID = runID

	if r.Dispatcher != nil && r.Dispatcher.Len() > 0 {
		r.Dispatcher.Dispatch(ctx, r.Subject, report.Render(rep))
	}
	if err := r.Recorder.RecordRun(rep); err != nil {
		log.Error().Err(err).Msg("record run")
	}

	log.Info().Int("sections", len(rep.Sections)).Int("passed", rep.PassedCount()).
		Dur("duration", time.Since(start)).Msg("run finished")
	return rep, nil
}

func normalize(etfs []string) []string {
	out := make([]string, 0, len(etfs))
	for _, e := range etfs {
		if e = strings.ToUpper(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}
