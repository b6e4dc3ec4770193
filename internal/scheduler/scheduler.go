package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockPicker/internal/model"
)

// Runner executes one screening run.
type Runner interface {
	Run(ctx context.Context, etfs []string) (*model.Report, error)
}

// Scheduler triggers runs from cron and from chat commands.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Ctx    context.Context
	log    zerolog.Logger
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, runner Runner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: runner,
		Ctx:    ctx,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the report task on a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.reportTask); err != nil {
		return fmt.Errorf("%w: register report task %q: %v", model.ErrFatalConfiguration, spec, err)
	}
	s.log.Info().Str("cron", spec).Msg("report task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the report task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.reportTask()
}

func (s *Scheduler) reportTask() {
	s.log.Info().Msg("running report task")
	if _, err := s.Runner.Run(s.Ctx, nil); err != nil {
		s.log.Error().Err(err).Msg("report task failed")
	}
}

// HandleCommand processes a chat command and returns a reply.
// "/report" screens the configured ETFs, "/report VIG SCHD" the given ones.
// A successful run replies with nothing: the runner already delivered the
// report to every route, the command's chat included.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch strings.ToLower(fields[0]) {
	case "/report", "/run":
		if _, err := s.Runner.Run(ctx, fields[1:]); err != nil {
			return fmt.Sprintf("❌ run failed: %v", err)
		}
		return ""
	default:
		return "Available commands:\n• /report [ETF ...] - screen ETFs now\n• /help - show this message"
	}
}
