package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"StockPicker/internal/api"
	"StockPicker/internal/scheduler"
)

var (
	runNow  bool
	noHTTP  bool
	cronArg string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled reports, chat commands and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cronArg != "" {
			cfg.Schedule.Cron = cronArg
		}
		a, err := buildApp(cfg, log, true)
		if err != nil {
			return err
		}
		defer a.Close()

		log.Info().Strs("etfs", cfg.ETFs).Msg("Stock Picker starting")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sched := scheduler.NewScheduler(ctx, a.runner, log)
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if a.telegram != nil && cfg.Notify.Telegram.Commands {
			go a.telegram.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")
		}

		var srv *api.Server
		if !noHTTP && cfg.Server.Addr != "" {
			srv = api.NewServer(cfg.Server.Addr, a.runner, log)
			go func() {
				if err := srv.Start(); err != nil {
					log.Error().Err(err).Msg("http server stopped")
				}
			}()
		}

		if runNow || os.Getenv("RUN_ON_START") == "true" {
			log.Info().Msg("run on start enabled, executing report task now")
			go sched.RunNow()
		}

		log.Info().Msg("Stock Picker is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutdown signal received, stopping...")
		cancel()
		if srv != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("http shutdown")
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runNow, "run-now", false, "run a report immediately after start")
	serveCmd.Flags().BoolVar(&noHTTP, "no-http", false, "disable the HTTP API")
	serveCmd.Flags().StringVar(&cronArg, "cron", "", "override schedule.cron (6 fields, seconds first)")
	rootCmd.AddCommand(serveCmd)
}
