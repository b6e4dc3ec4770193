package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"StockPicker/internal/report"
)

var noNotify bool

var runCmd = &cobra.Command{
	Use:   "run [ETF ...]",
	Short: "Screen ETFs once and print the report",
	Long: `Screen the given ETFs (or the configured list) once, print the
report to stdout and deliver it to every enabled notification channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := buildApp(cfg, log, !noNotify)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rep, err := a.runner.Run(ctx, args)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Render(rep))
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&noNotify, "no-notify", false, "print only, skip notification channels")
	rootCmd.AddCommand(runCmd)
}
