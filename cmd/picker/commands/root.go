package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"StockPicker/internal/config"
	"StockPicker/internal/logger"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "picker",
	Short: "Stock Picker - ETF constituent dip screener",
	Long: `Stock Picker screens the top holdings of dividend ETFs for
short-term dips in long-term growers and delivers a plain-text report.

Examples:
  picker run
  picker run VIG SCHD --no-notify
  picker serve --run-now`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfig, "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug|info|warn|error)")
}

// loadConfig loads and validates configuration and builds the logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return nil, log, err
	}
	return cfg, log, nil
}
