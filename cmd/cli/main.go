package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sguter90/sensorcharts/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type contextKey string

const configContextKey contextKey = "config"

var logLevelFlag string

var rootCmd = &cobra.Command{
	Use:   "sensorcharts",
	Short: "SensorCharts - live IoT measurement charts",
	Long: `SensorCharts connects to the live measurement stream of IoT devices,
accumulates voltage, current and battery samples per channel and keeps
chart-ready series up to date.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (overrides LOG_LEVEL)")
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and configures logging for every command
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevelFlag != "" {
		level, err := logrus.ParseLevel(logLevelFlag)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.LogLevel = level
	}
	logrus.SetLevel(cfg.LogLevel)

	cmd.SetContext(context.WithValue(cmd.Context(), configContextKey, &cfg))
	return nil
}

// appConfig returns the configuration loaded for the running command
func appConfig(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configContextKey).(*config.Config)
	if cfg == nil {
		cfg = &config.Config{}
	}
	return cfg
}
