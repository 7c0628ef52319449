package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sguter90/sensorcharts/pkg/monitor"
	"github.com/sguter90/sensorcharts/pkg/processor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <device-id>",
	Short: "Stream a device and log chart updates",
	Long: `Connect to the live stream of one device, process every frame and log
the per-message statistics until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchKinds    []string
	watchFailFast bool
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVarP(&watchKinds, "kind", "k", nil, "measurement kinds to chart (default: all registered)")
	watchCmd.Flags().BoolVar(&watchFailFast, "fail-fast", false, "stop on configuration errors instead of retrying")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := appConfig(cmd)
	registry := newKindRegistry(cfg)

	client, err := newPlatformClient(cfg)
	if err != nil {
		return err
	}

	opts := cfg.Connection
	opts.FailFast = opts.FailFast || watchFailFast

	m, err := monitor.New(monitor.Config{
		EntityID:   args[0],
		Kinds:      selectKinds(registry, watchKinds),
		Resolver:   client,
		Connection: opts,
		Logger:     logrus.StandardLogger(),
		OnUpdate:   logUpdate,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Infof("Watching device %s (%s)", m.EntityID, strings.Join(m.Kinds(), ", "))
	if err := m.Start(ctx); err != nil {
		logrus.WithError(err).Warn("⚠ First connection attempt failed")
	}

	<-ctx.Done()
	logrus.Info("Shutdown signal received")
	m.Stop()
	return nil
}

func logUpdate(m *monitor.Monitor, update *processor.Update) {
	fields := logrus.Fields{
		"kind":     update.Kind,
		"channels": update.MaxChannelIndex,
	}
	stats := update.Message.BufferStats
	for _, name := range stats.FieldNames() {
		v, _ := stats.Field(name)
		fields[name] = fmt.Sprintf("%.3f", v)
	}

	entry := logrus.WithFields(fields)
	if update.Structural {
		entry.Infof("✓ Chart layout changed (redraw %d)", update.RedrawSignal)
		return
	}
	entry.Info("✓ Chart updated")
}
