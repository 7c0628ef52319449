package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sguter90/sensorcharts/pkg/monitor"
	"github.com/sguter90/sensorcharts/pkg/relay"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SensorCharts server",
	Long: `Start one monitor per device and expose the chart state over HTTP.
Appended points and layout changes are streamed to WebSocket clients on /ws.`,
	RunE: runServe,
}

var (
	serveDevices  []string
	serveKinds    []string
	serveFailFast bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringSliceVarP(&serveDevices, "device", "d", nil, "device ids to monitor (required)")
	serveCmd.Flags().StringSliceVarP(&serveKinds, "kind", "k", nil, "measurement kinds to chart (default: all registered)")
	serveCmd.Flags().BoolVar(&serveFailFast, "fail-fast", false, "stop on configuration errors instead of retrying")
	serveCmd.MarkFlagRequired("device")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig(cmd)
	registry := newKindRegistry(cfg)

	client, err := newPlatformClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	routeManager := NewRouteManager(monitor.NewService(logrus.StandardLogger()), nil, cfg.AllowedOrigins)
	hub := relay.NewHub(relay.WithCheckOrigin(routeManager.originAllowed))
	routeManager.hub = hub
	go hub.Run(ctx)

	opts := cfg.Connection
	opts.FailFast = opts.FailFast || serveFailFast
	kindConfigs := selectKinds(registry, serveKinds)

	for _, device := range serveDevices {
		m, err := monitor.New(monitor.Config{
			EntityID:   device,
			Kinds:      kindConfigs,
			Resolver:   client,
			Connection: opts,
			Publisher:  hub,
			Logger:     logrus.StandardLogger(),
		})
		if err != nil {
			return fmt.Errorf("failed to create monitor for %s: %w", device, err)
		}
		routeManager.service.Add(m)
		logrus.Infof("✓ Registering monitor %s for device %s", m.ID, device)
	}

	routeManager.service.Start(ctx)
	routeManager.Setup()

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Handler:      routeManager.Router,
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logrus.Info("Shutdown signal received")

		routeManager.service.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Server shutdown error")
		}
	}()

	logrus.Infof("Starting SensorCharts server on %s...", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
