package main

import (
	"fmt"
	"strings"

	"github.com/sguter90/sensorcharts/pkg/api"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the monitors of a running server",
	Long:  `Query a running SensorCharts server and display its monitors.`,
	RunE:  runStatus,
}

var statusServer string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusServer, "server", "", "server base URL (default: http://localhost:$SERVER_PORT)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := appConfig(cmd)

	baseURL := statusServer
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.ServerPort
	}
	client := api.NewClient(baseURL)

	health, err := client.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("server not reachable at %s: %w", baseURL, err)
	}

	monitors, err := client.GetMonitors(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch monitors: %w", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("SensorCharts at %s (%s)\n", baseURL, health.Status)
	fmt.Println(strings.Repeat("=", 80))

	for i, m := range monitors {
		fmt.Printf("\n[%d] %s\n", i+1, m.EntityID)
		fmt.Printf("    ID: %s\n", m.ID)
		fmt.Printf("    Status: %s\n", m.Status)
		fmt.Printf("    Reconnect attempts: %d\n", m.Attempts)
		fmt.Printf("    Kinds: %s\n", strings.Join(m.Kinds, ", "))
		fmt.Printf("    Started: %s\n", m.StartedAt.Format("2006-01-02 15:04:05"))

		for _, kind := range m.Kinds {
			chart, err := client.GetChart(cmd.Context(), m.ID, kind, nil)
			if err != nil {
				fmt.Printf("    %s: unavailable (%v)\n", kind, err)
				continue
			}
			fmt.Printf("    %s: %d channels, %d messages, redraw %d\n",
				kind, chart.MaxChannelIndex, chart.MessageCount, chart.RedrawSignal)
		}
	}

	if len(monitors) == 0 {
		fmt.Println("No monitors running.")
	}

	fmt.Println("\n" + strings.Repeat("=", 80) + "\n")

	return nil
}
