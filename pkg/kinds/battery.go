package kinds

import (
	"math"

	"github.com/sguter90/sensorcharts/pkg/models"
)

// Lead-acid 12V battery range
const (
	BatteryMinVoltage = 10.5
	BatteryMaxVoltage = 13.2
)

// VoltageToPercentage maps a battery voltage linearly onto 0..100,
// clamped at both ends and rounded to the nearest integer
func VoltageToPercentage(voltage float64) int {
	if math.IsNaN(voltage) || voltage <= BatteryMinVoltage {
		return 0
	}
	if voltage >= BatteryMaxVoltage {
		return 100
	}
	pct := (voltage - BatteryMinVoltage) / (BatteryMaxVoltage - BatteryMinVoltage) * 100
	return int(math.Round(pct))
}

// BatteryStats exposes the peak voltage under the legacy max_voltage name
// together with the derived charge percentage
func BatteryStats(stats models.BufferStats, msg models.RawMessage) map[string]float64 {
	return map[string]float64{
		"max_voltage":        stats.Max,
		"avg_value":          stats.Avg,
		"battery_percentage": float64(VoltageToPercentage(stats.Max)),
	}
}
