package kinds

import (
	"fmt"
	"strings"

	"github.com/sguter90/sensorcharts/pkg/models"
)

// DefaultCapacity is the number of recent messages kept when a kind does not set one
const DefaultCapacity = 15

// DefaultMaxChannels bounds the channel index a kind charts when it does not set one
const DefaultMaxChannels = 64

// DefaultPalette is used when a kind has no colors configured
var DefaultPalette = []string{
	"rgb(59, 130, 246)",
	"rgba(246, 59, 59, 1)",
	"rgba(4, 116, 0, 1)",
	"rgba(234, 179, 8, 1)",
	"rgba(99, 102, 241, 1)",
	"rgba(16, 185, 129, 1)",
	"rgba(14, 165, 233, 1)",
}

// StatsHook returns kind-specific statistics merged over the base fields
type StatsHook func(stats models.BufferStats, msg models.RawMessage) map[string]float64

// DatasetGenerator renders the datasets for one channel slot
type DatasetGenerator func(cfg Config, slot int, points []models.Point) []*models.Dataset

// Config describes how one measurement kind is parsed, summarized and charted
type Config struct {
	Kind     string
	Label    string
	Unit     string
	Palette  []string
	Capacity int
	// MaxChannels is the highest channel index charted; keys above it are ignored
	MaxChannels int

	PostProcess StatsHook
	Datasets    DatasetGenerator
}

// WithDefaults fills every missing field with the built-in default
func (c Config) WithDefaults() Config {
	if c.Kind == "" {
		c.Kind = models.MeasurementKindVoltage
	}
	if c.Label == "" {
		c.Label = titleCase(c.Kind)
	}
	if len(c.Palette) == 0 {
		c.Palette = DefaultPalette
	}
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.MaxChannels <= 0 {
		c.MaxChannels = DefaultMaxChannels
	}
	if c.Datasets == nil {
		c.Datasets = SingleSeries
	}
	return c
}

// Color returns the palette color for a 1-based slot
func (c Config) Color(slot int) string {
	palette := c.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	i := (slot - 1) % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}

// SeriesLabel renders "<label> ch<slot> (<unit>)", omitting an empty unit
func (c Config) SeriesLabel(slot int) string {
	if c.Unit == "" {
		return fmt.Sprintf("%s ch%d", c.Label, slot)
	}
	return fmt.Sprintf("%s ch%d (%s)", c.Label, slot, c.Unit)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Voltage returns the built-in voltage configuration
func Voltage() Config {
	return Config{
		Kind:     models.MeasurementKindVoltage,
		Label:    "Voltaje",
		Unit:     "V",
		Palette:  DefaultPalette,
		Capacity: 15,
		Datasets: SingleSeries,
	}
}

// Current returns the built-in current configuration
func Current() Config {
	return Config{
		Kind:  models.MeasurementKindCurrent,
		Label: "Corriente",
		Unit:  "A",
		Palette: []string{
			"rgb(239, 68, 68)",
			"rgba(168, 85, 247, 1)",
			"rgba(59, 130, 246, 1)",
			"rgba(34, 197, 94, 1)",
			"rgba(251, 146, 60, 1)",
			"rgba(14, 165, 233, 1)",
			"rgba(236, 72, 153, 1)",
		},
		Capacity: 15,
		Datasets: SingleSeries,
	}
}

// Battery returns the built-in battery configuration: voltage plus a derived
// state-of-charge series on a second axis
func Battery() Config {
	return Config{
		Kind:  models.MeasurementKindBattery,
		Label: "Voltaje",
		Unit:  "V",
		Palette: []string{
			"rgb(59, 130, 246)",
			"rgba(168, 85, 247, 1)",
			"rgba(34, 197, 94, 1)",
			"rgba(251, 146, 60, 1)",
			"rgba(14, 165, 233, 1)",
			"rgba(236, 72, 153, 1)",
			"rgba(99, 102, 241, 1)",
		},
		Capacity:    10,
		PostProcess: BatteryStats,
		Datasets:    DualAxisPercentage,
	}
}

// Builtin returns the built-in configuration for a kind; unknown kinds get
// a generic single-series configuration
func Builtin(kind string) Config {
	switch kind {
	case models.MeasurementKindVoltage:
		return Voltage()
	case models.MeasurementKindCurrent:
		return Current()
	case models.MeasurementKindBattery:
		return Battery()
	}

	cfg := Config{Kind: kind}
	if info, ok := models.GetMeasurementKindInfo(kind); ok {
		cfg.Unit = info.Unit
	}
	return cfg.WithDefaults()
}
