package config

import (
	"fmt"

	"github.com/sguter90/sensorcharts/pkg/kinds"
	"github.com/spf13/viper"
)

// KindOverride is one entry of the kinds file
type KindOverride struct {
	Label       string   `mapstructure:"label"`
	Unit        string   `mapstructure:"unit"`
	Capacity    int      `mapstructure:"capacity"`
	MaxChannels int      `mapstructure:"max_channels"`
	Palette     []string `mapstructure:"palette"`
}

type kindsFile struct {
	Kinds map[string]KindOverride `mapstructure:"kinds"`
}

// LoadKinds reads measurement kind overrides from a YAML, JSON or TOML file
// and registers them. Fields left out keep the registered or built-in value,
// so the statistics hook and dataset layout of a known kind survive.
func LoadKinds(path string, registry *kinds.Registry) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read kinds file %s: %w", path, err)
	}

	var file kindsFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode kinds file %s: %w", path, err)
	}

	loaded := make([]string, 0, len(file.Kinds))
	for kind, override := range file.Kinds {
		if kind == "" {
			continue
		}
		registry.Register(override.apply(registry.Resolve(kind)))
		loaded = append(loaded, kind)
	}

	return loaded, nil
}

func (o KindOverride) apply(cfg kinds.Config) kinds.Config {
	if o.Label != "" {
		cfg.Label = o.Label
	}
	if o.Unit != "" {
		cfg.Unit = o.Unit
	}
	if o.Capacity > 0 {
		cfg.Capacity = o.Capacity
	}
	if o.MaxChannels > 0 {
		cfg.MaxChannels = o.MaxChannels
	}
	if len(o.Palette) > 0 {
		cfg.Palette = o.Palette
	}
	return cfg
}
