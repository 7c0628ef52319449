package parser

import (
	"time"

	"github.com/sguter90/sensorcharts/pkg/models"
)

// timeFields are checked in order for a per-sample timestamp
var timeFields = []string{"time", "time_iso", "arrival_date"}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asSlice(v interface{}) ([]interface{}, bool) {
	s, ok := v.([]interface{})
	return s, ok
}

// present reports whether a field carries a usable value
func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	}
	return true
}

// sampleTime reads the first present time field of a sample, then the fallbacks
func sampleTime(sample map[string]interface{}, fallbacks ...interface{}) time.Time {
	for _, field := range timeFields {
		if v := sample[field]; present(v) {
			t, _ := models.ParseTimestamp(v)
			return t
		}
	}
	for _, v := range fallbacks {
		if present(v) {
			t, _ := models.ParseTimestamp(v)
			return t
		}
	}
	return time.Time{}
}

// samplesFrom converts a JSON array of {value, time} objects into samples.
// Entries without a numeric value are skipped.
func samplesFrom(raw interface{}, fallbacks ...interface{}) []models.Sample {
	list, ok := asSlice(raw)
	if !ok {
		return nil
	}

	samples := make([]models.Sample, 0, len(list))
	for _, item := range list {
		entry, ok := asMap(item)
		if !ok {
			continue
		}
		value, ok := models.ParseNumber(entry["value"])
		if !ok {
			continue
		}
		samples = append(samples, models.Sample{
			Time:  sampleTime(entry, fallbacks...),
			Value: value,
		})
	}
	return samples
}

// channelsFrom converts a {channel: [samples]} block, dropping empty channels
func channelsFrom(block map[string]interface{}, fallbacks ...interface{}) map[string][]models.Sample {
	channels := make(map[string][]models.Sample)
	for key, raw := range block {
		samples := samplesFrom(raw, fallbacks...)
		if len(samples) > 0 {
			channels[key] = samples
		}
	}
	return channels
}
