package processor

import (
	"math"
	"time"

	"github.com/sguter90/sensorcharts/pkg/channel"
	"github.com/sguter90/sensorcharts/pkg/models"
)

// measurementBlock returns the {channel: [samples]} block for a kind, looking
// inside the payload wrappers first and then at the top level
func measurementBlock(msg models.RawMessage, kind string) (map[string]interface{}, bool) {
	candidates := make([]map[string]interface{}, 0, len(models.WrapperFields)+1)
	for _, field := range models.WrapperFields {
		if w, ok := msg.Map(field); ok {
			candidates = append(candidates, w)
		}
	}
	candidates = append(candidates, msg)

	for _, c := range candidates {
		measurements, ok := c["measurements"].(map[string]interface{})
		if !ok {
			continue
		}
		if block, ok := measurements[kind].(map[string]interface{}); ok {
			return block, true
		}
	}
	return nil, false
}

// CalculateBufferStats summarizes every channel of the message's measurement
// block. Channels are scanned in key order; the latest value is the one with
// the greatest timestamp, the first seen winning ties.
func CalculateBufferStats(msg models.RawMessage, kind string) models.BufferStats {
	stats := models.BufferStats{Kind: kind}

	block, ok := measurementBlock(msg, kind)
	if !ok {
		return stats
	}

	var (
		sum        float64
		minValue   = math.Inf(1)
		maxValue   = math.Inf(-1)
		latestTime time.Time
		hasLatest  bool
	)

	for _, key := range channel.SortedKeys(block) {
		list, ok := block[key].([]interface{})
		if !ok {
			continue
		}
		stats.TotalFragments++

		for _, item := range list {
			sample, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			value, ok := models.ParseNumber(sample["value"])
			if !ok {
				continue
			}

			stats.TotalSamples++
			sum += value
			minValue = math.Min(minValue, value)
			maxValue = math.Max(maxValue, value)

			t, ok := statsTime(sample)
			if ok && (!hasLatest || t.After(latestTime)) {
				latestTime = t
				hasLatest = true
				stats.Current = value
			}
		}
	}

	if stats.TotalSamples == 0 {
		return stats
	}

	stats.Avg = sum / float64(stats.TotalSamples)
	stats.Min = minValue
	stats.Max = maxValue
	return stats
}

// statsTime treats an untimed sample as the epoch, so it can still be the
// latest when nothing newer is seen; unparseable times never compete
func statsTime(sample map[string]interface{}) (time.Time, bool) {
	for _, field := range []string{"time", "time_iso"} {
		if v, ok := sample[field]; ok && v != nil && v != "" {
			return models.ParseTimestamp(v)
		}
	}
	return time.Unix(0, 0), true
}
