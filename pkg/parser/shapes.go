package parser

import (
	"github.com/sguter90/sensorcharts/pkg/models"
)

// DefaultChannel receives readings that do not name a channel
const DefaultChannel = "ch0"

// ReadingList handles a flat list of readings:
//
//	{"measurement_values": [{"sensor_type": "voltage", "channel": "ch1", "value": 12.1, "time": ...}]}
type ReadingList struct{}

func (ReadingList) Name() string { return "reading_list" }

func (ReadingList) Extract(msg models.RawMessage, kind string) map[string][]models.Sample {
	list, ok := asSlice(msg["measurement_values"])
	if !ok {
		return nil
	}

	channels := make(map[string][]models.Sample)
	for _, item := range list {
		reading, ok := asMap(item)
		if !ok {
			continue
		}
		if sensorType, _ := reading["sensor_type"].(string); sensorType != kind {
			continue
		}
		value, ok := models.ParseNumber(reading["value"])
		if !ok {
			continue
		}

		ch, _ := reading["channel"].(string)
		if ch == "" {
			ch = DefaultChannel
		}

		channels[ch] = append(channels[ch], models.Sample{
			Time:  sampleTime(reading, msg["arrival_date"]),
			Value: value,
		})
	}
	return channels
}

// NestedMeasurements handles measurements keyed by kind at the top level:
//
//	{"measurements": {"voltage": {"ch1": [{"value": 12.1, "time": ...}]}}, "arrival_date": ...}
type NestedMeasurements struct{}

func (NestedMeasurements) Name() string { return "nested_measurements" }

func (NestedMeasurements) Extract(msg models.RawMessage, kind string) map[string][]models.Sample {
	measurements, ok := asMap(msg["measurements"])
	if !ok {
		return nil
	}
	block, ok := asMap(measurements[kind])
	if !ok {
		return nil
	}
	return channelsFrom(block, msg["arrival_date"])
}

// WrappedMeasurements handles the nested layout one level down, inside a
// "payload" or "object" wrapper
type WrappedMeasurements struct{}

func (WrappedMeasurements) Name() string { return "wrapped_measurements" }

func (WrappedMeasurements) Extract(msg models.RawMessage, kind string) map[string][]models.Sample {
	for _, field := range models.WrapperFields {
		wrapper, ok := msg.Map(field)
		if !ok {
			continue
		}
		measurements, ok := asMap(wrapper["measurements"])
		if !ok {
			continue
		}
		block, ok := asMap(measurements[kind])
		if !ok {
			continue
		}
		if channels := channelsFrom(block, wrapper["arrival_date"], msg["arrival_date"]); len(channels) > 0 {
			return channels
		}
	}
	return nil
}

// WrappedValues handles a bare value list inside a wrapper, charted on the
// default channel. A wrapper declaring a different "type" is skipped.
//
//	{"payload": {"values": [{"value": 12.1, "time": ...}]}}
type WrappedValues struct{}

func (WrappedValues) Name() string { return "wrapped_values" }

func (WrappedValues) Extract(msg models.RawMessage, kind string) map[string][]models.Sample {
	for _, field := range models.WrapperFields {
		wrapper, ok := msg.Map(field)
		if !ok {
			continue
		}
		if declared, ok := wrapper["type"].(string); ok && declared != "" && declared != kind {
			continue
		}
		samples := samplesFrom(wrapper["values"], wrapper["arrival_date"], msg["arrival_date"])
		if len(samples) > 0 {
			return map[string][]models.Sample{DefaultChannel: samples}
		}
	}
	return nil
}
