package parser

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sguter90/sensorcharts/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode builds a RawMessage the same way the connection layer does
func decode(t *testing.T, raw string) models.RawMessage {
	t.Helper()
	var msg models.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return msg
}

// MockShape implements the Shape interface for testing
type MockShape struct {
	name     string
	channels map[string][]models.Sample
	calls    int
}

func (m *MockShape) Name() string { return m.name }

func (m *MockShape) Extract(msg models.RawMessage, kind string) map[string][]models.Sample {
	m.calls++
	return m.channels
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&MockShape{name: "a"})
	registry.Register(nil)
	registry.Register(&MockShape{name: "b"})

	shapes := registry.All()
	require.Len(t, shapes, 2)
	assert.Equal(t, "a", shapes[0].Name())
	assert.Equal(t, "b", shapes[1].Name())
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	empty := &MockShape{name: "empty"}
	first := &MockShape{name: "first", channels: map[string][]models.Sample{"ch1": {{Value: 1}}}}
	second := &MockShape{name: "second", channels: map[string][]models.Sample{"ch2": {{Value: 2}}}}

	registry := NewRegistry(empty, first, second)
	channels, name, ok := registry.Extract(models.RawMessage{"x": 1}, "voltage")

	require.True(t, ok)
	assert.Equal(t, "first", name)
	assert.Contains(t, channels, "ch1")
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 0, second.calls)
}

func TestExtractChannels_Shapes(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		kind     string
		expected map[string][]float64
		shape    string
	}{
		{
			name: "Flat reading list filters kind and non-numeric values",
			raw: `{"measurement_values": [
				{"sensor_type": "voltage", "channel": "ch1", "value": 12.1, "time": 1690000000},
				{"sensor_type": "current", "channel": "ch1", "value": 0.4, "time": 1690000000},
				{"sensor_type": "voltage", "channel": "ch2", "value": "12.5", "time": 1690000000},
				{"sensor_type": "voltage", "value": 11.9, "time_iso": "2023-07-22T04:26:40Z"}
			]}`,
			kind:     "voltage",
			expected: map[string][]float64{"ch1": {12.1}, "ch0": {11.9}},
			shape:    "reading_list",
		},
		{
			name: "Nested measurements",
			raw: `{"measurements": {"current": {"ch1": [{"value": 0.2, "time": 1690000000}], "ch3": [{"value": 0.7}]}},
				"arrival_date": "2023-07-22T04:26:40Z"}`,
			kind:     "current",
			expected: map[string][]float64{"ch1": {0.2}, "ch3": {0.7}},
			shape:    "nested_measurements",
		},
		{
			name:     "Payload wrapper",
			raw:      `{"payload": {"measurements": {"voltage": {"ch2": [{"value": 13.0, "time": 1690000000000}]}}}}`,
			kind:     "voltage",
			expected: map[string][]float64{"ch2": {13.0}},
			shape:    "wrapped_measurements",
		},
		{
			name:     "Object wrapper",
			raw:      `{"object": {"measurements": {"battery": {"ch1": [{"value": 12.4}]}}, "arrival_date": 1690000000}}`,
			kind:     "battery",
			expected: map[string][]float64{"ch1": {12.4}},
			shape:    "wrapped_measurements",
		},
		{
			name:     "Flat values on default channel",
			raw:      `{"payload": {"values": [{"value": 1.5, "time": 1690000000}, {"value": 1.7, "time": 1690000060}]}}`,
			kind:     "current",
			expected: map[string][]float64{"ch0": {1.5, 1.7}},
			shape:    "wrapped_values",
		},
		{
			name:     "Flat values with matching declared type",
			raw:      `{"object": {"type": "battery", "values": [{"value": 12.0}]}}`,
			kind:     "battery",
			expected: map[string][]float64{"ch0": {12.0}},
			shape:    "wrapped_values",
		},
		{
			name:  "Reading list beats nested block",
			raw:   `{"measurement_values": [{"sensor_type": "voltage", "channel": "ch5", "value": 1}], "measurements": {"voltage": {"ch1": [{"value": 2}]}}}`,
			kind:  "voltage",
			shape: "reading_list",
			expected: map[string][]float64{
				"ch5": {1},
			},
		},
		{
			name:  "Falls through non-matching reading list",
			raw:   `{"measurement_values": [{"sensor_type": "current", "value": 1}], "measurements": {"voltage": {"ch1": [{"value": 2}]}}}`,
			kind:  "voltage",
			shape: "nested_measurements",
			expected: map[string][]float64{
				"ch1": {2},
			},
		},
	}

	registry := DefaultRegistry()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			channels, shape, ok := registry.Extract(decode(t, tc.raw), tc.kind)
			require.True(t, ok)
			assert.Equal(t, tc.shape, shape)
			require.Len(t, channels, len(tc.expected))

			for ch, values := range tc.expected {
				samples, found := channels[ch]
				require.True(t, found, "missing channel %s", ch)
				require.Len(t, samples, len(values))
				for i, v := range values {
					assert.Equal(t, v, samples[i].Value)
				}
			}
		})
	}
}

func TestExtractChannels_NoMatch(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		kind string
	}{
		{name: "Empty object", raw: `{}`, kind: "voltage"},
		{name: "Other kind only", raw: `{"measurements": {"current": {"ch1": [{"value": 1}]}}}`, kind: "voltage"},
		{name: "All values non-numeric", raw: `{"measurement_values": [{"sensor_type": "voltage", "value": null}]}`, kind: "voltage"},
		{name: "Declared type mismatch", raw: `{"object": {"type": "battery", "values": [{"value": 12}]}}`, kind: "voltage"},
		{name: "Empty channel arrays", raw: `{"payload": {"measurements": {"voltage": {"ch1": []}}}}`, kind: "voltage"},
		{name: "Wrong container types", raw: `{"measurements": [1, 2], "payload": "text"}`, kind: "voltage"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			channels, ok := ExtractChannels(decode(t, tc.raw), tc.kind)
			assert.False(t, ok)
			assert.Nil(t, channels)
		})
	}
}

func TestExtractChannels_Timestamps(t *testing.T) {
	want := time.UnixMilli(1_690_000_000_000)

	t.Run("Epoch seconds are scaled to milliseconds", func(t *testing.T) {
		raw := `{"measurement_values":[{"sensor_type":"voltage","channel":"ch1","value":12.1,"time":1690000000}]}`
		channels, ok := ExtractChannels(decode(t, raw), "voltage")
		require.True(t, ok)
		require.Len(t, channels["ch1"], 1)
		assert.Equal(t, want.UnixMilli(), channels["ch1"][0].Time.UnixMilli())
	})

	t.Run("Falls back to payload arrival date", func(t *testing.T) {
		raw := `{"payload": {"arrival_date": "2023-07-22T04:26:40Z", "measurements": {"voltage": {"ch1": [{"value": 1}]}}}}`
		channels, ok := ExtractChannels(decode(t, raw), "voltage")
		require.True(t, ok)
		assert.True(t, want.Equal(channels["ch1"][0].Time))
	})

	t.Run("Falls back to message arrival date", func(t *testing.T) {
		raw := `{"arrival_date": 1690000000000, "payload": {"measurements": {"voltage": {"ch1": [{"value": 1}]}}}}`
		channels, ok := ExtractChannels(decode(t, raw), "voltage")
		require.True(t, ok)
		assert.True(t, want.Equal(channels["ch1"][0].Time))
	})

	t.Run("Sample time wins over arrival date", func(t *testing.T) {
		raw := `{"measurements": {"voltage": {"ch1": [{"value": 1, "time_iso": "2023-07-22T04:26:40Z"}]}}, "arrival_date": 1}`
		channels, ok := ExtractChannels(decode(t, raw), "voltage")
		require.True(t, ok)
		assert.True(t, want.Equal(channels["ch1"][0].Time))
	})

	t.Run("Unparseable time keeps sample without time", func(t *testing.T) {
		raw := `{"measurements": {"voltage": {"ch1": [{"value": 1, "time": "garbage"}]}}}`
		channels, ok := ExtractChannels(decode(t, raw), "voltage")
		require.True(t, ok)
		assert.False(t, channels["ch1"][0].HasTime())
	})
}
