package processor

import (
	"testing"
	"time"

	"github.com/sguter90/sensorcharts/pkg/kinds"
	"github.com/sguter90/sensorcharts/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func TestBuildFragments(t *testing.T) {
	channels := map[string][]models.Sample{
		"ch1":  {{Time: at(30), Value: 3}, {Time: at(10), Value: 1}, {Value: 99}},
		"ch3":  {{Time: at(20), Value: 2}},
		"temp": {{Time: at(20), Value: 7}},
	}

	fragments := BuildFragments(channels, 3, kinds.Voltage())
	require.Len(t, fragments, 3)

	ch1 := fragments[0].Datasets[0]
	require.Len(t, ch1.Data, 2)
	assert.Equal(t, 1.0, ch1.Data[0].Y)
	assert.Equal(t, 3.0, ch1.Data[1].Y)
	assert.Equal(t, "rgb(59, 130, 246)", ch1.BorderColor)

	assert.NotNil(t, fragments[1].Datasets[0].Data)
	assert.Empty(t, fragments[1].Datasets[0].Data)
	assert.Equal(t, "Voltaje ch2 (V)", fragments[1].Datasets[0].Label)

	assert.Len(t, fragments[2].Datasets[0].Data, 1)
	assert.Equal(t, "rgba(4, 116, 0, 1)", fragments[2].Datasets[0].BorderColor)
}

func TestBuildFragments_AtLeastOneSlot(t *testing.T) {
	fragments := BuildFragments(map[string][]models.Sample{}, 0, kinds.Config{})
	require.Len(t, fragments, 1)
	assert.Equal(t, "Voltage ch1", fragments[0].Datasets[0].Label)
	assert.Empty(t, fragments[0].Datasets[0].Data)
}

func TestApplyFragments(t *testing.T) {
	cfg := kinds.Voltage()
	one := map[string][]models.Sample{"ch1": {{Time: at(1), Value: 1}}}
	two := map[string][]models.Sample{"ch1": {{Time: at(1), Value: 1}, {Time: at(2), Value: 2}}}

	t.Run("Empty to populated is structural", func(t *testing.T) {
		next := BuildFragments(one, 1, cfg)
		result, structural := applyFragments(nil, next)
		assert.True(t, structural)
		assert.Equal(t, next, result)
	})

	t.Run("Same count mutates in place", func(t *testing.T) {
		current := BuildFragments(one, 1, cfg)
		held := current[0].Datasets[0]

		result, structural := applyFragments(current, BuildFragments(two, 1, cfg))
		assert.False(t, structural)
		assert.Same(t, current[0], result[0])
		assert.Same(t, held, result[0].Datasets[0])
		assert.Len(t, held.Data, 2)
	})

	t.Run("Count change replaces", func(t *testing.T) {
		current := BuildFragments(one, 1, cfg)
		next := BuildFragments(one, 2, cfg)

		result, structural := applyFragments(current, next)
		assert.True(t, structural)
		require.Len(t, result, 2)
		assert.NotSame(t, current[0], result[0])
	})
}

func TestNewPointsBySlot(t *testing.T) {
	last := make(map[string]time.Time)
	channels := map[string][]models.Sample{
		"ch2":     {{Time: at(20), Value: 2}, {Time: at(10), Value: 1}},
		"sensor2": {{Time: at(50), Value: 5}},
		"other":   {{Time: at(10), Value: 9}},
	}

	points := newPointsBySlot(channels, 2, 64, last)
	require.Len(t, points, 1)
	require.Len(t, points[1], 2)
	assert.Equal(t, 1.0, points[1][0].Y)
	assert.Equal(t, at(20), last["ch2"])

	again := newPointsBySlot(map[string][]models.Sample{"ch2": {{Time: at(20), Value: 2}, {Time: at(21), Value: 3}}}, 2, 64, last)
	require.Len(t, again[1], 1)
	assert.Equal(t, 3.0, again[1][0].Y)
	assert.Equal(t, at(21), last["ch2"])
}

func TestNewPointsBySlot_SlotChangesHands(t *testing.T) {
	last := make(map[string]time.Time)

	first := newPointsBySlot(map[string][]models.Sample{"ch0": {{Time: at(100), Value: 12}}}, 0, 64, last)
	require.Len(t, first[0], 1)

	// ch1 now owns slot 1; its first sample is older than ch0's last one
	second := newPointsBySlot(map[string][]models.Sample{"ch1": {{Time: at(50), Value: 11}}}, 1, 64, last)
	require.Len(t, second[0], 1)
	assert.Equal(t, 11.0, second[0][0].Y)
}

func TestBuildFragments_BoundedSlots(t *testing.T) {
	cfg := kinds.Voltage()
	cfg.MaxChannels = 4
	channels := map[string][]models.Sample{
		"ch2":             {{Time: at(1), Value: 1}},
		"sensor_20240101": {{Time: at(1), Value: 2}},
	}

	fragments := BuildFragments(channels, 20240101, cfg)
	require.Len(t, fragments, 4)
	assert.Len(t, fragments[1].Datasets[0].Data, 1)
	assert.Empty(t, fragments[3].Datasets[0].Data)
}
