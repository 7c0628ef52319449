package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartQueryParams_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		params      ChartQueryParams
		expectError bool
		errorMsg    string
	}{
		{
			name: "Valid basic params",
			params: ChartQueryParams{
				Kind:  MeasurementKindVoltage,
				Limit: 100,
				Order: "asc",
			},
			expectError: false,
		},
		{
			name: "Valid with channel and since",
			params: ChartQueryParams{
				Kind:    MeasurementKindBattery,
				Channel: 2,
				Since:   "1690000000",
				Limit:   50,
				Order:   "desc",
			},
			expectError: false,
		},
		{
			name: "Missing kind",
			params: ChartQueryParams{
				Limit: 100,
				Order: "asc",
			},
			expectError: true,
			errorMsg:    "kind is required",
		},
		{
			name: "Negative channel",
			params: ChartQueryParams{
				Kind:    MeasurementKindVoltage,
				Channel: -1,
				Limit:   100,
				Order:   "asc",
			},
			expectError: true,
			errorMsg:    "channel must be 0",
		},
		{
			name: "Invalid limit - too low",
			params: ChartQueryParams{
				Kind:  MeasurementKindVoltage,
				Limit: 0,
				Order: "asc",
			},
			expectError: true,
			errorMsg:    "limit must be between 1 and 10000",
		},
		{
			name: "Invalid limit - too high",
			params: ChartQueryParams{
				Kind:  MeasurementKindVoltage,
				Limit: 10001,
				Order: "asc",
			},
			expectError: true,
			errorMsg:    "limit must be between 1 and 10000",
		},
		{
			name: "Invalid order",
			params: ChartQueryParams{
				Kind:  MeasurementKindVoltage,
				Limit: 100,
				Order: "invalid",
			},
			expectError: true,
			errorMsg:    "invalid order: invalid (valid: asc, desc)",
		},
		{
			name: "Unparseable since",
			params: ChartQueryParams{
				Kind:  MeasurementKindVoltage,
				Since: "yesterday",
				Limit: 100,
				Order: "asc",
			},
			expectError: true,
			errorMsg:    "invalid since",
		},
		{
			name: "Since in the future",
			params: ChartQueryParams{
				Kind:  MeasurementKindVoltage,
				Since: time.Now().Add(time.Hour).Format(time.RFC3339),
				Limit: 100,
				Order: "asc",
			},
			expectError: true,
			errorMsg:    "must not be in the future",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tc.errorMsg != "" && !strings.Contains(err.Error(), tc.errorMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tc.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
			}
		})
	}
}

func TestChartQueryParams_Apply(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000).UTC()
	fragments := []*Fragment{
		{Datasets: []*Dataset{{Label: "ch1", Data: []Point{
			{X: base, Y: 1},
			{X: base.Add(time.Second), Y: 2},
			{X: base.Add(2 * time.Second), Y: 3},
		}}}},
		{Datasets: []*Dataset{{Label: "ch2", Data: []Point{
			{X: base, Y: 10},
		}}}},
	}

	t.Run("Single channel with limit", func(t *testing.T) {
		p := ChartQueryParams{Kind: MeasurementKindVoltage, Channel: 1, Limit: 2, Order: "asc"}
		result := p.Apply(fragments)

		require.Len(t, result, 1)
		require.Len(t, result[0].Datasets[0].Data, 2)
		assert.Equal(t, 2.0, result[0].Datasets[0].Data[0].Y)
		assert.Equal(t, 3.0, result[0].Datasets[0].Data[1].Y)
	})

	t.Run("Descending order", func(t *testing.T) {
		p := ChartQueryParams{Kind: MeasurementKindVoltage, Limit: 100, Order: "desc"}
		result := p.Apply(fragments)

		require.Len(t, result, 2)
		assert.Equal(t, 3.0, result[0].Datasets[0].Data[0].Y)
	})

	t.Run("Since filter", func(t *testing.T) {
		p := ChartQueryParams{
			Kind:  MeasurementKindVoltage,
			Since: base.Format(time.RFC3339),
			Limit: 100,
			Order: "asc",
		}
		result := p.Apply(fragments)

		assert.Len(t, result[0].Datasets[0].Data, 2)
		assert.Empty(t, result[1].Datasets[0].Data)
	})

	t.Run("Source fragments untouched", func(t *testing.T) {
		p := ChartQueryParams{Kind: MeasurementKindVoltage, Limit: 1, Order: "desc"}
		p.Apply(fragments)

		assert.Len(t, fragments[0].Datasets[0].Data, 3)
		assert.Equal(t, 1.0, fragments[0].Datasets[0].Data[0].Y)
	})
}
