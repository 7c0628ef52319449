package models

import (
	"time"

	"github.com/google/uuid"
)

// MonitorInfo describes one live device monitor
type MonitorInfo struct {
	ID        uuid.UUID `json:"id"`
	EntityID  string    `json:"entity_id"`
	Status    string    `json:"status"`
	Attempts  int       `json:"reconnect_attempts"`
	Kinds     []string  `json:"kinds"`
	StartedAt time.Time `json:"started_at"`
}

// ChartResponse is the chart state of one monitor for one kind
type ChartResponse struct {
	MonitorID       uuid.UUID          `json:"monitor_id"`
	Kind            string             `json:"kind"`
	Fragments       []*Fragment        `json:"fragments"`
	MaxChannelIndex int                `json:"max_channel_index"`
	RedrawSignal    int                `json:"redraw_signal"`
	MessageCount    int                `json:"message_count"`
	BufferStats     map[string]float64 `json:"buffer_stats,omitempty"`
	LastReception   *time.Time         `json:"last_reception,omitempty"`
}
