package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Wrapper fields that may nest the device payload one level deep
var WrapperFields = []string{"payload", "object"}

// RawMessage is one decoded inbound frame of unknown shape
type RawMessage map[string]interface{}

// Map returns the nested object stored under key
func (m RawMessage) Map(key string) (map[string]interface{}, bool) {
	v, ok := m[key].(map[string]interface{})
	return v, ok
}

// Wrapper returns the first single-level wrapper object present on the message
func (m RawMessage) Wrapper() (map[string]interface{}, bool) {
	for _, field := range WrapperFields {
		if w, ok := m.Map(field); ok {
			return w, true
		}
	}
	return nil, false
}

// ErrorField returns the server-side error marker if the frame carries one
func (m RawMessage) ErrorField() (interface{}, bool) {
	v, ok := m["error"]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && s == "" {
		return nil, false
	}
	if b, isBool := v.(bool); isBool && !b {
		return nil, false
	}
	return v, true
}

// ArrivalDate returns the payload arrival date, falling back to the top-level one
func (m RawMessage) ArrivalDate() interface{} {
	if w, ok := m.Wrapper(); ok {
		if v, present := w["arrival_date"]; present && v != nil && v != "" {
			return v
		}
	}
	if v, present := m["arrival_date"]; present && v != nil && v != "" {
		return v
	}
	return nil
}

// DeviceName returns the first device name found on the message
func (m RawMessage) DeviceName() string {
	if w, ok := m.Wrapper(); ok {
		if info, ok := w["device_info"].(map[string]interface{}); ok {
			if name, ok := info["device_name"].(string); ok {
				return name
			}
		}
		if name, ok := w["device_name"].(string); ok {
			return name
		}
	}
	if name, ok := m["device_name"].(string); ok {
		return name
	}
	return ""
}

// BufferStats holds summary statistics over one message's measurement block
type BufferStats struct {
	Kind           string
	TotalSamples   int
	TotalFragments int
	Avg            float64
	Min            float64
	Max            float64
	Current        float64
	// Extra holds kind-specific fields; they take precedence over the base fields
	Extra map[string]float64
}

// Fields returns the statistics keyed by their wire names
func (s BufferStats) Fields() map[string]float64 {
	fields := make(map[string]float64, 6+len(s.Extra))
	fields["total_samples"] = float64(s.TotalSamples)
	fields["total_fragments"] = float64(s.TotalFragments)
	fields["avg_"+s.Kind] = s.Avg
	fields["min_"+s.Kind] = s.Min
	fields["max_"+s.Kind] = s.Max
	fields["current_"+s.Kind] = s.Current

	for k, v := range s.Extra {
		fields[k] = v
	}
	return fields
}

// Field returns a single statistic by wire name
func (s BufferStats) Field(name string) (float64, bool) {
	v, ok := s.Fields()[name]
	return v, ok
}

// FieldNames returns the wire names in sorted order
func (s BufferStats) FieldNames() []string {
	fields := s.Fields()
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the statistics with dynamic per-kind field names
func (s BufferStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fields())
}

// EnhancedMessage is a raw message annotated with statistics and reception time
type EnhancedMessage struct {
	Raw                RawMessage
	BufferStats        BufferStats
	ReceptionTimestamp time.Time
	DeviceName         string
}

// MarshalJSON flattens the raw fields and adds buffer_stats and reception_timestamp
func (m EnhancedMessage) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Raw)+3)
	for k, v := range m.Raw {
		out[k] = v
	}
	out["buffer_stats"] = m.BufferStats
	out["reception_timestamp"] = m.ReceptionTimestamp.Format(time.RFC3339Nano)
	if m.DeviceName != "" {
		out["device_name"] = m.DeviceName
	}
	return json.Marshal(out)
}
