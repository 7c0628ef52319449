package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds
const epochMillisThreshold = 1e12

// Sample is one timestamped value on a channel.
// Time is zero when the source timestamp could not be parsed.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// HasTime reports whether the sample carries a usable timestamp
func (s Sample) HasTime() bool {
	return !s.Time.IsZero()
}

// ParseNumber converts a decoded JSON number into a finite float64. It accepts
// the float64 of a plain decode and the json.Number of a UseNumber decode;
// numeric strings are not values.
func ParseNumber(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// timeLayouts are tried in order for string timestamps
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts a wire timestamp into a time.Time.
// Numbers below 1e12 are epoch seconds, larger ones epoch milliseconds.
// Strings are tried as ISO-8601 first and then as numbers.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case float64:
		return fromEpoch(t)
	case float32:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case int32:
		return fromEpoch(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case string:
		return parseTimeString(t)
	}
	return time.Time{}, false
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	return fromEpoch(f)
}

func fromEpoch(v float64) (time.Time, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}

	ms := v
	if v < epochMillisThreshold {
		ms = v * 1000
	}

	// time.UnixMilli overflows silently far outside this range
	if math.Abs(ms) > 8.64e15 {
		return time.Time{}, false
	}

	return time.UnixMilli(int64(ms)).UTC(), true
}
