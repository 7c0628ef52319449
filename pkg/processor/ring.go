package processor

import (
	"github.com/sguter90/sensorcharts/pkg/models"
)

// ringEntry keeps a message together with its normalized channels so the
// accumulated window can be rebuilt without parsing the payload again
type ringEntry struct {
	message  *models.EnhancedMessage
	channels map[string][]models.Sample
}

// messageRing is a bounded, most-recent-first message window.
// It is not safe for concurrent use; Session guards it.
type messageRing struct {
	entries  []ringEntry
	capacity int
}

func newMessageRing(capacity int) *messageRing {
	if capacity < 1 {
		capacity = 1
	}
	return &messageRing{
		entries:  make([]ringEntry, 0, capacity),
		capacity: capacity,
	}
}

// push inserts at the front and evicts the oldest entry beyond capacity
func (r *messageRing) push(msg *models.EnhancedMessage, channels map[string][]models.Sample) {
	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, ringEntry{})
	}
	copy(r.entries[1:], r.entries[:len(r.entries)-1])
	r.entries[0] = ringEntry{message: msg, channels: channels}
}

func (r *messageRing) len() int {
	return len(r.entries)
}

// messages returns the window, most recent first
func (r *messageRing) messages() []*models.EnhancedMessage {
	result := make([]*models.EnhancedMessage, len(r.entries))
	for i, e := range r.entries {
		result[i] = e.message
	}
	return result
}

// accumulate concatenates every channel's samples across the window, most
// recent message first. Exact repeats of a (time, value) pair are kept once.
func (r *messageRing) accumulate() map[string][]models.Sample {
	type sampleKey struct {
		unixNano int64
		value    float64
	}

	merged := make(map[string][]models.Sample)
	seen := make(map[string]map[sampleKey]struct{})

	for _, e := range r.entries {
		for ch, samples := range e.channels {
			if seen[ch] == nil {
				seen[ch] = make(map[sampleKey]struct{})
			}
			for _, s := range samples {
				if s.HasTime() {
					k := sampleKey{unixNano: s.Time.UnixNano(), value: s.Value}
					if _, dup := seen[ch][k]; dup {
						continue
					}
					seen[ch][k] = struct{}{}
				}
				merged[ch] = append(merged[ch], s)
			}
		}
	}
	return merged
}

func (r *messageRing) reset() {
	r.entries = make([]ringEntry, 0, r.capacity)
}
