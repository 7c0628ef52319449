package processor

import (
	"sort"
	"time"

	"github.com/sguter90/sensorcharts/pkg/channel"
	"github.com/sguter90/sensorcharts/pkg/kinds"
	"github.com/sguter90/sensorcharts/pkg/models"
)

// toPoints converts samples to chart points, dropping untimed samples and
// sorting ascending by time
func toPoints(samples []models.Sample) []models.Point {
	points := make([]models.Point, 0, len(samples))
	for _, s := range samples {
		if !s.HasTime() {
			continue
		}
		points = append(points, models.Point{X: s.Time, Y: s.Value})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].X.Before(points[j].X)
	})
	return points
}

// slotCount is the number of chart slots for a highest channel index,
// capped at limit
func slotCount(maxIndex, limit int) int {
	if maxIndex < 1 {
		return 1
	}
	if limit > 0 && maxIndex > limit {
		return limit
	}
	return maxIndex
}

// BuildFragments renders one fragment per slot 1..max(1, maxIndex), never
// more than cfg.MaxChannels. Slots with no matching channel get empty datasets.
func BuildFragments(channels map[string][]models.Sample, maxIndex int, cfg kinds.Config) []*models.Fragment {
	cfg = cfg.WithDefaults()
	keys := channel.SortedKeys(channels)

	n := slotCount(maxIndex, cfg.MaxChannels)
	fragments := make([]*models.Fragment, 0, n)
	for slot := 1; slot <= n; slot++ {
		var points []models.Point
		if key, ok := channel.KeyForSlot(keys, slot, maxIndex, cfg.MaxChannels); ok {
			points = toPoints(channels[key])
		} else {
			points = []models.Point{}
		}
		fragments = append(fragments, &models.Fragment{Datasets: cfg.Datasets(cfg, slot, points)})
	}
	return fragments
}

// applyFragments reconciles freshly built fragments with the current ones.
// A changed fragment count replaces the list and is structural; otherwise the
// existing datasets are updated in place so holders of them see new data.
func applyFragments(current, next []*models.Fragment) ([]*models.Fragment, bool) {
	if len(current) != len(next) {
		return next, true
	}

	for i, f := range current {
		if len(f.Datasets) != len(next[i].Datasets) {
			f.Datasets = next[i].Datasets
			continue
		}
		for j, d := range f.Datasets {
			*d = *next[i].Datasets[j]
		}
	}
	return current, false
}

// newPointsBySlot returns, per zero-based slot, the points of the current
// message strictly newer than the last processed time of their channel key,
// and advances lastProcessed. Watermarks follow the key, so a slot that
// changes hands (ch0 to ch1) starts fresh.
func newPointsBySlot(channels map[string][]models.Sample, maxIndex, limit int, lastProcessed map[string]time.Time) map[int][]models.Point {
	result := make(map[int][]models.Point)

	keys := channel.SortedKeys(channels)
	for _, key := range keys {
		slot := channel.SlotIndex(key, maxIndex, limit)
		if slot == channel.Unindexed || slot < 1 {
			continue
		}
		if charted, _ := channel.KeyForSlot(keys, slot, maxIndex, limit); charted != key {
			continue
		}

		last, seen := lastProcessed[key]
		var fresh []models.Point
		for _, p := range toPoints(channels[key]) {
			if seen && !p.X.After(last) {
				continue
			}
			fresh = append(fresh, p)
		}
		if len(fresh) == 0 {
			continue
		}

		result[slot-1] = fresh
		lastProcessed[key] = fresh[len(fresh)-1].X
	}
	return result
}
