package channel

import (
	"math"
	"regexp"
	"sort"
	"strconv"
)

// Unindexed is the sentinel index for keys without a recognizable channel number.
// It sorts after every real index and is never counted as the highest channel.
const Unindexed = math.MaxInt

var (
	chPattern      = regexp.MustCompile(`(?i)^ch(\d+)$`)
	trailingDigits = regexp.MustCompile(`(\d+)$`)
)

// ResolveIndex maps a channel key to its numeric index.
//
//	"ch3", "CH3"  -> 3
//	"sensor7"     -> 7
//	"temp", ""    -> Unindexed
func ResolveIndex(key string) int {
	if key == "" {
		return Unindexed
	}

	if m := chPattern.FindStringSubmatch(key); m != nil {
		return atoiOrUnindexed(m[1])
	}

	if m := trailingDigits.FindStringSubmatch(key); m != nil {
		return atoiOrUnindexed(m[1])
	}

	return Unindexed
}

func atoiOrUnindexed(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return Unindexed
	}
	return n
}

// InRange reports whether idx is a usable channel index under limit. A
// non-positive limit disables the bound.
func InRange(idx, limit int) bool {
	if idx == Unindexed || idx < 0 {
		return false
	}
	return limit <= 0 || idx <= limit
}

// OutOfRange returns the keys whose index exceeds limit
func OutOfRange(keys []string, limit int) []string {
	var result []string
	for _, key := range keys {
		idx := ResolveIndex(key)
		if idx != Unindexed && idx >= 0 && !InRange(idx, limit) {
			result = append(result, key)
		}
	}
	return result
}

// UpdateHighest returns the larger of current and the highest positive index
// among keys. Indices above limit are ignored.
func UpdateHighest(current int, keys []string, limit int) int {
	highest := current
	for _, key := range keys {
		idx := ResolveIndex(key)
		if idx <= 0 || !InRange(idx, limit) {
			continue
		}
		if idx > highest {
			highest = idx
		}
	}
	return highest
}

// SlotIndex returns the 1-based chart slot a key occupies, or Unindexed when
// its index exceeds limit. Channel 0 takes slot 1 while no positive channel
// has been seen, so single-channel devices that report on ch0 still chart.
func SlotIndex(key string, maxIndex, limit int) int {
	idx := ResolveIndex(key)
	if !InRange(idx, limit) {
		return Unindexed
	}
	if idx == 0 && maxIndex <= 0 {
		return 1
	}
	return idx
}

// KeyForSlot returns the channel key charted in the given slot. Keys are
// scanned in sorted order and the first match wins.
func KeyForSlot(keys []string, slot, maxIndex, limit int) (string, bool) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	for _, key := range sorted {
		if SlotIndex(key, maxIndex, limit) == slot {
			return key, true
		}
	}
	return "", false
}

// SortedKeys returns the keys of a channel map in ascending order
func SortedKeys[V any](channels map[string]V) []string {
	keys := make([]string, 0, len(channels))
	for k := range channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
