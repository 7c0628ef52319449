package models

import (
	"fmt"
	"sort"
	"time"
)

// ChartQueryParams holds the query parameters for chart state reads
type ChartQueryParams struct {
	Kind    string
	Channel int // 1-based channel slot, 0 for all
	Since   string
	Limit   int
	Order   string
}

// Validate checks if the query parameters are valid
func (p *ChartQueryParams) Validate() error {
	if p.Kind == "" {
		return fmt.Errorf("kind is required")
	}

	if p.Channel < 0 {
		return fmt.Errorf("channel must be 0 (all) or a positive slot number")
	}

	// Validate limit
	if p.Limit < 1 || p.Limit > 10000 {
		return fmt.Errorf("limit must be between 1 and 10000")
	}

	if p.Order != "asc" && p.Order != "desc" {
		return fmt.Errorf("invalid order: %s (valid: asc, desc)", p.Order)
	}

	if p.Since != "" {
		since, ok := ParseTimestamp(p.Since)
		if !ok {
			return fmt.Errorf("invalid since: %s (expected RFC3339 or unix timestamp)", p.Since)
		}
		if since.After(time.Now().Add(time.Minute)) {
			return fmt.Errorf("since must not be in the future")
		}
	}

	return nil
}

// Apply returns filtered deep copies of the fragments: one slot (or all),
// points newer than Since, at most Limit most recent points per dataset, in Order.
func (p *ChartQueryParams) Apply(fragments []*Fragment) []*Fragment {
	var since time.Time
	if p.Since != "" {
		since, _ = ParseTimestamp(p.Since)
	}

	result := make([]*Fragment, 0, len(fragments))
	for i, f := range fragments {
		if p.Channel != 0 && p.Channel != i+1 {
			continue
		}

		c := f.Clone()
		for _, d := range c.Datasets {
			points := d.Data[:0]
			for _, pt := range d.Data {
				if !since.IsZero() && !pt.X.After(since) {
					continue
				}
				points = append(points, pt)
			}

			if p.Limit > 0 && len(points) > p.Limit {
				points = points[len(points)-p.Limit:]
			}

			if p.Order == "desc" {
				sort.SliceStable(points, func(a, b int) bool {
					return points[a].X.After(points[b].X)
				})
			}
			d.Data = points
		}
		result = append(result, c)
	}

	return result
}
