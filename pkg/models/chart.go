package models

import (
	"encoding/json"
	"time"
)

// Point is one chart point; X is rendered as epoch milliseconds
type Point struct {
	X time.Time
	Y float64
}

// MarshalJSON encodes the point as {"x": <epoch ms>, "y": <value>}
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X int64   `json:"x"`
		Y float64 `json:"y"`
	}{X: p.X.UnixMilli(), Y: p.Y})
}

// UnmarshalJSON accepts any timestamp form understood by ParseTimestamp
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		X interface{} `json:"x"`
		Y float64     `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.X, _ = ParseTimestamp(raw.X)
	p.Y = raw.Y
	return nil
}

// Dataset is one rendered series of a chart fragment
type Dataset struct {
	Label            string  `json:"label"`
	Data             []Point `json:"data"`
	BorderColor      string  `json:"borderColor"`
	BackgroundColor  string  `json:"backgroundColor"`
	YAxisID          string  `json:"yAxisID,omitempty"`
	BorderWidth      int     `json:"borderWidth"`
	Tension          float64 `json:"tension"`
	PointRadius      int     `json:"pointRadius"`
	PointHoverRadius int     `json:"pointHoverRadius"`
	Fill             bool    `json:"fill"`
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	c := *d
	c.Data = append([]Point(nil), d.Data...)
	return &c
}

// Fragment is the chart-ready data for one channel slot
type Fragment struct {
	Datasets []*Dataset `json:"datasets"`
}

// Clone returns a deep copy of the fragment
func (f *Fragment) Clone() *Fragment {
	if f == nil {
		return nil
	}
	c := &Fragment{Datasets: make([]*Dataset, len(f.Datasets))}
	for i, d := range f.Datasets {
		c.Datasets[i] = d.Clone()
	}
	return c
}

// ChartData is the legacy single-chart view: the first fragment's datasets
type ChartData struct {
	Datasets []*Dataset `json:"datasets"`
}
