package parser

import (
	"github.com/sguter90/sensorcharts/pkg/models"
)

// Shape defines the interface for all payload layouts a device may send
type Shape interface {
	// Name returns the shape identifier used in logs
	Name() string

	// Extract returns per-channel samples for one measurement kind, or an
	// empty map when the message does not use this layout for the kind
	Extract(msg models.RawMessage, kind string) map[string][]models.Sample
}

// Registry holds the shapes in priority order
type Registry struct {
	shapes []Shape
}

// NewRegistry creates a new shape registry
func NewRegistry(shapes ...Shape) *Registry {
	r := &Registry{}
	for _, s := range shapes {
		r.Register(s)
	}
	return r
}

// DefaultRegistry returns a registry with every known layout, most specific first
func DefaultRegistry() *Registry {
	return NewRegistry(
		ReadingList{},
		NestedMeasurements{},
		WrappedMeasurements{},
		WrappedValues{},
	)
}

// Register appends a shape with the lowest priority so far
func (r *Registry) Register(s Shape) {
	if s == nil {
		return
	}
	r.shapes = append(r.shapes, s)
}

// All returns all registered shapes in priority order
func (r *Registry) All() []Shape {
	return append([]Shape(nil), r.shapes...)
}

// Extract tries each shape in order; the first one yielding at least one
// channel wins. ok is false when no shape matched.
func (r *Registry) Extract(msg models.RawMessage, kind string) (map[string][]models.Sample, string, bool) {
	if msg == nil {
		return nil, "", false
	}

	for _, s := range r.shapes {
		channels := s.Extract(msg, kind)
		if len(channels) > 0 {
			return channels, s.Name(), true
		}
	}
	return nil, "", false
}

var defaultRegistry = DefaultRegistry()

// ExtractChannels normalizes a message with the default layouts
func ExtractChannels(msg models.RawMessage, kind string) (map[string][]models.Sample, bool) {
	channels, _, ok := defaultRegistry.Extract(msg, kind)
	return channels, ok
}
