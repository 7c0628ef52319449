package processor

import (
	"sync"
	"time"

	"github.com/sguter90/sensorcharts/pkg/channel"
	"github.com/sguter90/sensorcharts/pkg/kinds"
	"github.com/sguter90/sensorcharts/pkg/models"
	"github.com/sguter90/sensorcharts/pkg/parser"
	"github.com/sirupsen/logrus"
)

// Update describes the effect of one accepted message
type Update struct {
	Kind            string
	Structural      bool
	RedrawSignal    int
	MaxChannelIndex int
	// LatestPoints holds the newly seen points keyed by zero-based slot
	LatestPoints map[int][]models.Point
	Message      *models.EnhancedMessage
}

// Session accumulates the live stream of one entity for one measurement kind
// and keeps chart-ready fragments up to date.
//
// Ingestion is expected from a single goroutine (the connection's read loop);
// the lock lets other goroutines read state concurrently.
type Session struct {
	mu       sync.RWMutex
	cfg      kinds.Config
	registry *parser.Registry
	log      logrus.FieldLogger
	now      func() time.Time

	fragments       []*models.Fragment
	lastMessage     *models.EnhancedMessage
	recent          *messageRing
	accumulated     map[string][]models.Sample
	maxChannelIndex int
	lastProcessed   map[string]time.Time
	latestPoints    map[int][]models.Point
	redrawSignal    int
	// ignored holds keys already reported as above MaxChannels
	ignored map[string]struct{}
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for ignored and rejected messages
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithParser replaces the default payload layouts
func WithParser(registry *parser.Registry) Option {
	return func(s *Session) {
		s.registry = registry
	}
}

// WithClock sets the clock used when a message carries no arrival date
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates an empty session for a measurement kind
func NewSession(cfg kinds.Config, opts ...Option) *Session {
	cfg = cfg.WithDefaults()
	s := &Session{
		cfg:           cfg,
		registry:      parser.DefaultRegistry(),
		log:           logrus.StandardLogger(),
		now:           time.Now,
		recent:        newMessageRing(cfg.Capacity),
		lastProcessed: make(map[string]time.Time),
		ignored:       make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.WithField("kind", cfg.Kind)
	return s
}

// Kind returns the measurement kind this session charts
func (s *Session) Kind() string {
	return s.cfg.Kind
}

// Config returns the kind configuration in use
func (s *Session) Config() kinds.Config {
	return s.cfg
}

// ProcessIncomingData ingests one decoded frame. It returns nil when the
// message is ignored, leaving every part of the session untouched.
func (s *Session) ProcessIncomingData(msg models.RawMessage) *Update {
	if msg == nil {
		return nil
	}

	if e, ok := msg.ErrorField(); ok {
		s.log.WithField("error", e).Warn("⚠ Message with error received, skipping")
		return nil
	}

	channels, shape, ok := s.registry.Extract(msg, s.cfg.Kind)
	if !ok {
		s.log.Debug("No channels for kind in message, ignoring")
		return nil
	}

	stats := CalculateBufferStats(msg, s.cfg.Kind)
	if s.cfg.PostProcess != nil {
		stats.Extra = s.cfg.PostProcess(stats, msg)
	}

	received, ok := models.ParseTimestamp(msg.ArrivalDate())
	if !ok {
		received = s.now()
	}

	enhanced := &models.EnhancedMessage{
		Raw:                msg,
		BufferStats:        stats,
		ReceptionTimestamp: received,
		DeviceName:         msg.DeviceName(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastMessage = enhanced
	s.recent.push(enhanced, channels)
	s.accumulated = s.recent.accumulate()
	keys := channel.SortedKeys(s.accumulated)
	s.warnOutOfRange(keys)
	s.maxChannelIndex = channel.UpdateHighest(s.maxChannelIndex, keys, s.cfg.MaxChannels)

	next := BuildFragments(s.accumulated, s.maxChannelIndex, s.cfg)
	var structural bool
	s.fragments, structural = applyFragments(s.fragments, next)
	if structural {
		s.redrawSignal++
	}

	s.latestPoints = newPointsBySlot(channels, s.maxChannelIndex, s.cfg.MaxChannels, s.lastProcessed)

	s.log.WithFields(logrus.Fields{
		"shape":      shape,
		"channels":   len(channels),
		"fragments":  len(s.fragments),
		"structural": structural,
	}).Debug("✓ Message processed")

	return &Update{
		Kind:            s.cfg.Kind,
		Structural:      structural,
		RedrawSignal:    s.redrawSignal,
		MaxChannelIndex: s.maxChannelIndex,
		LatestPoints:    copyPoints(s.latestPoints),
		Message:         enhanced,
	}
}

// warnOutOfRange logs each channel key above MaxChannels once. Caller holds mu.
func (s *Session) warnOutOfRange(keys []string) {
	for _, key := range channel.OutOfRange(keys, s.cfg.MaxChannels) {
		if _, seen := s.ignored[key]; seen {
			continue
		}
		s.ignored[key] = struct{}{}
		s.log.WithFields(logrus.Fields{
			"channel":      key,
			"max_channels": s.cfg.MaxChannels,
		}).Warn("⚠ Channel index above limit, ignoring")
	}
}

// ClearData resets the session to its freshly constructed state
func (s *Session) ClearData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fragments = nil
	s.lastMessage = nil
	s.recent.reset()
	s.accumulated = nil
	s.maxChannelIndex = 0
	s.lastProcessed = make(map[string]time.Time)
	s.latestPoints = nil
	s.redrawSignal = 0
	s.ignored = make(map[string]struct{})

	s.log.Info("✓ Session data cleared")
}

// ChartFragments returns the live fragments. Datasets are updated in place
// by later messages; use Snapshot for a stable copy.
func (s *Session) ChartFragments() []*models.Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fragments
}

// ChartData returns the first fragment's datasets as a single chart
func (s *Session) ChartData() *models.ChartData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.fragments) == 0 {
		return &models.ChartData{Datasets: []*models.Dataset{}}
	}
	return &models.ChartData{Datasets: s.fragments[0].Datasets}
}

// LastEnhancedMessage returns the most recently accepted message, or nil
func (s *Session) LastEnhancedMessage() *models.EnhancedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessage
}

// RecentMessages returns the bounded window, most recent first
func (s *Session) RecentMessages() []*models.EnhancedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recent.messages()
}

// RedrawSignal increments on every structural change
func (s *Session) RedrawSignal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.redrawSignal
}

// MaxChannelIndex returns the highest channel index seen since the last clear
func (s *Session) MaxChannelIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxChannelIndex
}

// LatestPointsByChannelIndex returns the points the last message added,
// keyed by zero-based slot
func (s *Session) LatestPointsByChannelIndex() map[int][]models.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPoints(s.latestPoints)
}

// AccumulatedChannels returns the merged samples of the current window
func (s *Session) AccumulatedChannels() map[string][]models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accumulated == nil {
		return nil
	}
	result := make(map[string][]models.Sample, len(s.accumulated))
	for k, v := range s.accumulated {
		result[k] = append([]models.Sample(nil), v...)
	}
	return result
}

// Snapshot is a deep copy of the chart state, safe to hand to other goroutines
type Snapshot struct {
	Kind            string                  `json:"kind"`
	Fragments       []*models.Fragment      `json:"fragments"`
	MaxChannelIndex int                     `json:"max_channel_index"`
	RedrawSignal    int                     `json:"redraw_signal"`
	MessageCount    int                     `json:"message_count"`
	LastMessage     *models.EnhancedMessage `json:"last_message,omitempty"`
}

// Snapshot returns a deep copy of the current chart state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fragments := make([]*models.Fragment, len(s.fragments))
	for i, f := range s.fragments {
		fragments[i] = f.Clone()
	}

	return Snapshot{
		Kind:            s.cfg.Kind,
		Fragments:       fragments,
		MaxChannelIndex: s.maxChannelIndex,
		RedrawSignal:    s.redrawSignal,
		MessageCount:    s.recent.len(),
		LastMessage:     s.lastMessage,
	}
}

func copyPoints(points map[int][]models.Point) map[int][]models.Point {
	if points == nil {
		return nil
	}
	result := make(map[int][]models.Point, len(points))
	for k, v := range points {
		result[k] = append([]models.Point(nil), v...)
	}
	return result
}
