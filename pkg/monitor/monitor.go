package monitor

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/sensorcharts/pkg/connection"
	"github.com/sguter90/sensorcharts/pkg/kinds"
	"github.com/sguter90/sensorcharts/pkg/models"
	"github.com/sguter90/sensorcharts/pkg/processor"
	"github.com/sguter90/sensorcharts/pkg/relay"
	"github.com/sirupsen/logrus"
)

// Publisher receives chart updates for streaming consumers
type Publisher interface {
	Publish(topic, msgType string, payload interface{}) error
}

// PointsEvent is published for every accepted message
type PointsEvent struct {
	MonitorID          uuid.UUID              `json:"monitor_id"`
	Kind               string                 `json:"kind"`
	Points             map[int][]models.Point `json:"points"`
	BufferStats        models.BufferStats     `json:"buffer_stats"`
	ReceptionTimestamp time.Time              `json:"reception_timestamp"`
}

// RedrawEvent is published when the chart layout changed
type RedrawEvent struct {
	MonitorID       uuid.UUID          `json:"monitor_id"`
	Kind            string             `json:"kind"`
	RedrawSignal    int                `json:"redraw_signal"`
	MaxChannelIndex int                `json:"max_channel_index"`
	Fragments       []*models.Fragment `json:"fragments"`
}

// Config describes one monitor
type Config struct {
	EntityID   string
	Kinds      []kinds.Config
	Resolver   connection.URLResolver
	Connection connection.Options
	Publisher  Publisher
	Logger     logrus.FieldLogger
	// OnUpdate is called after each kind session accepted a message
	OnUpdate func(m *Monitor, update *processor.Update)
}

// Monitor streams one entity and charts every configured measurement kind
type Monitor struct {
	ID        uuid.UUID
	EntityID  string
	StartedAt time.Time

	conn      *connection.Manager
	sessions  map[string]*processor.Session
	kinds     []string
	publisher Publisher
	onUpdate  func(m *Monitor, update *processor.Update)
	log       logrus.FieldLogger
}

// New creates a monitor with one session per kind; call Start to connect
func New(cfg Config) (*Monitor, error) {
	if cfg.EntityID == "" {
		return nil, errors.New("entity id is required")
	}
	if len(cfg.Kinds) == 0 {
		return nil, errors.New("at least one measurement kind is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("url resolver is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Monitor{
		ID:        uuid.New(),
		EntityID:  cfg.EntityID,
		StartedAt: time.Now().UTC(),
		sessions:  make(map[string]*processor.Session, len(cfg.Kinds)),
		publisher: cfg.Publisher,
		onUpdate:  cfg.OnUpdate,
		log:       log.WithField("entity", cfg.EntityID),
	}

	for _, kc := range cfg.Kinds {
		if kc.Kind == "" {
			continue
		}
		m.sessions[kc.Kind] = processor.NewSession(kc, processor.WithLogger(m.log))
		m.kinds = append(m.kinds, kc.Kind)
	}
	sort.Strings(m.kinds)

	m.conn = connection.NewManager(cfg.EntityID, cfg.Resolver, connection.Handlers{
		OnOpen: func() {
			m.log.Info("✓ Monitor stream open")
		},
		OnMessage: m.Ingest,
		OnError: func(err error) {
			m.log.WithError(err).Debug("Stream error")
		},
		OnClose: func(code int, reason string) {
			m.log.WithFields(logrus.Fields{"code": code, "reason": reason}).Info("Monitor stream closed")
		},
	}, connection.WithOptions(cfg.Connection), connection.WithLogger(m.log))

	return m, nil
}

// Start connects to the entity's stream
func (m *Monitor) Start(ctx context.Context) error {
	return m.conn.Connect(ctx)
}

// Stop disconnects the stream
func (m *Monitor) Stop() {
	m.conn.Disconnect()
}

// Status returns the connection state
func (m *Monitor) Status() connection.Status {
	return m.conn.Status()
}

// Kinds returns the charted measurement kinds in sorted order
func (m *Monitor) Kinds() []string {
	return append([]string(nil), m.kinds...)
}

// Session returns the session charting kind
func (m *Monitor) Session(kind string) (*processor.Session, bool) {
	s, ok := m.sessions[kind]
	return s, ok
}

// Ingest feeds one frame to every kind session and publishes the results
func (m *Monitor) Ingest(msg models.RawMessage) {
	for _, kind := range m.kinds {
		update := m.sessions[kind].ProcessIncomingData(msg)
		if update == nil {
			continue
		}

		m.publish(update)
		if m.onUpdate != nil {
			m.onUpdate(m, update)
		}
	}
}

func (m *Monitor) publish(update *processor.Update) {
	if m.publisher == nil {
		return
	}

	topic := relay.Topic(m.EntityID, update.Kind)

	if update.Structural {
		session := m.sessions[update.Kind]
		event := RedrawEvent{
			MonitorID:       m.ID,
			Kind:            update.Kind,
			RedrawSignal:    update.RedrawSignal,
			MaxChannelIndex: update.MaxChannelIndex,
			Fragments:       session.Snapshot().Fragments,
		}
		if err := m.publisher.Publish(topic, relay.TypeRedraw, event); err != nil {
			m.log.WithError(err).Warn("⚠ Failed to publish redraw")
		}
	}

	event := PointsEvent{
		MonitorID:          m.ID,
		Kind:               update.Kind,
		Points:             update.LatestPoints,
		BufferStats:        update.Message.BufferStats,
		ReceptionTimestamp: update.Message.ReceptionTimestamp,
	}
	if err := m.publisher.Publish(topic, relay.TypePoints, event); err != nil {
		m.log.WithError(err).Warn("⚠ Failed to publish points")
	}
}

// Info summarizes the monitor
func (m *Monitor) Info() models.MonitorInfo {
	return models.MonitorInfo{
		ID:        m.ID,
		EntityID:  m.EntityID,
		Status:    string(m.conn.Status()),
		Attempts:  m.conn.Attempts(),
		Kinds:     m.Kinds(),
		StartedAt: m.StartedAt,
	}
}

// Chart returns the chart state for kind, filtered by params
func (m *Monitor) Chart(kind string, params models.ChartQueryParams) (*models.ChartResponse, bool) {
	session, ok := m.sessions[kind]
	if !ok {
		return nil, false
	}

	snap := session.Snapshot()
	resp := &models.ChartResponse{
		MonitorID:       m.ID,
		Kind:            kind,
		Fragments:       params.Apply(snap.Fragments),
		MaxChannelIndex: snap.MaxChannelIndex,
		RedrawSignal:    snap.RedrawSignal,
		MessageCount:    snap.MessageCount,
	}

	if snap.LastMessage != nil {
		resp.BufferStats = snap.LastMessage.BufferStats.Fields()
		received := snap.LastMessage.ReceptionTimestamp
		resp.LastReception = &received
	}

	return resp, true
}

// Clear resets the session for kind
func (m *Monitor) Clear(kind string) bool {
	session, ok := m.sessions[kind]
	if !ok {
		return false
	}
	session.ClearData()
	return true
}
