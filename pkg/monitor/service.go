package monitor

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service manages the live monitors of one process
type Service struct {
	monitors map[uuid.UUID]*Monitor
	mu       sync.RWMutex
	ctx      context.Context
	log      logrus.FieldLogger
}

// NewService creates a new Service
func NewService(log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		monitors: make(map[uuid.UUID]*Monitor),
		log:      log,
	}
}

// Add registers a monitor. If the service is already running the monitor
// is started right away.
func (s *Service) Add(m *Monitor) {
	s.mu.Lock()
	s.monitors[m.ID] = m
	ctx := s.ctx
	s.mu.Unlock()

	if ctx != nil {
		s.start(ctx, m)
	}
}

// Remove stops and unregisters a monitor
func (s *Service) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	m, ok := s.monitors[id]
	delete(s.monitors, id)
	s.mu.Unlock()

	if ok {
		m.Stop()
	}
	return ok
}

// Get retrieves a monitor by ID
func (s *Service) Get(id uuid.UUID) (*Monitor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.monitors[id]
	return m, ok
}

// GetByEntity retrieves a monitor by the entity it streams
func (s *Service) GetByEntity(entityID string) (*Monitor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.monitors {
		if m.EntityID == entityID {
			return m, true
		}
	}
	return nil, false
}

// All returns all monitors sorted by entity
func (s *Service) All() []*Monitor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	monitors := make([]*Monitor, 0, len(s.monitors))
	for _, m := range s.monitors {
		monitors = append(monitors, m)
	}
	sort.Slice(monitors, func(i, j int) bool {
		return monitors[i].EntityID < monitors[j].EntityID
	})
	return monitors
}

// Count returns the number of registered monitors
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.monitors)
}

// Start connects every registered monitor. Failed first attempts are
// logged; the connection keeps retrying in the background.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	for _, m := range s.All() {
		s.start(ctx, m)
	}
	s.log.Infof("✓ Monitor service started (%d monitors)", s.Count())
}

func (s *Service) start(ctx context.Context, m *Monitor) {
	if err := m.Start(ctx); err != nil {
		s.log.WithError(err).WithField("entity", m.EntityID).Warn("⚠ Monitor did not connect on first attempt")
	}
}

// Stop disconnects every monitor
func (s *Service) Stop() {
	s.mu.Lock()
	s.ctx = nil
	s.mu.Unlock()

	for _, m := range s.All() {
		m.Stop()
	}
	s.log.Info("✓ Monitor service stopped")
}
