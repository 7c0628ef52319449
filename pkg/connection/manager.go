package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sguter90/sensorcharts/pkg/api"
	"github.com/sguter90/sensorcharts/pkg/models"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Status is the lifecycle state of a Manager
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusOpen         Status = "open"
	StatusReconnecting Status = "reconnecting"
	StatusClosed       Status = "closed"
	StatusFailed       Status = "failed"
)

// ErrNotConnected is returned by Send while no connection is open
var ErrNotConnected = errors.New("websocket not connected")

// errSuperseded ends a dial that a newer Connect or Disconnect replaced
var errSuperseded = errors.New("connection attempt superseded")

// URLResolver obtains the stream URL for an entity
type URLResolver interface {
	ResolveWebSocketURL(ctx context.Context, entityID string) (string, error)
}

// ResolverFunc adapts a function to URLResolver
type ResolverFunc func(ctx context.Context, entityID string) (string, error)

func (f ResolverFunc) ResolveWebSocketURL(ctx context.Context, entityID string) (string, error) {
	return f(ctx, entityID)
}

// StaticURL resolves every entity to the same URL
func StaticURL(wsURL string) URLResolver {
	return ResolverFunc(func(ctx context.Context, entityID string) (string, error) {
		return wsURL, nil
	})
}

// Handlers are invoked from the connection's goroutines. OnMessage calls are
// sequential, one frame at a time.
type Handlers struct {
	OnOpen    func()
	OnMessage func(msg models.RawMessage)
	OnError   func(err error)
	OnClose   func(code int, reason string)
}

// Options tunes connecting and reconnecting
type Options struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	MaxAttempts    int
	ConnectTimeout time.Duration
	// FailFast stops retrying on configuration errors such as a missing token
	// or a non-websocket URL; transport failures are always retried
	FailFast bool
}

// DefaultOptions returns 1s..30s backoff, 10 attempts and a 10s connect timeout
func DefaultOptions() Options {
	return Options{
		BaseDelay:      1 * time.Second,
		MaxDelay:       30 * time.Second,
		MaxAttempts:    10,
		ConnectTimeout: 10 * time.Second,
	}
}

// Option configures a Manager
type Option func(*Manager)

// WithOptions replaces the default options
func WithOptions(opts Options) Option {
	return func(m *Manager) {
		m.opts = opts
	}
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithDialer sets a custom websocket dialer
func WithDialer(dialer *websocket.Dialer) Option {
	return func(m *Manager) {
		m.dialer = dialer
	}
}

// Manager owns one live websocket connection for one entity and keeps it
// alive with exponential backoff
type Manager struct {
	entityID string
	resolver URLResolver
	handlers Handlers
	opts     Options
	dialer   *websocket.Dialer
	log      logrus.FieldLogger

	mu          sync.Mutex
	writeMu     sync.Mutex
	conn        *websocket.Conn
	status      Status
	attempts    int
	timer       *time.Timer
	manualClose bool
	generation  int
	dialSeq     int
	runCtx      context.Context
	cancel      context.CancelFunc
}

// NewManager creates a manager; call Connect to start it
func NewManager(entityID string, resolver URLResolver, handlers Handlers, opts ...Option) *Manager {
	m := &Manager{
		entityID: entityID,
		resolver: resolver,
		handlers: handlers,
		opts:     DefaultOptions(),
		dialer:   websocket.DefaultDialer,
		log:      logrus.StandardLogger(),
		status:   StatusIdle,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.log = m.log.WithField("entity", entityID)
	return m
}

// Backoff returns min(base * 2^attempt, maxDelay)
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return maxDelay
	}
	d := base * time.Duration(1<<uint(attempt))
	if d <= 0 || d > maxDelay {
		return maxDelay
	}
	return d
}

// EntityID returns the entity this manager streams
func (m *Manager) EntityID() string {
	return m.entityID
}

// Status returns the current lifecycle state
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Attempts returns the number of reconnect attempts since the last open
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// IsConnected reports whether the connection is open
func (m *Manager) IsConnected() bool {
	return m.Status() == StatusOpen
}

// Connect makes the first connection attempt. A failed attempt is reported
// through the handlers and retried in the background unless it is a
// configuration error under FailFast. ctx bounds the whole lifetime,
// reconnects included.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.status == StatusOpen || m.status == StatusConnecting {
		m.mu.Unlock()
		return nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.runCtx, m.cancel = context.WithCancel(ctx)
	m.manualClose = false
	m.attempts = 0
	// claim the dial; a reconnect timer that already fired backs off
	m.status = StatusConnecting
	m.dialSeq++
	seq := m.dialSeq
	runCtx := m.runCtx
	m.mu.Unlock()

	if err := m.attempt(runCtx, seq); err != nil {
		m.handleAttemptError(err, seq)
		return err
	}
	return nil
}

// Disconnect closes the connection with a normal closure and cancels any
// pending reconnect
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.manualClose = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	conn := m.conn
	m.status = StatusClosed
	m.attempts = 0
	m.dialSeq++
	m.mu.Unlock()

	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client disconnect")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
			m.log.WithError(err).Debug("Close frame not sent")
		}
		conn.Close()
	}

	m.log.Info("✓ WebSocket disconnected")
}

// Send writes v as a JSON text frame. While disconnected it only logs a
// warning and returns ErrNotConnected.
func (m *Manager) Send(v interface{}) error {
	m.mu.Lock()
	conn := m.conn
	open := m.status == StatusOpen
	m.mu.Unlock()

	if conn == nil || !open {
		m.log.Warn("⚠ WebSocket not connected, cannot send message")
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// attempt resolves the URL and dials once. The caller has set
// StatusConnecting under mu, so only one attempt runs at a time.
func (m *Manager) attempt(ctx context.Context, seq int) error {
	wsURL, err := m.resolver.ResolveWebSocketURL(ctx, m.entityID)
	if err != nil {
		return fmt.Errorf("failed to resolve websocket url: %w", err)
	}
	if err := api.ValidateWebSocketURL(wsURL); err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()

	conn, resp, err := m.dialer.DialContext(dialCtx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", wsURL, err)
	}

	m.mu.Lock()
	if m.manualClose || seq != m.dialSeq {
		m.mu.Unlock()
		conn.Close()
		return errSuperseded
	}
	m.conn = conn
	m.attempts = 0
	m.status = StatusOpen
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	m.log.Info("✓ WebSocket connected")
	if m.handlers.OnOpen != nil {
		m.handlers.OnOpen()
	}

	go m.readLoop(conn, gen)
	return nil
}

// isConfigError reports failures that retrying cannot fix
func isConfigError(err error) bool {
	return errors.Is(err, api.ErrNoToken) || errors.Is(err, api.ErrInvalidWebSocketURL)
}

// handleAttemptError reports a failed attempt and schedules the next one.
// Failures of an attempt that a newer Connect or Disconnect replaced are dropped.
func (m *Manager) handleAttemptError(err error, seq int) {
	m.mu.Lock()
	if seq != m.dialSeq || m.manualClose || errors.Is(err, errSuperseded) {
		m.mu.Unlock()
		return
	}
	if errors.Is(err, context.Canceled) {
		m.status = StatusClosed
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.log.WithError(err).Error("❌ WebSocket connection failed")
	m.reportError(err)

	if isConfigError(err) {
		if m.opts.FailFast {
			m.mu.Lock()
			m.status = StatusFailed
			m.mu.Unlock()
			m.log.Warn("⚠ Configuration error, not retrying")
			return
		}
	} else {
		m.notifyClose(websocket.CloseAbnormalClosure, err.Error())
	}

	m.scheduleReconnect()
}

func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.manualClose || (m.runCtx != nil && m.runCtx.Err() != nil) {
		return
	}

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	if m.attempts >= m.opts.MaxAttempts {
		m.status = StatusFailed
		m.log.Warnf("❌ Max reconnect attempts (%d) reached, giving up", m.opts.MaxAttempts)
		return
	}

	delay := Backoff(m.attempts, m.opts.BaseDelay, m.opts.MaxDelay)
	m.attempts++
	m.status = StatusReconnecting
	m.log.Infof("Reconnecting in %s (attempt %d/%d)", delay, m.attempts, m.opts.MaxAttempts)

	m.timer = time.AfterFunc(delay, m.reconnect)
}

func (m *Manager) reconnect() {
	m.mu.Lock()
	if m.manualClose || m.status != StatusReconnecting {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.status = StatusConnecting
	m.dialSeq++
	seq := m.dialSeq
	ctx := m.runCtx
	m.mu.Unlock()

	if err := m.attempt(ctx, seq); err != nil {
		m.handleAttemptError(err, seq)
	}
}

func (m *Manager) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleDrop(conn, gen, err)
			return
		}

		var msg models.RawMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.log.WithError(err).Error("❌ Failed to parse message")
			m.reportError(fmt.Errorf("malformed message: %w", err))
			continue
		}
		if msg == nil {
			m.reportError(errors.New("malformed message: not a JSON object"))
			continue
		}

		if m.handlers.OnMessage != nil {
			m.handlers.OnMessage(msg)
		}
	}
}

func (m *Manager) handleDrop(conn *websocket.Conn, gen int, err error) {
	code, reason := websocket.CloseAbnormalClosure, err.Error()
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		code, reason = closeErr.Code, closeErr.Text
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	manual := m.manualClose
	if manual || code == websocket.CloseNormalClosure {
		m.status = StatusClosed
	}
	m.mu.Unlock()
	conn.Close()

	if manual {
		m.notifyClose(websocket.CloseNormalClosure, "Client disconnect")
		return
	}

	if code == websocket.CloseNormalClosure {
		m.log.Info("✓ WebSocket closed normally")
		m.notifyClose(code, reason)
		return
	}

	m.log.WithFields(logrus.Fields{"code": code, "reason": reason}).Warn("⚠ WebSocket closed unexpectedly")
	m.notifyClose(code, reason)
	m.scheduleReconnect()
}

func (m *Manager) reportError(err error) {
	if m.handlers.OnError != nil {
		m.handlers.OnError(err)
	}
}

func (m *Manager) notifyClose(code int, reason string) {
	if m.handlers.OnClose != nil {
		m.handlers.OnClose(code, reason)
	}
}
