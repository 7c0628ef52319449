package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	testCases := []struct {
		name     string
		entityID string
		kind     string
		expected string
	}{
		{name: "Simple", entityID: "7", kind: "voltage", expected: "device-7-voltage"},
		{name: "Mixed case", entityID: "Dev-A", kind: "Battery", expected: "device-dev-a-battery"},
		{name: "Spaces and symbols", entityID: "site 3/rack 1", kind: "current", expected: "device-site-3-rack-1-current"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Topic(tc.entityID, tc.kind))
		})
	}
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	log, _ := test.NewNullLogger()
	hub := NewHub(WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHub_PublishByTopic(t *testing.T) {
	hub, server := startHub(t)

	voltage := dial(t, server, "?topic=device-7-voltage")
	all := dial(t, server, "")
	waitForClients(t, hub, 2)

	require.NoError(t, hub.Publish("device-7-battery", TypeRedraw, map[string]int{"redraw_signal": 1}))
	require.NoError(t, hub.Publish("device-7-voltage", TypePoints, map[string]float64{"1": 12.5}))

	// the voltage subscriber never sees the battery frame
	env := readEnvelope(t, voltage)
	assert.Equal(t, TypePoints, env.Type)
	assert.Equal(t, "device-7-voltage", env.Topic)

	// an unfiltered client receives both, in order
	first := readEnvelope(t, all)
	second := readEnvelope(t, all)
	assert.Equal(t, "device-7-battery", first.Topic)
	assert.Equal(t, TypeRedraw, first.Type)
	assert.Equal(t, "device-7-voltage", second.Topic)
}

func TestHub_Unregister(t *testing.T) {
	hub, server := startHub(t)

	conn := dial(t, server, "?topic=x")
	waitForClients(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(WithLogger(log))

	// nothing consumes the queue, so it eventually reports full
	var err error
	for i := 0; i <= broadcastBuffer; i++ {
		err = hub.Publish("t", TypePoints, i)
	}
	assert.ErrorIs(t, err, ErrQueueFull)
}
