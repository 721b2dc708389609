package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsServer struct {
	srv      *httptest.Server
	received chan Message
	conns    chan *websocket.Conn
	auth     chan string
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	ws := &wsServer{
		received: make(chan Message, 16),
		conns:    make(chan *websocket.Conn, 4),
		auth:     make(chan string, 4),
	}
	upgrader := websocket.Upgrader{}
	ws.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.auth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ws.conns <- conn
		for {
			var msg Message
			if conn.ReadJSON(&msg) != nil {
				return
			}
			ws.received <- msg
		}
	}))
	t.Cleanup(ws.srv.Close)
	return ws
}

func (ws *wsServer) url() string {
	return "ws" + strings.TrimPrefix(ws.srv.URL, "http")
}

func (ws *wsServer) expect(t *testing.T, event string) Message {
	t.Helper()
	select {
	case msg := <-ws.received:
		require.Equal(t, event, msg.Event)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", event)
		return Message{}
	}
}

func TestStartJoinsDriverRoom(t *testing.T) {
	ws := newWSServer(t)
	c := New(ws.url())
	defer c.Close()

	connected := make(chan struct{}, 1)
	c.OnConnect(func() { connected <- struct{}{} })
	c.Start("tok_1", "d1")

	select {
	case auth := <-ws.auth:
		assert.Equal(t, "Bearer tok_1", auth)
	case <-time.After(2 * time.Second):
		t.Fatal("no connection attempt")
	}

	join := ws.expect(t, "driver_join")
	var data map[string]string
	require.NoError(t, json.Unmarshal(join.Data, &data))
	assert.Equal(t, "d1", data["driverId"])

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect never fired")
	}
	assert.True(t, c.Connected())
}

func TestEmitLocation(t *testing.T) {
	ws := newWSServer(t)
	c := New(ws.url())
	defer c.Close()

	connected := make(chan struct{}, 1)
	c.OnConnect(func() { connected <- struct{}{} })
	c.Start("", "d1")
	<-connected
	ws.expect(t, "driver_join")

	require.NoError(t, c.EmitLocation("77", 40.7, -74.0))

	msg := ws.expect(t, "driver_location_update")
	var data map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "77", data["orderId"])
	assert.Equal(t, 40.7, data["lat"])
}

func TestEmitLocationOmitsEmptyOrderID(t *testing.T) {
	ws := newWSServer(t)
	c := New(ws.url())
	defer c.Close()

	connected := make(chan struct{}, 1)
	c.OnConnect(func() { connected <- struct{}{} })
	c.Start("", "d1")
	<-connected
	ws.expect(t, "driver_join")

	require.NoError(t, c.EmitLocation("", 1, 2))
	msg := ws.expect(t, "driver_location_update")
	var data map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	_, hasOrder := data["orderId"]
	assert.False(t, hasOrder)
}

func TestDashboardPushDispatches(t *testing.T) {
	ws := newWSServer(t)
	c := New(ws.url())
	defer c.Close()

	pushed := make(chan struct{}, 1)
	c.OnDashboardUpdated(func() { pushed <- struct{}{} })
	connected := make(chan struct{}, 1)
	c.OnConnect(func() { connected <- struct{}{} })
	c.Start("", "d1")
	<-connected

	conn := <-ws.conns
	require.NoError(t, conn.WriteJSON(Message{Event: "dashboard_updated"}))

	select {
	case <-pushed:
	case <-time.After(2 * time.Second):
		t.Fatal("dashboard handler never fired")
	}
}

func TestEmitBeforeConnectFails(t *testing.T) {
	c := New("ws://127.0.0.1:0")
	defer c.Close()
	assert.ErrorIs(t, c.EmitLocation("", 1, 2), ErrNotConnected)
	assert.False(t, c.Connected())
}

func TestCloseIsIdempotent(t *testing.T) {
	ws := newWSServer(t)
	c := New(ws.url())

	connected := make(chan struct{}, 1)
	c.OnConnect(func() { connected <- struct{}{} })
	c.Start("", "d1")
	<-connected

	c.Close()
	c.Close() // must not panic
	assert.Eventually(t, func() bool { return !c.Connected() }, time.Second, time.Millisecond)
}
