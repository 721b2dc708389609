// Package realtime maintains the websocket channel to the backend: the agent
// joins its driver room after connecting, mirrors location pings on the
// socket and reacts to dashboard pushes. The channel is best-effort; REST is
// the source of truth.
package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("socket not connected")

const reconnectDelay = 5 * time.Second

type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	url      string
	token    string
	driverID string

	mu   sync.Mutex
	conn *websocket.Conn

	connected atomic.Bool
	stop      chan struct{}
	once      sync.Once

	onDashboard func()
	onConnect   func()
}

func New(url string) *Client {
	return &Client{url: url, stop: make(chan struct{})}
}

// OnDashboardUpdated registers the handler for server-pushed dashboard
// refreshes. Set before Start.
func (c *Client) OnDashboardUpdated(fn func()) { c.onDashboard = fn }

// OnConnect fires after every successful (re)connect and join.
func (c *Client) OnConnect(fn func()) { c.onConnect = fn }

// Start dials the socket and keeps it alive with a fixed reconnect delay
// until Close is called. It returns immediately.
func (c *Client) Start(token, driverID string) {
	c.token = token
	c.driverID = driverID
	go c.run()
}

func (c *Client) run() {
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		conn, err := c.dial()
		if err != nil {
			log.Printf("Socket connect failed: %v", err)
			select {
			case <-time.After(reconnectDelay):
				continue
			case <-c.stop:
				return
			}
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.connected.Store(true)

		if err := c.emit("driver_join", map[string]any{"driverId": c.driverID}); err != nil {
			log.Printf("Failed to join driver room: %v", err)
		}
		if c.onConnect != nil {
			c.onConnect()
		}

		c.readLoop(conn)

		c.connected.Store(false)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}
}

func (c *Client) dial() (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
	return conn, err
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.stop:
			default:
				log.Printf("Socket read error: %v", err)
			}
			_ = conn.Close()
			return
		}
		switch msg.Event {
		case "dashboard_updated":
			if c.onDashboard != nil {
				c.onDashboard()
			}
		}
	}
}

// EmitLocation mirrors a location ping over the socket. Callers treat a
// failure as non-fatal; the REST path owns durability.
func (c *Client) EmitLocation(orderID string, lat, lng float64) error {
	payload := map[string]any{"lat": lat, "lng": lng}
	if orderID != "" {
		payload["orderId"] = orderID
	}
	return c.emit("driver_location_update", payload)
}

func (c *Client) emit(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(Message{Event: event, Data: raw})
}

func (c *Client) Connected() bool { return c.connected.Load() }

// Close tears the channel down; safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.stop)
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	})
}
