package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airtrail/internal/app"
	"github.com/ayusman/airtrail/pkg/logger"
	"github.com/ayusman/airtrail/pkg/metrics"
)

// WebSocket client tuning.
const (
	clientBuffer = 8
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SnapshotSource publishes one snapshot per processed frame.
type SnapshotSource interface {
	Subscribe(fn func(app.Snapshot)) (unsubscribe func())
}

// Hub fans pipeline snapshots out to WebSocket clients. Slow clients miss
// frames instead of stalling the pipeline.
type Hub struct {
	metrics     *metrics.Manager
	log         logger.Logger
	unsubscribe func()

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub subscribes to source and starts broadcasting.
func NewHub(source SnapshotSource, m *metrics.Manager) *Hub {
	if m == nil {
		m = metrics.Default()
	}
	h := &Hub{
		metrics: m,
		log:     logger.Named("ws"),
		clients: make(map[*client]struct{}),
	}
	h.unsubscribe = source.Subscribe(h.broadcast)
	return h
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	defer h.unregister(c)

	go c.writePump()

	// Reads only detect the close; clients send nothing we use.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the subscription and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.unsubscribe()
	for _, c := range clients {
		c.close()
		c.conn.Close()
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.UpdateWSClients(len(h.clients))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.metrics.UpdateWSClients(len(h.clients))
	h.mu.Unlock()

	c.close()
	c.conn.Close()
}

// broadcast runs on the pipeline goroutine.
func (h *Hub) broadcast(snap app.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		h.log.Error(context.Background(), "failed to encode snapshot", logger.Error(err))
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (c *client) writePump() {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
}
