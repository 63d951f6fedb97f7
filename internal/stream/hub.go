package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mkarev/nftmarket/internal/events"
	"github.com/mkarev/nftmarket/internal/model"
)

// Config holds event stream configuration.
type Config struct {
	SendBuffer   int           // Per-client outgoing frame buffer
	PingInterval time.Duration // Keepalive ping cadence
	WriteTimeout time.Duration // Per-frame write deadline
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   64,
		PingInterval: 15 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Hub upgrades HTTP requests to websocket subscriptions and broadcasts every
// marketplace event to all connected clients.
type Hub struct {
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// Input from the event dispatcher
	input *events.GrowableBuffer[model.Event]

	// Connected clients
	mu      sync.Mutex
	clients map[*client]struct{}

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Stats
	broadcast int64
	dropped   int64
}

// client is one connected websocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an event stream hub.
func NewHub(cfg Config, input *events.GrowableBuffer[model.Event], logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		input:   input,
		clients: make(map[*client]struct{}),
	}
}

// Start begins the broadcast loop.
func (h *Hub) Start(ctx context.Context) error {
	h.ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go h.broadcastLoop()

	h.logger.Info("event stream started", "send_buffer", h.cfg.SendBuffer)
	return nil
}

// Stop closes all client connections and shuts down the broadcast loop.
func (h *Hub) Stop(ctx context.Context) error {
	h.logger.Info("stopping event stream")

	if h.cancel != nil {
		h.cancel()
	}

	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("event stream stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("subscriber connected", "remote", conn.RemoteAddr().String(), "total", total)

	h.wg.Add(2)
	go h.writePump(c)
	go h.readPump(c)
}

// broadcastLoop drains the input buffer and fans frames out to clients.
func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		ev, ok := h.input.Receive()
		if !ok {
			return
		}

		frame, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("marshal event", "error", err)
			continue
		}

		h.mu.Lock()
		h.broadcast++
		for c := range h.clients {
			select {
			case c.send <- frame:
			default:
				// Slow client: drop it rather than stall the broadcast.
				h.dropped++
				delete(h.clients, c)
				close(c.send)
				c.conn.Close()
				h.logger.Warn("dropped slow subscriber", "remote", c.conn.RemoteAddr().String())
			}
		}
		h.mu.Unlock()
	}
}

// writePump writes frames and keepalive pings to one client.
func (h *Hub) writePump(c *client) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second),
				)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(h.cfg.WriteTimeout),
			); err != nil {
				h.unregister(c)
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// readPump consumes control frames and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.wg.Done()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}

// unregister removes a client if still registered.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		c.conn.Close()
	}
}
