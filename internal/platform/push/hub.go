// Package push fans dashboard update events out to connected clients over
// WebSockets. There is a single feed: every open dashboard panel receives
// every event and re-reads the aggregated state in response.
package push

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// EventDashboardUpdated is emitted after every successful ingestion.
const EventDashboardUpdated = "dashboard.updated"

// Event is one push notification sent to connected clients.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// client is a single connected dashboard.
type client struct {
	id   string
	send chan []byte
}

// Hub tracks connected clients and broadcasts events to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl] = struct{}{}
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// Broadcast sends an event to every connected client. Clients whose send
// buffer is full are skipped rather than blocking the broadcaster.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("push: marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client, and starts
// the read/write pumps.
func (h *Hub) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		id:   uuid.New().String(),
		send: make(chan []byte, 64),
	}
	h.register(cl)
	h.logger.Debug().Str("client_id", cl.id).Msg("dashboard connected")

	go h.writePump(cl, ws)
	go h.readPump(cl, ws)

	return nil
}

// readPump drains inbound messages until the peer disconnects. The feed is
// broadcast-only, so inbound payloads are ignored.
func (h *Hub) readPump(cl *client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.unregister(cl)
		ws.Close()
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(cl *client, ws *gorillawebsocket.Conn) {
	defer ws.Close()
	for message := range cl.send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}
