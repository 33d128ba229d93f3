package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	xlogger "coincast/pkg/logger"
)

// Hub fans refreshed snapshots out to connected websocket clients. Clients
// only listen; inbound frames are drained and dropped.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   *xlogger.Logger
}

func NewHub(l *xlogger.Logger) *Hub {
	if l == nil {
		l = xlogger.Nop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: l,
	}
}

// Handle upgrades the connection and parks it until the client goes away.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("websocket client connected", xlogger.Int("clients", n))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	return nil
}

// Broadcast writes v as JSON to every client, dropping the ones that fail.
func (h *Hub) Broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(v); err != nil {
			h.logger.Warn("websocket write failed", xlogger.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
