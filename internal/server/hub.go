package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// upgrader is used to upgrade HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local dev server only; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub maintains the set of live-reload clients and broadcasts to them.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	log     *zap.SugaredLogger
}

func newHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		log:     log,
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.log.Debug("Live-reload client connected")
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
		h.log.Debug("Live-reload client disconnected")
	}
}

func (h *Hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast sends a message to all registered clients, dropping the ones
// that fail.
func (h *Hub) broadcast(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.log.Warnf("Error writing to live-reload client: %v", err)
			client.Close()
			delete(h.clients, client)
		}
	}
}

// serveWs handles WebSocket requests from the peer.
func (h *Hub) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	h.register(conn)
	defer h.unregister(conn)

	// Clients never send; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
