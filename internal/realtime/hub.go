package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"push-service/internal/logging"
)

// MaxConnectionsPerUser caps open sockets per user.
const MaxConnectionsPerUser = 10

const writeTimeout = 5 * time.Second

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub fans stored alerts out to a user's open WebSocket connections.
type Hub struct {
	connections map[string]map[*websocket.Conn]*client // userID -> connections
	mutex       sync.Mutex
	logger      *logging.Logger
	upgrader    websocket.Upgrader
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[*websocket.Conn]*client),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	if !h.AddConnection(userID, conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many connections"),
			time.Now().Add(writeTimeout))
		return conn.Close()
	}
	defer func() {
		h.RemoveConnection(userID, conn)
		_ = conn.Close()
	}()

	// Clients only listen; reading drives ping/pong and close detection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// AddConnection registers conn for userID. It reports false when the user is
// already at MaxConnectionsPerUser.
func (h *Hub) AddConnection(userID string, conn *websocket.Conn) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, exists := h.connections[userID]; !exists {
		h.connections[userID] = make(map[*websocket.Conn]*client)
	}
	if len(h.connections[userID]) >= MaxConnectionsPerUser {
		h.logger.Warnf("Max connections reached for user %s", userID)
		return false
	}
	h.connections[userID][conn] = &client{conn: conn}
	h.logger.Infof("Added WebSocket connection for user %s (total: %d)", userID, len(h.connections[userID]))
	return true
}

func (h *Hub) RemoveConnection(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if conns, exists := h.connections[userID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, userID)
		}
		h.logger.Infof("Removed WebSocket connection for user %s (remaining: %d)", userID, len(conns))
	}
}

// Count returns the number of open connections for userID.
func (h *Hub) Count(userID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[userID])
}

// SendToUser writes v as JSON to every connection of userID. The hub lock
// is only held to snapshot the connections, so a slow socket never stalls
// other users. Connections that fail the write are dropped.
func (h *Hub) SendToUser(userID string, v any) {
	h.mutex.Lock()
	clients := make([]*client, 0, len(h.connections[userID]))
	for _, c := range h.connections[userID] {
		clients = append(clients, c)
	}
	h.mutex.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(v); err != nil {
			h.logger.Errorf("Failed to send WebSocket message to user %s: %v", userID, err)
			h.RemoveConnection(userID, c.conn)
			_ = c.conn.Close()
		}
	}
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}
