// Package hub provides session group membership and fan-out for WebSocket clients.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/pokr/internal/domain"
	"github.com/xiaot623/pokr/internal/protocol"
)

// ErrBufferFull is returned when a connection's send buffer is full.
var ErrBufferFull = errors.New("send buffer full")

// ErrQueueFull is returned when the broadcast queue cannot take another message.
var ErrQueueFull = errors.New("broadcast queue full")

// Connection represents a single WebSocket connection.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	// groups is guarded by the hub lock.
	groups map[string]bool
	mu     sync.Mutex
}

// Hub manages all WebSocket connections and their session groups.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Sessions maps session code to set of connection IDs
	sessions map[string]map[string]bool

	unregister chan *Connection
	broadcast  chan *SessionMessage
	done       chan struct{}

	sendBuffer int
	logger     *slog.Logger
	mu         sync.RWMutex
}

// SessionMessage is used to broadcast a message to a session group.
type SessionMessage struct {
	SessionCode string
	Data        []byte
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-connection send buffer size.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithQueueSize sets the broadcast queue size.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.broadcast = make(chan *SessionMessage, n)
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub creates a new Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *SessionMessage, 256),
		done:        make(chan struct{}),
		sendBuffer:  256,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's main loop. It returns when ctx is done, closing every
// remaining connection's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, conn := range h.connections {
				h.remove(conn)
			}
			close(h.done)
			h.mu.Unlock()
			return

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()
			h.logger.Debug("connection unregistered", "conn_id", conn.ID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for connID := range h.sessions[msg.SessionCode] {
				conn, exists := h.connections[connID]
				if !exists {
					continue
				}
				select {
				case conn.Send <- msg.Data:
				default:
					h.logger.Warn("connection buffer full, dropping", "conn_id", connID, "code", msg.SessionCode)
					h.remove(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops a connection from every group and closes its send channel.
// Callers hold h.mu.
func (h *Hub) remove(conn *Connection) {
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	for code := range conn.groups {
		h.leave(conn, code)
	}
	close(conn.Send)
}

// NewConnection creates a new connection. It is not registered yet.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:     uuid.New().String(),
		Conn:   ws,
		Send:   make(chan []byte, h.sendBuffer),
		groups: make(map[string]bool),
	}
}

// Register registers a connection with the hub. Registering after Run has
// returned closes the connection's send channel straight away.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		close(conn.Send)
		return
	default:
	}
	h.connections[conn.ID] = conn
	h.logger.Debug("connection registered", "conn_id", conn.ID)
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Join adds a connection to a session group. A connection may belong to
// several groups at once.
func (h *Hub) Join(conn *Connection, sessionCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	if h.sessions[sessionCode] == nil {
		h.sessions[sessionCode] = make(map[string]bool)
	}
	h.sessions[sessionCode][conn.ID] = true
	conn.groups[sessionCode] = true
}

// Leave removes a connection from a session group. It reports whether the
// connection was a member.
func (h *Hub) Leave(conn *Connection, sessionCode string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leave(conn, sessionCode)
}

func (h *Hub) leave(conn *Connection, sessionCode string) bool {
	if !conn.groups[sessionCode] {
		return false
	}
	delete(conn.groups, sessionCode)
	if members := h.sessions[sessionCode]; members != nil {
		delete(members, conn.ID)
		if len(members) == 0 {
			delete(h.sessions, sessionCode)
		}
	}
	return true
}

// Publish encodes an event and queues it for every member of the session
// group. It never blocks.
func (h *Hub) Publish(sessionCode string, eventType domain.EventType, payload any) error {
	data, err := protocol.EncodeEvent(sessionCode, string(eventType), payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &SessionMessage{SessionCode: sessionCode, Data: data}:
		return nil
	default:
		return ErrQueueFull
	}
}

// SendToConnection sends a message to a specific connection.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return nil
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendJSONToConnection sends a JSON message to a specific connection.
func (h *Hub) SendJSONToConnection(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.SendToConnection(conn, data)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GetSessionCount returns the number of session groups with members.
func (h *Hub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// MemberCount returns the number of connections in a session group.
func (h *Hub) MemberCount(sessionCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionCode])
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
