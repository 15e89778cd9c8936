// Package ws provides the WebSocket endpoint that relays session events.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/pokr/internal/config"
	"github.com/xiaot623/pokr/internal/hub"
	"github.com/xiaot623/pokr/internal/protocol"
	"github.com/xiaot623/pokr/internal/service"
)

// SessionValidator decides whether a session group may be joined.
type SessionValidator interface {
	ValidateSessionCode(ctx context.Context, code string) (bool, error)
}

// Server handles WebSocket connections.
type Server struct {
	cfg      config.WebSocketConfig
	hub      *hub.Hub
	sessions SessionValidator
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server. Browser connections are accepted
// from allowedOrigins only; "*" allows any origin.
func NewServer(cfg config.WebSocketConfig, h *hub.Hub, sessions SessionValidator, allowedOrigins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Server{
		cfg:      cfg,
		hub:      h,
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", "error", err)
		return nil
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket read error", "conn_id", conn.ID, "error", err)
			}
			break
		}

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("failed to write message", "conn_id", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var msg protocol.SessionGroupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch msg.Type {
	case protocol.TypeJoinSessionGroup:
		s.handleJoin(conn, service.NormalizeCode(msg.SessionCode))
	case protocol.TypeLeaveSessionGroup:
		s.handleLeave(conn, service.NormalizeCode(msg.SessionCode))
	default:
		s.sendError(conn, msg.SessionCode, protocol.ErrorCodeInvalidMessage, "unknown message type: "+msg.Type)
	}
}

// handleJoin adds the connection to a session group after checking the session.
func (s *Server) handleJoin(conn *hub.Connection, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	ok, err := s.sessions.ValidateSessionCode(ctx, code)
	if err != nil {
		s.logger.Error("failed to validate session code", "code", code, "error", err)
		s.sendError(conn, code, protocol.ErrorCodeInternalError, "failed to join session group")
		return
	}
	if !ok {
		s.sendError(conn, code, protocol.ErrorCodeSessionUnavailable, "Session "+code+" not found or inactive")
		return
	}

	s.hub.Join(conn, code)
	s.reply(conn, protocol.SessionGroupMessage{BaseMessage: protocol.NewBase(protocol.TypeJoinedSessionGroup, code)})
	s.logger.Debug("joined session group", "conn_id", conn.ID, "code", code)
}

// handleLeave removes the connection from a session group.
func (s *Server) handleLeave(conn *hub.Connection, code string) {
	s.hub.Leave(conn, code)
	s.reply(conn, protocol.SessionGroupMessage{BaseMessage: protocol.NewBase(protocol.TypeLeftSessionGroup, code)})
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *hub.Connection, code, errCode, message string) {
	s.reply(conn, protocol.SessionErrorMessage{
		BaseMessage: protocol.NewBase(protocol.TypeSessionError, code),
		Code:        errCode,
		Message:     message,
	})
}

func (s *Server) reply(conn *hub.Connection, v interface{}) {
	if err := s.hub.SendJSONToConnection(conn, v); err != nil {
		s.logger.Warn("failed to send reply", "conn_id", conn.ID, "error", err)
	}
}
