package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/pokr/internal/config"
	"github.com/xiaot623/pokr/internal/domain"
	"github.com/xiaot623/pokr/internal/hub"
	"github.com/xiaot623/pokr/internal/policy"
	"github.com/xiaot623/pokr/internal/protocol"
	"github.com/xiaot623/pokr/internal/service"
	"github.com/xiaot623/pokr/tests/helpers"
)

type testEnv struct {
	svc *service.Service
	url string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(hub.WithLogger(logger))
	go h.Run(ctx)

	engine, err := policy.NewDefaultEngine(ctx)
	require.NoError(t, err)
	svc := service.New(helpers.NewTestSQLiteStore(t), h, engine, logger)

	cfg := config.Default().WebSocket
	server := NewServer(cfg, h, svc, []string{"http://localhost:4200"}, logger)

	e := echo.New()
	e.GET("/ws", server.HandleWebSocket)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	return &testEnv{svc: svc, url: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, code string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(protocol.SessionGroupMessage{
		BaseMessage: protocol.BaseMessage{Type: msgType, SessionCode: code},
	}))
}

func read(t *testing.T, conn *websocket.Conn) protocol.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev protocol.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestJoinGroupReceivesEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dto, err := env.svc.CreateSession(ctx, "alice", "Sprint 12")
	require.NoError(t, err)

	conn := env.dial(t)
	send(t, conn, protocol.TypeJoinSessionGroup, strings.ToLower(dto.Code))

	ack := read(t, conn)
	assert.Equal(t, protocol.TypeJoinedSessionGroup, ack.Type)
	assert.Equal(t, dto.Code, ack.SessionCode)

	_, err = env.svc.JoinSession(ctx, dto.Code, "bob")
	require.NoError(t, err)

	joined := read(t, conn)
	assert.Equal(t, string(domain.EventParticipantJoined), joined.Type)
	var info domain.ParticipantInfo
	require.NoError(t, json.Unmarshal(joined.Payload, &info))
	assert.Equal(t, "bob", info.Name)

	updated := read(t, conn)
	assert.Equal(t, string(domain.EventSessionUpdated), updated.Type)
	var status domain.SessionStatusView
	require.NoError(t, json.Unmarshal(updated.Payload, &status))
	assert.Equal(t, 1, status.ParticipantCount)
}

func TestJoinUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	send(t, conn, protocol.TypeJoinSessionGroup, "ZZZ999")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg protocol.SessionErrorMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, protocol.TypeSessionError, msg.Type)
	assert.Equal(t, protocol.ErrorCodeSessionUnavailable, msg.Code)
	assert.Equal(t, "Session ZZZ999 not found or inactive", msg.Message)
}

func TestInvalidMessages(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, protocol.TypeSessionError, read(t, conn).Type)

	send(t, conn, "CastVote", "ABC123")
	assert.Equal(t, protocol.TypeSessionError, read(t, conn).Type)
}

func TestLeaveGroupStopsEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	watched, err := env.svc.CreateSession(ctx, "alice", "Watched")
	require.NoError(t, err)
	other, err := env.svc.CreateSession(ctx, "alice", "Other")
	require.NoError(t, err)

	conn := env.dial(t)
	send(t, conn, protocol.TypeJoinSessionGroup, watched.Code)
	require.Equal(t, protocol.TypeJoinedSessionGroup, read(t, conn).Type)
	send(t, conn, protocol.TypeJoinSessionGroup, other.Code)
	require.Equal(t, protocol.TypeJoinedSessionGroup, read(t, conn).Type)

	send(t, conn, protocol.TypeLeaveSessionGroup, watched.Code)
	left := read(t, conn)
	assert.Equal(t, protocol.TypeLeftSessionGroup, left.Type)

	_, err = env.svc.AddStory(ctx, watched.Code, "Ignored")
	require.NoError(t, err)
	_, err = env.svc.AddStory(ctx, other.Code, "Seen")
	require.NoError(t, err)

	ev := read(t, conn)
	assert.Equal(t, string(domain.EventStoryAdded), ev.Type)
	assert.Equal(t, other.Code, ev.SessionCode, "events of the left session are not delivered")
}

func TestRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)

	header := map[string][]string{"Origin": {"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(env.url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}
