package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xiaot623/pokr/internal/domain"
	"github.com/xiaot623/pokr/internal/policy"
	"github.com/xiaot623/pokr/internal/repository"
	"github.com/xiaot623/pokr/tests/helpers"
)

type publishedEvent struct {
	code      string
	eventType domain.EventType
	payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(sessionCode string, eventType domain.EventType, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{code: sessionCode, eventType: eventType, payload: payload})
	return p.err
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

func (p *recordingPublisher) last(eventType domain.EventType) (publishedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].eventType == eventType {
			return p.events[i], true
		}
	}
	return publishedEvent{}, false
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type testEnv struct {
	svc   *Service
	store *repository.SQLStore
	pub   *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := helpers.NewTestSQLiteStore(t)
	engine, err := policy.NewDefaultEngine(context.Background())
	require.NoError(t, err)
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{svc: New(store, pub, engine, logger), store: store, pub: pub}
}

// createSession opens a session and returns its code.
func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	dto, err := e.svc.CreateSession(context.Background(), "alice", "Sprint 12")
	require.NoError(t, err)
	return dto.Code
}

func (e *testEnv) join(t *testing.T, code string, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := e.svc.JoinSession(context.Background(), code, name)
		require.NoError(t, err)
	}
}

func (e *testEnv) activeStory(t *testing.T, code, title string) int64 {
	t.Helper()
	ctx := context.Background()
	story, err := e.svc.AddStory(ctx, code, title)
	require.NoError(t, err)
	require.NoError(t, e.svc.SetActiveStory(ctx, code, story.ID))
	return story.ID
}

func requireKind(t *testing.T, err error, kind domain.Kind) *domain.Error {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %T: %v", err, err)
	require.Equal(t, kind, de.Kind, "error: %v", err)
	return de
}
