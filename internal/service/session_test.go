package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/pokr/internal/domain"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dto, err := env.svc.CreateSession(ctx, "  alice ", " Sprint 12 ")
	require.NoError(t, err)

	assert.Regexp(t, codePattern, dto.Code)
	assert.Equal(t, "alice", dto.FacilitatorName)
	assert.Equal(t, "Sprint 12", dto.Name)
	assert.Equal(t, domain.SessionStatusActive, dto.Status)
	assert.Nil(t, dto.CurrentStoryID)
	assert.Empty(t, dto.Participants)
	assert.Empty(t, env.pub.types(), "creation is not broadcast")
}

func TestCreateSessionCodesAreUnique(t *testing.T) {
	env := newTestEnv(t)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := env.createSession(t)
		require.Regexp(t, codePattern, code)
		require.False(t, seen[code], "code %s issued twice", code)
		seen[code] = true
	}
}

func TestCreateSessionRetriesOnCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draws := []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}
	env.svc.newCode = func() (string, error) {
		code := draws[0]
		draws = draws[1:]
		return code, nil
	}

	first, err := env.svc.CreateSession(ctx, "alice", "one")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)

	second, err := env.svc.CreateSession(ctx, "bob", "two")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.Code)
	assert.Empty(t, draws)
}

func TestCreateSessionGeneratorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.svc.newCode = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := env.svc.CreateSession(context.Background(), "alice", "one")
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateSession(context.Background(), "  ", "")
	de := requireKind(t, err, domain.KindValidation)
	assert.Contains(t, de.Fields, "facilitatorName")
	assert.Contains(t, de.Fields, "sessionName")

	_, err = env.svc.CreateSession(context.Background(), "alice", strings.Repeat("x", 201))
	de = requireKind(t, err, domain.KindValidation)
	assert.Contains(t, de.Fields, "sessionName")
}

func TestJoinSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)

	info, err := env.svc.JoinSession(ctx, strings.ToLower(code), "  bob  ")
	require.NoError(t, err)
	assert.Equal(t, "bob", info.Name)
	assert.Equal(t, code, info.SessionCode)
	assert.Equal(t, "Sprint 12", info.SessionName)
	assert.True(t, info.IsJoined)

	assert.Equal(t, []domain.EventType{domain.EventParticipantJoined, domain.EventSessionUpdated}, env.pub.types())
	ev, ok := env.pub.last(domain.EventSessionUpdated)
	require.True(t, ok)
	assert.Equal(t, code, ev.code)
	assert.Equal(t, 1, ev.payload.(*domain.SessionStatusView).ParticipantCount)
}

func TestJoinSessionDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)

	_, err := env.svc.JoinSession(ctx, code, "bob")
	require.NoError(t, err)

	_, err = env.svc.JoinSession(ctx, code, " bob ")
	requireKind(t, err, domain.KindConflict)

	_, err = env.svc.JoinSession(ctx, code, "Bob")
	assert.NoError(t, err, "names are case sensitive")
}

func TestJoinSessionErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.JoinSession(ctx, "", "")
	de := requireKind(t, err, domain.KindValidation)
	assert.Len(t, de.Fields, 2)

	_, err = env.svc.JoinSession(ctx, "ZZZZZZ", "bob")
	requireKind(t, err, domain.KindNotFound)
}

func TestJoinSessionInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)

	session, err := env.store.GetSessionByCode(ctx, code)
	require.NoError(t, err)
	session.Status = domain.SessionStatusCompleted
	require.NoError(t, env.store.UpdateSession(ctx, session))

	_, err = env.svc.JoinSession(ctx, code, "bob")
	de := requireKind(t, err, domain.KindBusinessRule)
	assert.Equal(t, domain.RuleSessionNotActive, de.Code)

	valid, err := env.svc.ValidateSessionCode(ctx, code)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestJoinSessionPublishFailureIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.pub.err = errors.New("queue full")
	code := env.createSession(t)

	info, err := env.svc.JoinSession(context.Background(), code, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", info.Name)
}

func TestValidateSessionCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)

	valid, err := env.svc.ValidateSessionCode(ctx, code)
	require.NoError(t, err)
	assert.True(t, valid)

	for _, bad := range []string{"", "ABC", "ZZZZZZ", "AB-123"} {
		valid, err = env.svc.ValidateSessionCode(ctx, bad)
		require.NoError(t, err)
		assert.False(t, valid, bad)
	}
}

func TestValidateParticipantName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	env.join(t, code, "bob")

	available, err := env.svc.ValidateParticipantName(ctx, code, "carol")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = env.svc.ValidateParticipantName(ctx, code, " bob ")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = env.svc.ValidateParticipantName(ctx, code, "")
	require.NoError(t, err)
	assert.False(t, available)
}
