package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/pokr/internal/domain"
)

func TestSubmitVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	env.join(t, code, "bob")
	storyID := env.activeStory(t, code, "Profile")
	env.pub.reset()

	vote, err := env.svc.SubmitVote(ctx, code, "bob", 5)
	require.NoError(t, err)
	assert.Equal(t, "bob", vote.ParticipantName)
	require.NotNil(t, vote.Estimate)
	assert.Equal(t, 5, *vote.Estimate)

	assert.Equal(t, []domain.EventType{domain.EventVoteSubmitted, domain.EventSessionUpdated}, env.pub.types())
	ev, _ := env.pub.last(domain.EventVoteSubmitted)
	payload := ev.payload.(domain.VoteSubmittedPayload)
	assert.Equal(t, code, payload.SessionCode)
	assert.Equal(t, "bob", payload.ParticipantName)

	status, _ := env.pub.last(domain.EventSessionUpdated)
	view := status.payload.(*domain.SessionStatusView)
	require.NotNil(t, view.CurrentStory)
	assert.Equal(t, storyID, view.CurrentStory.ID)
	require.Len(t, view.CurrentStory.Votes, 1)
	assert.Nil(t, view.CurrentStory.Votes[0].Estimate, "estimate hidden before finalize")
	assert.True(t, view.Participants[0].HasVotedForCurrentStory)
}

func TestSubmitVoteOverwrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	env.join(t, code, "bob")
	storyID := env.activeStory(t, code, "Profile")

	first, err := env.svc.SubmitVote(ctx, code, "bob", 3)
	require.NoError(t, err)
	second, err := env.svc.SubmitVote(ctx, code, "bob", 8)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	results, err := env.svc.RevealVotes(ctx, code, storyID)
	require.NoError(t, err)
	require.Len(t, results.Votes, 1)
	assert.Equal(t, 8, *results.Votes[0].Estimate)
	assert.Equal(t, map[int]int{8: 1}, results.EstimateDistribution)
}

func TestSubmitVoteTouchesActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	env.join(t, code, "bob")
	env.activeStory(t, code, "Profile")

	before, err := env.store.GetParticipantByName(ctx, code, "bob")
	require.NoError(t, err)

	later := before.LastActivity.Add(90 * time.Second)
	env.svc.now = func() time.Time { return later }

	_, err = env.svc.SubmitVote(ctx, code, "bob", 2)
	require.NoError(t, err)

	after, err := env.store.GetParticipantByName(ctx, code, "bob")
	require.NoError(t, err)
	assert.Equal(t, later.UnixMilli(), after.LastActivity.UnixMilli())
	assert.Equal(t, before.JoinedAt, after.JoinedAt)
}

func TestSubmitVoteErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	env.join(t, code, "bob")

	_, err := env.svc.SubmitVote(ctx, code, "bob", 5)
	de := requireKind(t, err, domain.KindBusinessRule)
	assert.Equal(t, domain.RuleNoCurrentStory, de.Code)

	env.activeStory(t, code, "Profile")

	_, err = env.svc.SubmitVote(ctx, code, "bob", 4)
	de = requireKind(t, err, domain.KindValidation)
	assert.Contains(t, de.Fields, "estimate")

	_, err = env.svc.SubmitVote(ctx, code, "", 5)
	requireKind(t, err, domain.KindValidation)

	_, err = env.svc.SubmitVote(ctx, code, "mallory", 5)
	requireKind(t, err, domain.KindNotFound)

	_, err = env.svc.SubmitVote(ctx, "NOPE00", "bob", 5)
	requireKind(t, err, domain.KindNotFound)

	for _, sentinel := range []int{domain.EstimateUnsure, domain.EstimateBreak} {
		_, err = env.svc.SubmitVote(ctx, code, "bob", sentinel)
		assert.NoError(t, err)
	}
}
