package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/pokr/internal/domain"
	"github.com/xiaot623/pokr/internal/repository"
)

func TestAddStory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)

	story, err := env.svc.AddStory(ctx, code, "  Login page ")
	require.NoError(t, err)
	assert.Equal(t, "Login page", story.Title)
	assert.Equal(t, domain.StoryStatusPending, story.Status)
	assert.Nil(t, story.FinalEstimate)
	assert.Equal(t, []domain.EventType{domain.EventStoryAdded, domain.EventSessionUpdated}, env.pub.types())

	_, err = env.svc.AddStory(ctx, code, " ")
	requireKind(t, err, domain.KindValidation)

	_, err = env.svc.AddStory(ctx, "QQQQQQ", "x")
	requireKind(t, err, domain.KindNotFound)
}

func TestSetActiveStory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)

	story, err := env.svc.AddStory(ctx, code, "Checkout")
	require.NoError(t, err)
	env.pub.reset()

	require.NoError(t, env.svc.SetActiveStory(ctx, code, story.ID))

	got, err := env.store.GetStory(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StoryStatusVoting, got.Status)

	session, err := env.store.GetSessionByCode(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, session.CurrentStoryID)
	assert.Equal(t, story.ID, *session.CurrentStoryID)

	assert.Equal(t, []domain.EventType{domain.EventActiveStoryChanged, domain.EventSessionUpdated}, env.pub.types())
	ev, _ := env.pub.last(domain.EventActiveStoryChanged)
	payload := ev.payload.(domain.ActiveStoryChangedPayload)
	assert.Equal(t, story.ID, payload.StoryID)
	assert.Equal(t, code, payload.SessionCode)
}

func TestSetActiveStoryKeepsEstimatedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	env.join(t, code, "bob")
	storyID := env.activeStory(t, code, "Search")

	_, err := env.svc.SubmitVote(ctx, code, "bob", 5)
	require.NoError(t, err)
	require.NoError(t, env.svc.FinalizeEstimate(ctx, code, storyID, 5))

	other := env.activeStory(t, code, "Filters")
	require.NotEqual(t, storyID, other)
	require.NoError(t, env.svc.SetActiveStory(ctx, code, storyID))

	got, err := env.store.GetStory(ctx, storyID)
	require.NoError(t, err)
	assert.Equal(t, domain.StoryStatusEstimated, got.Status)

	votes, err := env.store.ListVotesByStory(ctx, storyID)
	require.NoError(t, err)
	assert.Len(t, votes, 1, "re-activating keeps prior votes")
}

func TestSetActiveStoryForeignStory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codeA := env.createSession(t)
	codeB := env.createSession(t)

	own := env.activeStory(t, codeA, "Own")
	foreign, err := env.svc.AddStory(ctx, codeB, "Foreign")
	require.NoError(t, err)

	err = env.svc.SetActiveStory(ctx, codeA, foreign.ID)
	de := requireKind(t, err, domain.KindBusinessRule)
	assert.Equal(t, domain.RuleStoryNotInSession, de.Code)

	session, err := env.store.GetSessionByCode(ctx, codeA)
	require.NoError(t, err)
	require.NotNil(t, session.CurrentStoryID)
	assert.Equal(t, own, *session.CurrentStoryID)

	got, err := env.store.GetStory(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StoryStatusPending, got.Status)
}

func TestSetActiveStoryErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)

	requireKind(t, env.svc.SetActiveStory(ctx, code, 0), domain.KindValidation)
	requireKind(t, env.svc.SetActiveStory(ctx, code, 4242), domain.KindNotFound)
	requireKind(t, env.svc.SetActiveStory(ctx, "NOPE00", 1), domain.KindNotFound)
}

func TestFinalizeEstimate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	storyID := env.activeStory(t, code, "Payments")

	err := env.svc.FinalizeEstimate(ctx, code, storyID, 4)
	de := requireKind(t, err, domain.KindValidation)
	assert.Contains(t, de.Fields, "finalPoints")

	requireKind(t, env.svc.FinalizeEstimate(ctx, code, storyID, domain.EstimateUnsure), domain.KindValidation)

	env.pub.reset()
	require.NoError(t, env.svc.FinalizeEstimate(ctx, code, storyID, 13))
	got, err := env.store.GetStory(ctx, storyID)
	require.NoError(t, err)
	assert.Equal(t, domain.StoryStatusEstimated, got.Status)
	require.NotNil(t, got.FinalEstimate)
	assert.Equal(t, 13, *got.FinalEstimate)

	ev, ok := env.pub.last(domain.EventEstimateFinalized)
	require.True(t, ok)
	assert.Equal(t, 13, ev.payload.(domain.EstimateFinalizedPayload).FinalEstimate)

	require.NoError(t, env.svc.FinalizeEstimate(ctx, code, storyID, 8))
	got, err = env.store.GetStory(ctx, storyID)
	require.NoError(t, err)
	assert.Equal(t, 8, *got.FinalEstimate)
	assert.Equal(t, domain.StoryStatusEstimated, got.Status)
}

func TestFinalizeEstimateForeignStory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codeA := env.createSession(t)
	codeB := env.createSession(t)
	foreign := env.activeStory(t, codeB, "Foreign")

	err := env.svc.FinalizeEstimate(ctx, codeA, foreign, 5)
	requireKind(t, err, domain.KindBusinessRule)

	got, err := env.store.GetStory(ctx, foreign)
	require.NoError(t, err)
	assert.Nil(t, got.FinalEstimate)
}

type failingStoryStore struct {
	repository.Store
}

func (failingStoryStore) UpdateStory(context.Context, *domain.Story) error {
	return errors.New("disk full")
}

func TestSetActiveStoryFailedStoryWriteLeavesSessionUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.createSession(t)
	story, err := env.svc.AddStory(ctx, code, "Login")
	require.NoError(t, err)

	svc := New(failingStoryStore{Store: env.store}, env.pub, env.svc.rules, env.svc.logger)
	err = svc.SetActiveStory(ctx, code, story.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	session, err := env.store.GetSessionByCode(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, session.CurrentStoryID)

	got, err := env.store.GetStory(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StoryStatusPending, got.Status)
}
