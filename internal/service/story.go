package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/pokr/internal/domain"
	"github.com/xiaot623/pokr/internal/policy"
)

// AddStory appends a Pending story to a session.
func (s *Service) AddStory(ctx context.Context, code, title string) (*domain.StoryView, error) {
	code = NormalizeCode(code)
	title = strings.TrimSpace(title)
	if err := validateAddStory(code, title); err != nil {
		return nil, err
	}

	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	story := &domain.Story{
		SessionID: session.ID,
		Title:     title,
		Status:    domain.StoryStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateStory(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	view := storyView(story, nil, false)
	s.publish(session.Code, domain.EventStoryAdded, view)
	s.publishStatus(ctx, session)

	return &view, nil
}

// SetActiveStory points the session at a story and opens it for voting.
// Votes already cast for the story are kept.
func (s *Service) SetActiveStory(ctx context.Context, code string, storyID int64) error {
	code = NormalizeCode(code)
	if err := validateStoryRef(code, storyID); err != nil {
		return err
	}

	session, story, err := s.ownedStory(ctx, code, storyID, policy.ActionActivate)
	if err != nil {
		return err
	}

	if story.Status == domain.StoryStatusPending {
		story.Status = domain.StoryStatusVoting
		if err := s.store.UpdateStory(ctx, story); err != nil {
			return fmt.Errorf("failed to update story: %w", err)
		}
	}
	session.CurrentStoryID = &story.ID
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	s.logger.Info("active story changed", "code", session.Code, "story_id", story.ID)
	s.publish(session.Code, domain.EventActiveStoryChanged, domain.ActiveStoryChangedPayload{
		SessionCode: session.Code,
		StoryID:     story.ID,
		Timestamp:   s.now(),
	})
	s.publishStatus(ctx, session)
	return nil
}

// RevealVotes discloses the votes cast for a story along with the consensus
// signal and a suggested estimate. It does not change any state.
func (s *Service) RevealVotes(ctx context.Context, code string, storyID int64) (*domain.VoteResults, error) {
	code = NormalizeCode(code)
	if err := validateStoryRef(code, storyID); err != nil {
		return nil, err
	}

	session, story, err := s.ownedStory(ctx, code, storyID, policy.ActionReveal)
	if err != nil {
		return nil, err
	}

	votes, err := s.store.ListVotesByStory(ctx, story.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	results := computeResults(story, votes)
	s.logger.Info("votes revealed", "code", session.Code, "story_id", story.ID, "votes", len(votes))
	s.publish(session.Code, domain.EventVotesRevealed, results)

	return results, nil
}

// FinalizeEstimate commits the agreed points to a story. Finalizing again
// overwrites the previous value.
func (s *Service) FinalizeEstimate(ctx context.Context, code string, storyID int64, finalPoints int) error {
	code = NormalizeCode(code)
	if err := validateFinalize(code, storyID, finalPoints); err != nil {
		return err
	}

	session, story, err := s.ownedStory(ctx, code, storyID, policy.ActionFinalize)
	if err != nil {
		return err
	}

	story.FinalEstimate = &finalPoints
	story.Status = domain.StoryStatusEstimated
	if err := s.store.UpdateStory(ctx, story); err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}

	s.logger.Info("estimate finalized", "code", session.Code, "story_id", story.ID, "points", finalPoints)
	s.publish(session.Code, domain.EventEstimateFinalized, domain.EstimateFinalizedPayload{
		SessionCode:   session.Code,
		StoryID:       story.ID,
		FinalEstimate: finalPoints,
		Timestamp:     s.now(),
	})
	s.publishStatus(ctx, session)
	return nil
}

// ownedStory resolves a session and one of its stories.
func (s *Service) ownedStory(ctx context.Context, code string, storyID int64, action string) (*domain.Session, *domain.Story, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	story, err := s.storyByID(ctx, storyID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.enforce(ctx, session, policy.Input{Action: action, StorySessionID: story.SessionID}); err != nil {
		return nil, nil, err
	}
	return session, story, nil
}
