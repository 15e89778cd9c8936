package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xiaot623/pokr/internal/domain"
	"github.com/xiaot623/pokr/internal/policy"
	"github.com/xiaot623/pokr/internal/repository"
)

// SubmitVote records a participant's estimate for the session's current
// story. A second vote for the same story replaces the first.
func (s *Service) SubmitVote(ctx context.Context, code, participantName string, estimate int) (*domain.VoteView, error) {
	code = NormalizeCode(code)
	participantName = strings.TrimSpace(participantName)
	if err := validateVote(code, participantName, estimate); err != nil {
		return nil, err
	}

	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.enforce(ctx, session, policy.Input{Action: policy.ActionVote, HasCurrentStory: session.CurrentStoryID != nil}); err != nil {
		return nil, err
	}

	participant, err := s.store.GetParticipantByName(ctx, code, participantName)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if participant == nil {
		return nil, domain.NewNotFoundError("Participant", participantName)
	}

	now := s.now()
	if err := s.store.UpdateParticipantActivity(ctx, participant.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update participant activity: %w", err)
	}

	storyID := *session.CurrentStoryID
	vote, err := s.store.GetVoteByParticipantAndStory(ctx, participant.ID, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	if vote != nil {
		vote.Estimate = estimate
		vote.SubmittedAt = now
		if err := s.store.UpdateVote(ctx, vote); err != nil {
			return nil, fmt.Errorf("failed to update vote: %w", err)
		}
	} else {
		vote = &domain.Vote{
			ParticipantID: participant.ID,
			StoryID:       storyID,
			Estimate:      estimate,
			SubmittedAt:   now,
		}
		if err := s.store.CreateVote(ctx, vote); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return nil, domain.NewConflictError("A vote from this participant is already being recorded", err)
			}
			return nil, fmt.Errorf("failed to create vote: %w", err)
		}
	}

	s.logger.Info("vote submitted", "code", session.Code, "story_id", storyID, "participant", participant.Name)
	s.publish(session.Code, domain.EventVoteSubmitted, domain.VoteSubmittedPayload{
		SessionCode:     session.Code,
		ParticipantName: participant.Name,
		Timestamp:       now,
	})
	s.publishStatus(ctx, session)

	value := vote.Estimate
	return &domain.VoteView{
		ID:              vote.ID,
		ParticipantName: participant.Name,
		Estimate:        &value,
		SubmittedAt:     vote.SubmittedAt,
	}, nil
}
