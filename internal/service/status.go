package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/pokr/internal/domain"
)

// GetSessionStatus assembles the display snapshot of a session.
func (s *Service) GetSessionStatus(ctx context.Context, code string) (*domain.SessionStatusView, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.NewValidationError(map[string][]string{"sessionCode": {"Session code is required"}})
	}
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.buildStatus(ctx, session)
}

func (s *Service) buildStatus(ctx context.Context, session *domain.Session) (*domain.SessionStatusView, error) {
	participantCount, err := s.store.CountParticipants(ctx, session.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	estimatedCount, err := s.store.CountEstimatedStories(ctx, session.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to count estimated stories: %w", err)
	}
	participants, err := s.store.ListParticipants(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	stories, err := s.store.ListStories(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	var current *domain.StoryView
	voted := make(map[int64]bool)
	if session.CurrentStoryID != nil {
		story, err := s.store.GetStory(ctx, *session.CurrentStoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to get current story: %w", err)
		}
		if story != nil {
			votes, err := s.store.ListVotesByStory(ctx, story.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list votes: %w", err)
			}
			for _, v := range votes {
				voted[v.ParticipantID] = true
			}
			view := storyView(story, votes, story.Status != domain.StoryStatusEstimated)
			current = &view
		}
	}

	view := &domain.SessionStatusView{
		Code:                  session.Code,
		Name:                  session.Name,
		FacilitatorName:       session.FacilitatorName,
		Status:                session.Status,
		ParticipantCount:      participantCount,
		StoriesCount:          len(stories),
		EstimatedStoriesCount: estimatedCount,
		CurrentStory:          current,
		Participants:          make([]domain.ParticipantView, 0, len(participants)),
		Stories:               make([]domain.StoryView, 0, len(stories)),
	}
	for _, p := range participants {
		view.Participants = append(view.Participants, domain.ParticipantView{
			ID:                      p.ID,
			Name:                    p.Name,
			JoinedAt:                p.JoinedAt,
			LastActivity:            p.LastActivity,
			HasVotedForCurrentStory: voted[p.ID],
		})
	}
	for i := range stories {
		view.Stories = append(view.Stories, storyView(&stories[i], nil, false))
	}
	return view, nil
}

// storyView maps a story and its votes. With mask set, vote values are omitted.
func storyView(story *domain.Story, votes []domain.Vote, mask bool) domain.StoryView {
	view := domain.StoryView{
		ID:            story.ID,
		Title:         story.Title,
		FinalEstimate: story.FinalEstimate,
		Status:        story.Status,
		CreatedAt:     story.CreatedAt,
		Votes:         make([]domain.VoteView, 0, len(votes)),
	}
	for _, v := range votes {
		view.Votes = append(view.Votes, voteView(v, mask))
	}
	return view
}

func voteView(v domain.Vote, mask bool) domain.VoteView {
	view := domain.VoteView{
		ID:              v.ID,
		ParticipantName: v.ParticipantName,
		SubmittedAt:     v.SubmittedAt,
	}
	if !mask {
		estimate := v.Estimate
		view.Estimate = &estimate
	}
	return view
}
