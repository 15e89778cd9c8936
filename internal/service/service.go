// Package service implements the planning poker session engine.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/xiaot623/pokr/internal/domain"
	"github.com/xiaot623/pokr/internal/policy"
	"github.com/xiaot623/pokr/internal/repository"
)

// Publisher delivers named events to the subscribers of a session.
type Publisher interface {
	Publish(sessionCode string, eventType domain.EventType, payload any) error
}

// Rules reports the business rules an action would break.
type Rules interface {
	Violations(ctx context.Context, in policy.Input) ([]string, error)
}

type Service struct {
	store     repository.Store
	publisher Publisher
	rules     Rules
	logger    *slog.Logger

	now     func() time.Time
	newCode func() (string, error)
}

func New(store repository.Store, publisher Publisher, rules Rules, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		rules:     rules,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newCode:   generateCode,
	}
}

// enforce evaluates the rules for an action against a session and returns
// the first violation as a business rule error.
func (s *Service) enforce(ctx context.Context, session *domain.Session, in policy.Input) error {
	in.SessionID = session.ID
	in.SessionStatus = string(session.Status)
	violations, err := s.rules.Violations(ctx, in)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		return nil
	}
	rule := violations[0]
	return domain.NewBusinessRuleError(rule, ruleMessage(rule, session.Code))
}

func ruleMessage(rule, code string) string {
	switch rule {
	case domain.RuleSessionNotActive:
		return "Session " + code + " is not active"
	case domain.RuleStoryNotInSession:
		return "Story does not belong to the specified session"
	case domain.RuleNoCurrentStory:
		return "No current story to vote on"
	default:
		return "Operation not allowed: " + rule
	}
}

func (s *Service) sessionByCode(ctx context.Context, code string) (*domain.Session, error) {
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.NewNotFoundError("Session", code)
	}
	return session, nil
}

func (s *Service) storyByID(ctx context.Context, id int64) (*domain.Story, error) {
	story, err := s.store.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, domain.NewNotFoundError("Story", id)
	}
	return story, nil
}
