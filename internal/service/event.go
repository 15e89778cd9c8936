package service

import (
	"context"

	"github.com/xiaot623/pokr/internal/domain"
)

// publish hands an event to the publisher. Failures are logged only.
func (s *Service) publish(sessionCode string, eventType domain.EventType, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(sessionCode, eventType, payload); err != nil {
		s.logger.Warn("failed to publish event", "code", sessionCode, "type", eventType, "error", err)
	}
}

// publishStatus broadcasts a fresh SessionUpdated snapshot.
func (s *Service) publishStatus(ctx context.Context, session *domain.Session) {
	if s.publisher == nil {
		return
	}
	status, err := s.buildStatus(ctx, session)
	if err != nil {
		s.logger.Warn("failed to build session status", "code", session.Code, "error", err)
		return
	}
	s.publish(session.Code, domain.EventSessionUpdated, status)
}
