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

// CreateSession opens a new Active session under a fresh share code.
func (s *Service) CreateSession(ctx context.Context, facilitatorName, sessionName string) (*domain.SessionDTO, error) {
	facilitatorName = strings.TrimSpace(facilitatorName)
	sessionName = strings.TrimSpace(sessionName)
	if err := validateCreateSession(facilitatorName, sessionName); err != nil {
		return nil, err
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		Code:            code,
		Name:            sessionName,
		FacilitatorName: facilitatorName,
		Status:          domain.SessionStatusActive,
		CreatedAt:       s.now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.NewConflictError(fmt.Sprintf("Session code '%s' is already in use", code), err)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created", "code", session.Code, "facilitator", session.FacilitatorName)

	return &domain.SessionDTO{
		ID:              session.ID,
		Code:            session.Code,
		Name:            session.Name,
		FacilitatorName: session.FacilitatorName,
		Status:          session.Status,
		CreatedAt:       session.CreatedAt,
		Participants:    []domain.ParticipantView{},
		Stories:         []domain.StoryView{},
	}, nil
}

// JoinSession adds a named participant to an Active session.
func (s *Service) JoinSession(ctx context.Context, code, participantName string) (*domain.ParticipantInfo, error) {
	code = NormalizeCode(code)
	participantName = strings.TrimSpace(participantName)
	if err := validateJoin(code, participantName); err != nil {
		return nil, err
	}

	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.enforce(ctx, session, policy.Input{Action: policy.ActionJoin}); err != nil {
		return nil, err
	}

	taken, err := s.store.ParticipantNameExists(ctx, code, participantName)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant name: %w", err)
	}
	if taken {
		return nil, nameTaken(participantName, nil)
	}

	now := s.now()
	participant := &domain.Participant{
		SessionID:    session.ID,
		Name:         participantName,
		JoinedAt:     now,
		LastActivity: now,
	}
	if err := s.store.CreateParticipant(ctx, participant); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, nameTaken(participantName, err)
		}
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	info := &domain.ParticipantInfo{
		ID:          participant.ID,
		Name:        participant.Name,
		SessionCode: session.Code,
		SessionName: session.Name,
		IsJoined:    true,
	}

	s.logger.Info("participant joined", "code", session.Code, "participant", participant.Name)
	s.publish(session.Code, domain.EventParticipantJoined, info)
	s.publishStatus(ctx, session)

	return info, nil
}

func nameTaken(name string, cause error) error {
	return domain.NewConflictError(fmt.Sprintf("Participant name '%s' is already taken in this session", name), cause)
}

// ValidateSessionCode reports whether code names a session that can be joined.
func (s *Service) ValidateSessionCode(ctx context.Context, code string) (bool, error) {
	code = NormalizeCode(code)
	if !IsCodeFormat(code) {
		return false, nil
	}
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return false, nil
	}
	err = s.enforce(ctx, session, policy.Input{Action: policy.ActionSubscribe})
	if errors.Is(err, domain.ErrBusinessRule) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ValidateParticipantName reports whether name is still free in the session.
func (s *Service) ValidateParticipantName(ctx context.Context, code, name string) (bool, error) {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if !IsCodeFormat(code) || name == "" {
		return false, nil
	}
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return false, nil
	}
	taken, err := s.store.ParticipantNameExists(ctx, code, name)
	if err != nil {
		return false, fmt.Errorf("failed to check participant name: %w", err)
	}
	return !taken, nil
}
