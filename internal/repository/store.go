// Package repository defines the storage interface and its SQL implementation.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xiaot623/pokr/internal/domain"
)

// ErrAlreadyExists is returned when an insert violates a unique constraint.
var ErrAlreadyExists = errors.New("record already exists")

// Store defines the interface for data persistence.
// Lookups that find nothing return a nil record and a nil error.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id int64) (*domain.Session, error)
	GetSessionByCode(ctx context.Context, code string) (*domain.Session, error)
	SessionCodeExists(ctx context.Context, code string) (bool, error)
	UpdateSession(ctx context.Context, session *domain.Session) error

	// Participant operations
	CreateParticipant(ctx context.Context, participant *domain.Participant) error
	GetParticipant(ctx context.Context, id int64) (*domain.Participant, error)
	GetParticipantByName(ctx context.Context, sessionCode, name string) (*domain.Participant, error)
	ParticipantNameExists(ctx context.Context, sessionCode, name string) (bool, error)
	CountParticipants(ctx context.Context, sessionCode string) (int, error)
	ListParticipants(ctx context.Context, sessionID int64) ([]domain.Participant, error)
	UpdateParticipantActivity(ctx context.Context, id int64, at time.Time) error

	// Story operations
	CreateStory(ctx context.Context, story *domain.Story) error
	GetStory(ctx context.Context, id int64) (*domain.Story, error)
	UpdateStory(ctx context.Context, story *domain.Story) error
	ListStories(ctx context.Context, sessionID int64) ([]domain.Story, error)
	CountEstimatedStories(ctx context.Context, sessionCode string) (int, error)

	// Vote operations
	CreateVote(ctx context.Context, vote *domain.Vote) error
	GetVote(ctx context.Context, id int64) (*domain.Vote, error)
	GetVoteByParticipantAndStory(ctx context.Context, participantID, storyID int64) (*domain.Vote, error)
	UpdateVote(ctx context.Context, vote *domain.Vote) error
	ListVotesByStory(ctx context.Context, storyID int64) ([]domain.Vote, error)

	// Lifecycle
	Close() error
}
