package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type MatchRecordRepository interface {
	Create(ctx context.Context, record *domain.MatchRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchRecord, error)
	GetByRoomCode(ctx context.Context, roomCode string) ([]*domain.MatchRecord, error)
	GetByPlayerID(ctx context.Context, playerID uuid.UUID, limit, offset int) ([]*domain.MatchRecord, error)
}

type Repositories struct {
	User        UserRepository
	Session     SessionRepository
	MatchRecord MatchRecordRepository
}
