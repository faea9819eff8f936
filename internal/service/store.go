package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/authservice/internal/models"
	"github.com/Skotchmaster/authservice/internal/repo"
)

type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type TokenStore interface {
	PutSingleUse(ctx context.Context, purpose models.Purpose, accountID uuid.UUID, ttl time.Duration) (string, error)
	ConsumeEmailVerification(ctx context.Context, token string) (uuid.UUID, error)
	ConsumePasswordReset(ctx context.Context, token, passwordHash string) (uuid.UUID, error)
	Blacklist(ctx context.Context, token string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context) (repo.PurgeResult, error)
}

type Store interface {
	AccountStore
	TokenStore
}

var _ Store = (*repo.GormRepo)(nil)
