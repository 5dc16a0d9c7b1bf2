package repository

import (
	"context"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/google/uuid"
)

// DraftStore keeps the in-progress onboarding draft between steps. Get
// returns (nil, nil) when no draft is stored.
type DraftStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Draft, error)
	Save(ctx context.Context, userID uuid.UUID, draft *domain.Draft) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
