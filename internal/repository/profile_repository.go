package repository

import (
	"context"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/google/uuid"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByInstitutionalEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByPersonalEmail(ctx context.Context, email string) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	UpdateOnboardingProgress(ctx context.Context, id uuid.UUID, step domain.Step, postGradType domain.PostGradType) error
	List(ctx context.Context, filter domain.DirectoryFilter, limit, offset int) ([]*domain.Profile, int, error)
	CountCompanies(ctx context.Context, scope domain.StatsScope) ([]domain.GroupCount, error)
	CountSchools(ctx context.Context, scope domain.StatsScope, limit int) ([]domain.GroupCount, error)
}
