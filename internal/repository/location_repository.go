package repository

import (
	"context"

	"github.com/flockdir/flock-backend/internal/domain"
)

type LocationRepository interface {
	// Upsert returns the aggregate row for (city, state, country), creating it
	// if needed.
	Upsert(ctx context.Context, loc domain.Location) (*domain.LocationAggregate, error)
	CountByState(ctx context.Context, scope domain.StatsScope) ([]domain.LocationCount, error)
	CountByCity(ctx context.Context, scope domain.StatsScope) ([]domain.LocationCount, error)
	TopCities(ctx context.Context, scope domain.StatsScope, limit int) ([]domain.LocationGroupCount, error)
}
