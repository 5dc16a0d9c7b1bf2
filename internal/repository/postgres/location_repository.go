package postgres

import (
	"context"
	"fmt"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type locationRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) repository.LocationRepository {
	return &locationRepository{db: db}
}

// Upsert keeps one aggregate row per (city, state, country). The no-op
// update makes RETURNING yield the existing row on conflict.
func (r *locationRepository) Upsert(ctx context.Context, loc domain.Location) (*domain.LocationAggregate, error) {
	query := `
		INSERT INTO locations (id, city, state, country)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (city, state, country) DO UPDATE SET city = EXCLUDED.city
		RETURNING id, city, state, country, lat, lon
	`
	var agg domain.LocationAggregate
	err := conn(ctx, r.db).GetContext(ctx, &agg, query, uuid.New(), loc.City, loc.State, loc.Country)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func scopeWhere(scope domain.StatsScope, args []interface{}) (string, []interface{}) {
	where := ` WHERE p.is_onboarded = true AND p.post_grad_type <> 'seeking'`
	if scope.ClassYear != nil {
		args = append(args, *scope.ClassYear)
		where += fmt.Sprintf(" AND p.class_year = $%d", len(args))
	}
	if scope.State != "" {
		args = append(args, scope.State)
		where += fmt.Sprintf(" AND l.state = $%d", len(args))
	}
	return where, args
}

func (r *locationRepository) CountByState(ctx context.Context, scope domain.StatsScope) ([]domain.LocationCount, error) {
	where, args := scopeWhere(scope, nil)
	query := `
		SELECT l.state AS name, l.state AS state, l.country AS country, COUNT(DISTINCT p.id) AS count
		FROM locations l
		JOIN profiles p ON p.location_id = l.id` + where + `
		  AND l.country = 'USA'
		GROUP BY l.state, l.country
		HAVING COUNT(DISTINCT p.id) > 0
		ORDER BY count DESC, l.state ASC
	`
	var counts []domain.LocationCount
	err := conn(ctx, r.db).SelectContext(ctx, &counts, query, args...)
	return counts, err
}

func (r *locationRepository) CountByCity(ctx context.Context, scope domain.StatsScope) ([]domain.LocationCount, error) {
	where, args := scopeWhere(scope, nil)
	query := `
		SELECT l.city AS name, l.state AS state, l.country AS country, l.lat AS lat, l.lon AS lon,
		       COUNT(DISTINCT p.id) AS count
		FROM locations l
		JOIN profiles p ON p.location_id = l.id` + where + `
		GROUP BY l.id
		HAVING COUNT(DISTINCT p.id) > 0
		ORDER BY count DESC, l.city ASC
	`
	var counts []domain.LocationCount
	err := conn(ctx, r.db).SelectContext(ctx, &counts, query, args...)
	return counts, err
}

func (r *locationRepository) TopCities(ctx context.Context, scope domain.StatsScope, limit int) ([]domain.LocationGroupCount, error) {
	where, args := scopeWhere(scope, nil)
	args = append(args, limit)
	query := `
		SELECT l.id, l.city, l.state, l.country, l.lat, l.lon, COUNT(DISTINCT p.id) AS count
		FROM locations l
		JOIN profiles p ON p.location_id = l.id` + where + `
		GROUP BY l.id
		HAVING COUNT(DISTINCT p.id) > 0
		ORDER BY count DESC, l.city ASC
		LIMIT ` + fmt.Sprintf("$%d", len(args))
	var counts []domain.LocationGroupCount
	err := conn(ctx, r.db).SelectContext(ctx, &counts, query, args...)
	return counts, err
}
