package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type StatsUseCase struct {
	profileRepo  repository.ProfileRepository
	locationRepo repository.LocationRepository
}

func NewStatsUseCase(profileRepo repository.ProfileRepository, locationRepo repository.LocationRepository) *StatsUseCase {
	return &StatsUseCase{
		profileRepo:  profileRepo,
		locationRepo: locationRepo,
	}
}

type TopDestinationsQuery struct {
	Type      string
	Limit     string
	Expanded  bool
	ClassYear *int
}

// ResolveLimit picks the number of entries to return. An explicit limit
// wins, capped at the maximum; malformed values fall back to the default.
func ResolveLimit(raw string, expanded bool) int {
	fallback := domain.DefaultDestinationLimit
	if expanded {
		fallback = domain.ExpandedDestinationLimit
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	if n > domain.MaxDestinationLimit {
		return domain.MaxDestinationLimit
	}
	return n
}

func (uc *StatsUseCase) TopDestinations(ctx context.Context, q TopDestinationsQuery) ([]domain.Destination, error) {
	t, err := domain.ParseDestinationType(q.Type)
	if err != nil {
		return nil, err
	}
	limit := ResolveLimit(q.Limit, q.Expanded)
	scope := domain.StatsScope{ClassYear: q.ClassYear}

	switch t {
	case domain.DestinationCompanies:
		return uc.topCompanies(ctx, scope, limit)
	case domain.DestinationSchools:
		return uc.topSchools(ctx, scope, limit)
	default:
		return uc.topCities(ctx, scope, limit)
	}
}

// topCompanies merges names that differ only in case. The display name is the
// title-cased lower-case key, so original casing is lost.
func (uc *StatsUseCase) topCompanies(ctx context.Context, scope domain.StatsScope, limit int) ([]domain.Destination, error) {
	counts, err := uc.profileRepo.CountCompanies(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	// Casers carry state; one per call.
	caser := cases.Title(language.English)
	index := map[string]int{}
	var merged []domain.Destination
	for _, c := range counts {
		key := strings.ToLower(strings.TrimSpace(c.Key))
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			merged[i].Count += c.Count
			continue
		}
		index[key] = len(merged)
		merged = append(merged, domain.Destination{
			ID:    key,
			Name:  caser.String(key),
			Count: c.Count,
			Type:  domain.DestinationCompanies,
		})
	}

	return rank(merged, limit), nil
}

// topSchools groups school names exactly as stored.
func (uc *StatsUseCase) topSchools(ctx context.Context, scope domain.StatsScope, limit int) ([]domain.Destination, error) {
	counts, err := uc.profileRepo.CountSchools(ctx, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to count schools: %w", err)
	}

	out := make([]domain.Destination, 0, len(counts))
	for _, c := range counts {
		out = append(out, domain.Destination{
			ID:    c.Key,
			Name:  c.Key,
			Count: c.Count,
			Type:  domain.DestinationSchools,
		})
	}
	return rank(out, limit), nil
}

func (uc *StatsUseCase) topCities(ctx context.Context, scope domain.StatsScope, limit int) ([]domain.Destination, error) {
	counts, err := uc.locationRepo.TopCities(ctx, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to count cities: %w", err)
	}

	out := make([]domain.Destination, 0, len(counts))
	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		loc := c.LocationAggregate
		out = append(out, domain.Destination{
			ID:       loc.ID.String(),
			Name:     loc.City,
			Count:    c.Count,
			Type:     domain.DestinationCities,
			Location: &loc,
		})
	}
	return rank(out, limit), nil
}

// rank orders by count descending, keeping input order among ties.
func rank(ds []domain.Destination, limit int) []domain.Destination {
	if ds == nil {
		return []domain.Destination{}
	}
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Count > ds[j].Count })
	if len(ds) > limit {
		ds = ds[:limit]
	}
	return ds
}

// Locations returns per-state counts, or per-city counts inside state when
// one is given. Seeking profiles are never counted.
func (uc *StatsUseCase) Locations(ctx context.Context, state string, classYear *int) ([]domain.LocationCount, error) {
	scope := domain.StatsScope{ClassYear: classYear, State: strings.TrimSpace(state)}

	var (
		counts []domain.LocationCount
		err    error
	)
	if scope.State == "" {
		counts, err = uc.locationRepo.CountByState(ctx, scope)
	} else {
		counts, err = uc.locationRepo.CountByCity(ctx, scope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count locations: %w", err)
	}
	if counts == nil {
		counts = []domain.LocationCount{}
	}
	return counts, nil
}
