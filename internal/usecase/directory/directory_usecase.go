package directory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/infrastructure/logger"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type DirectoryUseCase struct {
	profileRepo  repository.ProfileRepository
	locationRepo repository.LocationRepository
	tx           repository.Transactor
	logger       *zap.Logger
}

func NewDirectoryUseCase(
	profileRepo repository.ProfileRepository,
	locationRepo repository.LocationRepository,
	tx repository.Transactor,
	logger *zap.Logger,
) *DirectoryUseCase {
	return &DirectoryUseCase{
		profileRepo:  profileRepo,
		locationRepo: locationRepo,
		tx:           tx,
		logger:       logger,
	}
}

// ListQuery is a parsed directory request.
type ListQuery struct {
	Filter domain.DirectoryFilter
	Page   int
	Limit  int
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type ListResult struct {
	Users []*domain.Profile
	Total int
	Page  int
	Limit int
}

// ParseListQuery reads directory filters from query parameters. Page and
// limit fall back to defaults when malformed; any other malformed filter is a
// validation error. The class year defaults to the viewer's own unless
// showAllClassYears is set or a class year is given.
func ParseListQuery(values url.Values, viewer *domain.Profile) (ListQuery, error) {
	q := ListQuery{
		Page:   positiveInt(values.Get("page"), DefaultPage),
		Limit:  positiveInt(values.Get("limit"), DefaultPageSize),
		Filter: domain.DirectoryFilter{OnboardedOnly: true},
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}

	ve := &domain.ValidationError{}

	switch t := strings.TrimSpace(values.Get("postGradType")); t {
	case "", "all":
	default:
		parsed, ok := domain.ParsePostGradType(t)
		if !ok {
			ve.Add("postGradType", "must be one of work, school, internship, seeking, all")
		}
		q.Filter.PostGradType = parsed
	}

	q.Filter.Country = strings.TrimSpace(values.Get("country"))
	q.Filter.State = strings.TrimSpace(values.Get("state"))
	q.Filter.City = strings.TrimSpace(values.Get("city"))
	q.Filter.Search = strings.TrimSpace(values.Get("search"))

	if v := values.Get("lookingForRoommate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			ve.Add("lookingForRoommate", "must be true or false")
		}
		q.Filter.LookingForRoommate = b
	}

	showAll := false
	if v := values.Get("showAllClassYears"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			ve.Add("showAllClassYears", "must be true or false")
		}
		showAll = b
	}

	switch v := values.Get("classYear"); {
	case showAll:
	case v != "":
		year, err := strconv.Atoi(v)
		if err != nil {
			ve.Add("classYear", "must be a year")
		} else {
			q.Filter.ClassYear = &year
		}
	case viewer != nil && viewer.ClassYear != nil:
		year := *viewer.ClassYear
		q.Filter.ClassYear = &year
	}

	return q, ve.OrNil()
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func viewAs(viewerID uuid.UUID, p *domain.Profile) *domain.Profile {
	if p.ID == viewerID {
		return p
	}
	return p.PublicView()
}

// ListProfiles returns one page of the directory as seen by viewerID.
func (uc *DirectoryUseCase) ListProfiles(ctx context.Context, viewerID uuid.UUID, q ListQuery) (*ListResult, error) {
	profiles, total, err := uc.profileRepo.List(ctx, q.Filter, q.Limit, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	users := make([]*domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, viewAs(viewerID, p))
	}
	return &ListResult{Users: users, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (uc *DirectoryUseCase) GetProfile(ctx context.Context, viewerID, id uuid.UUID) (*domain.Profile, error) {
	p, err := uc.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewAs(viewerID, p), nil
}

// UpdateProfileRequest carries every editable profile field. Omitted
// variant fields are cleared.
type UpdateProfileRequest struct {
	Name               string          `json:"name" validate:"required,max=200"`
	PersonalEmail      string          `json:"personalEmail" validate:"omitempty,email,max=254"`
	ClassYear          int             `json:"classYear" validate:"required"`
	PostGradType       string          `json:"postGradType" validate:"required,postgradtype"`
	Company            string          `json:"company"`
	Title              string          `json:"title"`
	Industry           string          `json:"industry"`
	School             string          `json:"school"`
	Program            string          `json:"program"`
	Discipline         string          `json:"discipline"`
	Country            string          `json:"country"`
	State              string          `json:"state"`
	City               string          `json:"city"`
	BoroughDistrict    string          `json:"boroughDistrict"`
	LookingForRoommate bool            `json:"lookingForRoommate"`
	VisibilityOptions  map[string]bool `json:"visibilityOptions"`
}

func (r *UpdateProfileRequest) draft() *domain.Draft {
	year := r.ClassYear
	d := &domain.Draft{
		ClassYear:          &year,
		PersonalEmail:      strings.ToLower(strings.TrimSpace(r.PersonalEmail)),
		PostGradType:       domain.PostGradType(r.PostGradType),
		Company:            r.Company,
		Title:              r.Title,
		Industry:           r.Industry,
		School:             r.School,
		Program:            r.Program,
		Discipline:         r.Discipline,
		Country:            r.Country,
		State:              r.State,
		City:               r.City,
		BoroughDistrict:    r.BoroughDistrict,
		LookingForRoommate: r.LookingForRoommate,
		Visibility:         domain.VisibilityOptions{},
	}
	for k, v := range r.VisibilityOptions {
		d.Visibility[k] = v
	}
	d.ClearVariantFields()
	return d
}

// UpdateProfile edits id on behalf of callerID. A session may only edit its
// own profile, and that is checked before anything is read.
func (uc *DirectoryUseCase) UpdateProfile(ctx context.Context, callerID, id uuid.UUID, req *UpdateProfileRequest) (*domain.Profile, error) {
	if callerID != id {
		return nil, domain.ErrUnauthorized
	}
	target, err := uc.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateStruct(req); err != nil {
		return nil, err
	}

	draft := req.draft()
	if draft.PersonalEmail != "" {
		other, err := uc.profileRepo.GetByPersonalEmail(ctx, draft.PersonalEmail)
		switch {
		case err == nil && other.ID != target.ID:
			return nil, domain.NewValidationError("personalEmail", "is already in use")
		case err != nil && !errors.Is(err, domain.ErrProfileNotFound):
			return nil, err
		}
	}

	updated := *target
	updated.Name = strings.TrimSpace(req.Name)
	draft.ApplyTo(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		updated.LocationID = nil
		if updated.Location != nil {
			agg, err := uc.locationRepo.Upsert(ctx, *updated.Location)
			if err != nil {
				return fmt.Errorf("failed to save location: %w", err)
			}
			updated.LocationID = &agg.ID
		}
		if err := uc.profileRepo.Update(ctx, &updated); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("Profile updated", zap.String("user_id", updated.ID.String()))
	return &updated, nil
}
