package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/infrastructure/logger"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OnboardingUseCase struct {
	profileRepo  repository.ProfileRepository
	locationRepo repository.LocationRepository
	drafts       repository.DraftStore
	tx           repository.Transactor
	logger       *zap.Logger
	now          func() time.Time
}

func NewOnboardingUseCase(
	profileRepo repository.ProfileRepository,
	locationRepo repository.LocationRepository,
	drafts repository.DraftStore,
	tx repository.Transactor,
	logger *zap.Logger,
) *OnboardingUseCase {
	return &OnboardingUseCase{
		profileRepo:  profileRepo,
		locationRepo: locationRepo,
		drafts:       drafts,
		tx:           tx,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the time source. Used by tests to pin the graduating
// class year.
func (uc *OnboardingUseCase) WithClock(now func() time.Time) *OnboardingUseCase {
	uc.now = now
	return uc
}

func (uc *OnboardingUseCase) currentYear() int {
	return uc.now().Year()
}

// State is where the user is in onboarding plus the draft so far.
type State struct {
	Step           domain.Step     `json:"step"`
	ClassYearRange []int           `json:"classYearRange"`
	Draft          *domain.Draft   `json:"draft"`
	Profile        *domain.Profile `json:"-"`
}

type ClassYearRequest struct {
	ClassYear     int    `json:"classYear" validate:"required"`
	PersonalEmail string `json:"personalEmail" validate:"omitempty,email,max=254"`
}

type PostGradTypeRequest struct {
	PostGradType string `json:"postGradType" validate:"required,oneof=work school seeking"`
}

type DetailsRequest struct {
	Company    string `json:"company"`
	Title      string `json:"title"`
	Industry   string `json:"industry"`
	School     string `json:"school"`
	Program    string `json:"program"`
	Discipline string `json:"discipline"`
}

type LocationRequest struct {
	Country            string `json:"country"`
	State              string `json:"state"`
	City               string `json:"city"`
	BoroughDistrict    string `json:"boroughDistrict"`
	LookingForRoommate bool   `json:"lookingForRoommate"`
}

type VisibilityRequest struct {
	VisibilityOptions map[string]bool `json:"visibilityOptions"`
}

type ProgressRequest struct {
	OnboardingStep int    `json:"onboardingStep"`
	PostGradType   string `json:"postGradType" validate:"omitempty,postgradtype"`
}

// GetState returns the stored draft, re-seeding it from the profile when the
// cache has none.
func (uc *OnboardingUseCase) GetState(ctx context.Context, userID uuid.UUID) (*State, error) {
	profile, draft, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.state(profile, draft), nil
}

func (uc *OnboardingUseCase) state(profile *domain.Profile, draft *domain.Draft) *State {
	step := draft.Step
	if profile.IsOnboarded {
		step = domain.StepComplete
	}
	return &State{
		Step:           step,
		ClassYearRange: domain.ClassYearWindow(uc.currentYear()),
		Draft:          draft,
		Profile:        profile,
	}
}

func (uc *OnboardingUseCase) load(ctx context.Context, userID uuid.UUID) (*domain.Profile, *domain.Draft, error) {
	profile, err := uc.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	draft, err := uc.drafts.Get(ctx, userID)
	if err != nil {
		logger.FromContext(ctx, uc.logger).Warn("Onboarding draft unavailable, rebuilding from profile",
			zap.String("user_id", userID.String()), zap.Error(err))
		draft = nil
	}
	if draft == nil {
		draft = domain.DraftFromProfile(profile)
	}
	return profile, draft, nil
}

// enterStep rejects any step once onboarding is finished and any step past
// the stored checkpoint. Earlier steps may be revisited.
func enterStep(profile *domain.Profile, draft *domain.Draft, step domain.Step) error {
	if profile.IsOnboarded || draft.Step == domain.StepComplete {
		return domain.ErrOnboardingComplete
	}
	if step > draft.Step {
		return domain.NewValidationError("onboardingStep", "earlier steps must be completed first")
	}
	return nil
}

// advance stores the draft and moves the server-side checkpoint to next.
func (uc *OnboardingUseCase) advance(ctx context.Context, profile *domain.Profile, draft *domain.Draft, next domain.Step) (*State, error) {
	draft.Step = next
	if err := uc.profileRepo.UpdateOnboardingProgress(ctx, profile.ID, next, draft.PostGradType); err != nil {
		return nil, fmt.Errorf("failed to save onboarding progress: %w", err)
	}
	if err := uc.drafts.Save(ctx, profile.ID, draft); err != nil {
		return nil, err
	}
	profile.OnboardingStep = next
	return uc.state(profile, draft), nil
}

func (uc *OnboardingUseCase) checkPersonalEmail(ctx context.Context, userID uuid.UUID, email string, classYear int) error {
	if email == "" {
		return nil
	}
	if classYear != uc.currentYear() {
		return domain.NewValidationError("personalEmail", "is only accepted for the graduating class")
	}
	other, err := uc.profileRepo.GetByPersonalEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != userID:
		return domain.NewValidationError("personalEmail", "is already in use")
	}
	return nil
}

func (uc *OnboardingUseCase) SubmitClassYear(ctx context.Context, userID uuid.UUID, req *ClassYearRequest) (*State, error) {
	req.PersonalEmail = strings.ToLower(strings.TrimSpace(req.PersonalEmail))
	if err := domain.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !domain.InClassYearWindow(req.ClassYear, uc.currentYear()) {
		return nil, domain.NewValidationError("classYear", "is outside the selectable range")
	}

	profile, draft, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := enterStep(profile, draft, domain.StepClassYear); err != nil {
		return nil, err
	}
	if err := uc.checkPersonalEmail(ctx, userID, req.PersonalEmail, req.ClassYear); err != nil {
		return nil, err
	}

	year := req.ClassYear
	draft.ClassYear = &year
	draft.PersonalEmail = req.PersonalEmail
	if draft.PostGradType != "" {
		draft.PostGradType = domain.AdjustPostGradType(draft.PostGradType, year, uc.currentYear())
	}

	return uc.advance(ctx, profile, draft, domain.StepPostGradType)
}

// SubmitPostGradType records the type. Picking seeking finishes onboarding
// right away.
func (uc *OnboardingUseCase) SubmitPostGradType(ctx context.Context, userID uuid.UUID, req *PostGradTypeRequest) (*State, error) {
	if err := domain.ValidateStruct(req); err != nil {
		return nil, err
	}

	profile, draft, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := enterStep(profile, draft, domain.StepPostGradType); err != nil {
		return nil, err
	}
	if draft.ClassYear == nil {
		return nil, domain.NewValidationError("classYear", "must be selected first")
	}

	draft.PostGradType = domain.AdjustPostGradType(domain.PostGradType(req.PostGradType), *draft.ClassYear, uc.currentYear())
	draft.ClearVariantFields()

	if draft.PostGradType == domain.PostGradSeeking {
		if _, err := uc.commit(ctx, profile, draft); err != nil {
			return nil, err
		}
		return uc.state(profile, draft), nil
	}
	return uc.advance(ctx, profile, draft, domain.StepDetails)
}

func (uc *OnboardingUseCase) SubmitDetails(ctx context.Context, userID uuid.UUID, req *DetailsRequest) (*State, error) {
	profile, draft, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := enterStep(profile, draft, domain.StepDetails); err != nil {
		return nil, err
	}
	if draft.PostGradType == "" || draft.PostGradType == domain.PostGradSeeking {
		return nil, domain.NewValidationError("postGradType", "must be work, internship or school")
	}

	draft.Company, draft.Title, draft.Industry = req.Company, req.Title, req.Industry
	draft.School, draft.Program, draft.Discipline = req.School, req.Program, req.Discipline
	draft.ClearVariantFields()

	if err := domain.ValidateDetails(draft.Details()); err != nil {
		return nil, err
	}
	return uc.advance(ctx, profile, draft, domain.StepLocation)
}

func (uc *OnboardingUseCase) SubmitLocation(ctx context.Context, userID uuid.UUID, req *LocationRequest) (*State, error) {
	loc := domain.Location{
		Country:         req.Country,
		State:           req.State,
		City:            req.City,
		BoroughDistrict: req.BoroughDistrict,
	}.Normalize()
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	profile, draft, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := enterStep(profile, draft, domain.StepLocation); err != nil {
		return nil, err
	}

	draft.Country, draft.State, draft.City, draft.BoroughDistrict = loc.Country, loc.State, loc.City, loc.BoroughDistrict
	draft.LookingForRoommate = req.LookingForRoommate
	return uc.advance(ctx, profile, draft, domain.StepVisibility)
}

func (uc *OnboardingUseCase) SubmitVisibility(ctx context.Context, userID uuid.UUID, req *VisibilityRequest) (*State, error) {
	profile, draft, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := enterStep(profile, draft, domain.StepVisibility); err != nil {
		return nil, err
	}

	editable := map[string]bool{}
	for _, k := range domain.EditableVisibilityKeys(draft.PostGradType) {
		editable[k] = true
	}

	ve := &domain.ValidationError{}
	options := domain.VisibilityOptions{}
	for k, v := range req.VisibilityOptions {
		if !editable[k] {
			ve.Add("visibilityOptions", "key "+k+" cannot be set for this post-grad type")
			continue
		}
		options[k] = v
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	draft.Visibility = options
	return uc.advance(ctx, profile, draft, domain.StepReview)
}

// Submit commits the stored draft. Until the first commit the draft must
// have reached the review step; afterwards it is rebuilt from the profile and
// re-submitting re-runs the update.
func (uc *OnboardingUseCase) Submit(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, draft, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsOnboarded && draft.Step != domain.StepReview {
		return nil, domain.ErrDraftIncomplete
	}
	return uc.commit(ctx, profile, draft)
}

// Commit persists a fully assembled draft sent by the client.
func (uc *OnboardingUseCase) Commit(ctx context.Context, userID uuid.UUID, draft *domain.Draft) (*domain.Profile, error) {
	profile, err := uc.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.commit(ctx, profile, draft)
}

func (uc *OnboardingUseCase) commit(ctx context.Context, profile *domain.Profile, draft *domain.Draft) (*domain.Profile, error) {
	if draft.ClassYear == nil {
		return nil, domain.NewValidationError("classYear", "is required")
	}
	if !domain.InClassYearWindow(*draft.ClassYear, uc.currentYear()) {
		return nil, domain.NewValidationError("classYear", "is outside the selectable range")
	}
	draft.PersonalEmail = strings.ToLower(strings.TrimSpace(draft.PersonalEmail))
	if err := uc.checkPersonalEmail(ctx, profile.ID, draft.PersonalEmail, *draft.ClassYear); err != nil {
		return nil, err
	}
	draft.PostGradType = domain.AdjustPostGradType(draft.PostGradType, *draft.ClassYear, uc.currentYear())
	if draft.Visibility == nil {
		draft.Visibility = domain.VisibilityOptions{}
	}
	draft.ClearVariantFields()

	candidate := *profile
	draft.ApplyTo(&candidate)
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if candidate.Location != nil {
			agg, err := uc.locationRepo.Upsert(ctx, *candidate.Location)
			if err != nil {
				return fmt.Errorf("failed to save location: %w", err)
			}
			candidate.LocationID = &agg.ID
		}
		if err := uc.profileRepo.Update(ctx, &candidate); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	*profile = candidate
	draft.Step = domain.StepComplete

	if err := uc.drafts.Delete(ctx, profile.ID); err != nil {
		logger.FromContext(ctx, uc.logger).Warn("Failed to clear onboarding draft", zap.String("user_id", profile.ID.String()), zap.Error(err))
	}
	logger.FromContext(ctx, uc.logger).Info("Onboarding completed",
		zap.String("user_id", profile.ID.String()),
		zap.String("post_grad_type", string(profile.PostGradType())))

	return profile, nil
}

// SaveProgress persists a client-reported checkpoint. A finished profile
// keeps its checkpoint.
func (uc *OnboardingUseCase) SaveProgress(ctx context.Context, userID uuid.UUID, req *ProgressRequest) error {
	if err := domain.ValidateStruct(req); err != nil {
		return err
	}
	step := domain.Step(req.OnboardingStep)
	if domain.ResumeStep(req.OnboardingStep) != step {
		return domain.NewValidationError("onboardingStep", "is not a known step")
	}
	if step == domain.StepComplete {
		return domain.NewValidationError("onboardingStep", "is set by submitting onboarding")
	}

	profile, err := uc.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if profile.IsOnboarded {
		return domain.ErrOnboardingComplete
	}
	return uc.profileRepo.UpdateOnboardingProgress(ctx, userID, step, domain.PostGradType(req.PostGradType))
}
