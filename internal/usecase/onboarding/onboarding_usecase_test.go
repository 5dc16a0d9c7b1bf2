package onboarding

import (
	"context"
	"testing"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

func newTestUseCase(t *testing.T) (*OnboardingUseCase, *memory.Store, uuid.UUID) {
	t.Helper()
	store := memory.NewStore()
	uc := NewOnboardingUseCase(store.Profiles(), store.Locations(), store.Drafts(), store.Transactor(), zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })

	p := domain.NewProfile("Ada Lovelace", "ada@school.edu", nil)
	require.NoError(t, store.Profiles().Create(context.Background(), p))
	return uc, store, p.ID
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	ve, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	var fields []string
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	return fields
}

func TestOnboarding_RoundTrip(t *testing.T) {
	uc, store, userID := newTestUseCase(t)
	ctx := context.Background()

	state, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025, PersonalEmail: " Ada@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, domain.StepPostGradType, state.Step)

	state, err = uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "work"})
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, state.Step)
	assert.Equal(t, domain.PostGradWork, state.Draft.PostGradType)

	_, err = uc.SubmitDetails(ctx, userID, &DetailsRequest{Company: "Google", Title: "Engineer", Industry: "technology"})
	require.NoError(t, err)

	_, err = uc.SubmitLocation(ctx, userID, &LocationRequest{
		Country: "USA", State: "NY", City: "New York", BoroughDistrict: "Brooklyn", LookingForRoommate: true,
	})
	require.NoError(t, err)

	state, err = uc.SubmitVisibility(ctx, userID, &VisibilityRequest{VisibilityOptions: map[string]bool{"title": false}})
	require.NoError(t, err)
	assert.Equal(t, domain.StepReview, state.Step)

	stored, err := store.Profiles().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepReview, stored.OnboardingStep)
	assert.False(t, stored.IsOnboarded)

	profile, err := uc.Submit(ctx, userID)
	require.NoError(t, err)

	assert.True(t, profile.IsOnboarded)
	assert.Equal(t, domain.StepComplete, profile.OnboardingStep)
	require.NotNil(t, profile.ClassYear)
	assert.Equal(t, 2025, *profile.ClassYear)
	require.NotNil(t, profile.PersonalEmail)
	assert.Equal(t, "ada@example.com", *profile.PersonalEmail)
	assert.Equal(t, domain.WorkDetails{Company: "Google", Title: "Engineer", Industry: "technology"}, profile.Details)
	assert.Equal(t, &domain.Location{Country: "USA", State: "NY", City: "New York", BoroughDistrict: "Brooklyn"}, profile.Location)
	assert.NotNil(t, profile.LocationID)
	assert.True(t, profile.LookingForRoommate)
	assert.Equal(t, domain.VisibilityOptions{"title": false}, profile.Visibility)

	draft, err := store.Drafts().Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, draft, "draft is cleared after commit")

	state, err = uc.GetState(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepComplete, state.Step)
}

func TestOnboarding_SeekingFinishesImmediately(t *testing.T) {
	uc, store, userID := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025})
	require.NoError(t, err)

	state, err := uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "seeking"})
	require.NoError(t, err)
	assert.Equal(t, domain.StepComplete, state.Step)

	stored, err := store.Profiles().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, stored.IsOnboarded)
	assert.Equal(t, domain.StepComplete, stored.OnboardingStep)
	assert.Equal(t, domain.PostGradSeeking, stored.PostGradType())
	assert.Nil(t, stored.Location)
}

func TestOnboarding_UnderclassmanWorkBecomesInternship(t *testing.T) {
	uc, _, userID := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2027})
	require.NoError(t, err)

	state, err := uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "work"})
	require.NoError(t, err)
	assert.Equal(t, domain.PostGradInternship, state.Draft.PostGradType)

	t.Run("switching back to the graduating class restores work", func(t *testing.T) {
		state, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025})
		require.NoError(t, err)
		assert.Equal(t, domain.PostGradWork, state.Draft.PostGradType)
	})
}

func TestOnboarding_ClassYearValidation(t *testing.T) {
	uc, store, userID := newTestUseCase(t)
	ctx := context.Background()

	t.Run("outside the window", func(t *testing.T) {
		_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2029})
		assert.Equal(t, []string{"classYear"}, fieldsOf(t, err))
	})

	t.Run("personal email only for the graduating class", func(t *testing.T) {
		_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2026, PersonalEmail: "ada@example.com"})
		assert.Equal(t, []string{"personalEmail"}, fieldsOf(t, err))
	})

	t.Run("malformed personal email", func(t *testing.T) {
		_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025, PersonalEmail: "not-an-email"})
		assert.Equal(t, []string{"personalEmail"}, fieldsOf(t, err))
	})

	t.Run("personal email taken by someone else", func(t *testing.T) {
		other := domain.NewProfile("Grace", "grace@school.edu", nil)
		taken := "shared@example.com"
		other.PersonalEmail = &taken
		require.NoError(t, store.Profiles().Create(ctx, other))

		_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025, PersonalEmail: taken})
		assert.Equal(t, []string{"personalEmail"}, fieldsOf(t, err))
	})
}

func TestOnboarding_StepValidation(t *testing.T) {
	uc, _, userID := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "work"})
	assert.Equal(t, []string{"onboardingStep"}, fieldsOf(t, err), "type before year")

	_, err = uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025})
	require.NoError(t, err)

	_, err = uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "internship"})
	assert.Equal(t, []string{"postGradType"}, fieldsOf(t, err), "internship is never picked directly")

	_, err = uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "school"})
	require.NoError(t, err)

	_, err = uc.SubmitDetails(ctx, userID, &DetailsRequest{School: "MIT"})
	assert.Equal(t, []string{"program"}, fieldsOf(t, err))

	_, err = uc.SubmitDetails(ctx, userID, &DetailsRequest{School: "MIT", Program: "PhD", Company: "ignored"})
	require.NoError(t, err)

	_, err = uc.SubmitLocation(ctx, userID, &LocationRequest{Country: "USA", City: "Boston"})
	assert.Equal(t, []string{"state"}, fieldsOf(t, err))

	_, err = uc.SubmitLocation(ctx, userID, &LocationRequest{Country: "USA", State: "TX", City: "Austin", BoroughDistrict: "Downtown"})
	assert.Equal(t, []string{"boroughDistrict"}, fieldsOf(t, err))

	_, err = uc.SubmitLocation(ctx, userID, &LocationRequest{Country: "Canada", City: "Toronto"})
	require.NoError(t, err)

	_, err = uc.SubmitVisibility(ctx, userID, &VisibilityRequest{VisibilityOptions: map[string]bool{"company": false}})
	assert.Equal(t, []string{"visibilityOptions"}, fieldsOf(t, err))

	state, err := uc.SubmitVisibility(ctx, userID, &VisibilityRequest{VisibilityOptions: map[string]bool{"program": false}})
	require.NoError(t, err)
	assert.Empty(t, state.Draft.Company)
}

func completeWorkOnboarding(t *testing.T, uc *OnboardingUseCase, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025})
	require.NoError(t, err)
	_, err = uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "work"})
	require.NoError(t, err)
	_, err = uc.SubmitDetails(ctx, userID, &DetailsRequest{Company: "Google", Title: "Engineer", Industry: "technology"})
	require.NoError(t, err)
	_, err = uc.SubmitLocation(ctx, userID, &LocationRequest{Country: "USA", State: "NY", City: "New York"})
	require.NoError(t, err)
	_, err = uc.SubmitVisibility(ctx, userID, &VisibilityRequest{})
	require.NoError(t, err)
	_, err = uc.Submit(ctx, userID)
	require.NoError(t, err)
}

func TestOnboarding_StepsRejectedAfterComplete(t *testing.T) {
	uc, store, userID := newTestUseCase(t)
	ctx := context.Background()
	completeWorkOnboarding(t, uc, userID)

	t.Run("every step", func(t *testing.T) {
		_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025})
		assert.ErrorIs(t, err, domain.ErrOnboardingComplete)

		_, err = uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "school"})
		assert.ErrorIs(t, err, domain.ErrOnboardingComplete)

		_, err = uc.SubmitDetails(ctx, userID, &DetailsRequest{School: "MIT", Program: "PhD"})
		assert.ErrorIs(t, err, domain.ErrOnboardingComplete)

		_, err = uc.SubmitLocation(ctx, userID, &LocationRequest{Country: "Japan", City: "Tokyo"})
		assert.ErrorIs(t, err, domain.ErrOnboardingComplete)

		_, err = uc.SubmitVisibility(ctx, userID, &VisibilityRequest{})
		assert.ErrorIs(t, err, domain.ErrOnboardingComplete)
	})

	t.Run("progress checkpoint", func(t *testing.T) {
		err := uc.SaveProgress(ctx, userID, &ProgressRequest{OnboardingStep: 3, PostGradType: "school"})
		assert.ErrorIs(t, err, domain.ErrOnboardingComplete)
	})

	stored, err := store.Profiles().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, stored.IsOnboarded)
	assert.Equal(t, domain.StepComplete, stored.OnboardingStep)
	assert.Equal(t, domain.StepComplete, stored.ResumeStep())
	assert.Equal(t, domain.WorkDetails{Company: "Google", Title: "Engineer", Industry: "technology"}, stored.Details)

	t.Run("re-submitting re-runs the update", func(t *testing.T) {
		profile, err := uc.Submit(ctx, userID)
		require.NoError(t, err)
		assert.True(t, profile.IsOnboarded)
		assert.Equal(t, domain.PostGradWork, profile.PostGradType())
	})
}

func TestOnboarding_CannotSkipAhead(t *testing.T) {
	uc, store, userID := newTestUseCase(t)
	ctx := context.Background()

	t.Run("fresh profile", func(t *testing.T) {
		_, err := uc.SubmitVisibility(ctx, userID, &VisibilityRequest{})
		assert.Equal(t, []string{"onboardingStep"}, fieldsOf(t, err))

		_, err = uc.SubmitLocation(ctx, userID, &LocationRequest{Country: "Japan", City: "Tokyo"})
		assert.Equal(t, []string{"onboardingStep"}, fieldsOf(t, err))

		_, err = uc.Submit(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrDraftIncomplete)

		stored, err := store.Profiles().GetByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.StepClassYear, stored.OnboardingStep)
	})

	_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2025})
	require.NoError(t, err)
	_, err = uc.SubmitPostGradType(ctx, userID, &PostGradTypeRequest{PostGradType: "school"})
	require.NoError(t, err)

	t.Run("one step past the checkpoint", func(t *testing.T) {
		_, err := uc.SubmitLocation(ctx, userID, &LocationRequest{Country: "Japan", City: "Tokyo"})
		assert.Equal(t, []string{"onboardingStep"}, fieldsOf(t, err))
	})

	_, err = uc.SubmitDetails(ctx, userID, &DetailsRequest{School: "MIT", Program: "PhD"})
	require.NoError(t, err)

	t.Run("earlier steps can be revisited", func(t *testing.T) {
		state, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2026})
		require.NoError(t, err)
		assert.Equal(t, domain.StepPostGradType, state.Step)
		assert.Equal(t, "MIT", state.Draft.School)

		_, err = uc.SubmitDetails(ctx, userID, &DetailsRequest{School: "MIT", Program: "PhD"})
		assert.Equal(t, []string{"onboardingStep"}, fieldsOf(t, err))
	})
}

func TestOnboarding_ResumesFromProfileWhenDraftIsLost(t *testing.T) {
	uc, store, userID := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.SubmitClassYear(ctx, userID, &ClassYearRequest{ClassYear: 2026})
	require.NoError(t, err)
	require.NoError(t, store.Drafts().Delete(ctx, userID))

	state, err := uc.GetState(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPostGradType, state.Step)
	assert.Equal(t, []int{2025, 2026, 2027, 2028}, state.ClassYearRange)
}

func TestOnboarding_CommitPostedDraft(t *testing.T) {
	uc, _, userID := newTestUseCase(t)
	ctx := context.Background()

	year := 2026
	t.Run("missing variant fields", func(t *testing.T) {
		_, err := uc.Commit(ctx, userID, &domain.Draft{ClassYear: &year, PostGradType: domain.PostGradSchool, Country: "Canada", City: "Toronto"})
		assert.ElementsMatch(t, []string{"school", "program"}, fieldsOf(t, err))
	})

	t.Run("complete draft", func(t *testing.T) {
		profile, err := uc.Commit(ctx, userID, &domain.Draft{
			ClassYear: &year, PostGradType: domain.PostGradWork,
			Company: "Stripe", Title: "Intern", Industry: "finance",
			Country: "Canada", City: "Toronto",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PostGradInternship, profile.PostGradType())
		assert.True(t, profile.IsOnboarded)
	})
}

func TestOnboarding_SaveProgress(t *testing.T) {
	uc, store, userID := newTestUseCase(t)
	ctx := context.Background()

	require.NoError(t, uc.SaveProgress(ctx, userID, &ProgressRequest{OnboardingStep: 3, PostGradType: "school"}))
	stored, err := store.Profiles().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, stored.OnboardingStep)
	assert.Equal(t, domain.PostGradSchool, stored.PostGradType())

	err = uc.SaveProgress(ctx, userID, &ProgressRequest{OnboardingStep: 9})
	assert.Equal(t, []string{"onboardingStep"}, fieldsOf(t, err))

	err = uc.SaveProgress(ctx, userID, &ProgressRequest{OnboardingStep: -1})
	assert.Equal(t, []string{"onboardingStep"}, fieldsOf(t, err))
}
