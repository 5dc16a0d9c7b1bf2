package directory

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intPtr(v int) *int { return &v }

func seedProfile(t *testing.T, store *memory.Store, name string, year int, details domain.Details, loc *domain.Location) *domain.Profile {
	t.Helper()
	p := domain.NewProfile(name, fmt.Sprintf("%s@school.edu", uuid.NewString()), nil)
	p.ClassYear = intPtr(year)
	p.Details = details
	p.Location = loc
	p.IsOnboarded = true
	p.OnboardingStep = domain.StepComplete
	require.NoError(t, store.Profiles().Create(context.Background(), p))
	return p
}

func newTestUseCase() (*DirectoryUseCase, *memory.Store) {
	store := memory.NewStore()
	return NewDirectoryUseCase(store.Profiles(), store.Locations(), store.Transactor(), zap.NewNop()), store
}

func TestParseListQuery(t *testing.T) {
	viewer := &domain.Profile{ClassYear: intPtr(2025)}

	t.Run("malformed page and limit fall back to defaults", func(t *testing.T) {
		q, err := ParseListQuery(url.Values{"page": {"abc"}, "limit": {"-4"}}, viewer)

		require.NoError(t, err)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 12, q.Limit)
		assert.Equal(t, 0, q.Offset())
	})

	t.Run("defaults to the viewer's class year", func(t *testing.T) {
		q, err := ParseListQuery(url.Values{}, viewer)

		require.NoError(t, err)
		require.NotNil(t, q.Filter.ClassYear)
		assert.Equal(t, 2025, *q.Filter.ClassYear)
		assert.True(t, q.Filter.OnboardedOnly)
	})

	t.Run("showAllClassYears suppresses the class year", func(t *testing.T) {
		q, err := ParseListQuery(url.Values{"showAllClassYears": {"true"}, "classYear": {"2026"}}, viewer)

		require.NoError(t, err)
		assert.Nil(t, q.Filter.ClassYear)
	})

	t.Run("explicit filters", func(t *testing.T) {
		q, err := ParseListQuery(url.Values{
			"page": {"3"}, "limit": {"12"}, "postGradType": {"school"}, "classYear": {"2026"},
			"country": {"USA"}, "state": {"NY"}, "lookingForRoommate": {"true"}, "search": {" goo "},
		}, viewer)

		require.NoError(t, err)
		assert.Equal(t, 24, q.Offset())
		assert.Equal(t, domain.PostGradSchool, q.Filter.PostGradType)
		assert.Equal(t, 2026, *q.Filter.ClassYear)
		assert.Equal(t, "NY", q.Filter.State)
		assert.True(t, q.Filter.LookingForRoommate)
		assert.Equal(t, "goo", q.Filter.Search)
	})

	t.Run("all removes the type constraint", func(t *testing.T) {
		q, err := ParseListQuery(url.Values{"postGradType": {"all"}}, viewer)

		require.NoError(t, err)
		assert.Empty(t, q.Filter.PostGradType)
	})

	t.Run("unknown type is a validation error", func(t *testing.T) {
		_, err := ParseListQuery(url.Values{"postGradType": {"astronaut"}}, viewer)

		ve, ok := domain.AsValidationError(err)
		require.True(t, ok)
		assert.True(t, ve.HasField("postGradType"))
	})

	t.Run("limit is capped", func(t *testing.T) {
		q, err := ParseListQuery(url.Values{"limit": {"5000"}}, viewer)

		require.NoError(t, err)
		assert.Equal(t, MaxPageSize, q.Limit)
	})
}

func TestListProfiles_Pagination(t *testing.T) {
	uc, store := newTestUseCase()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		seedProfile(t, store, fmt.Sprintf("Classmate %02d", i), 2025, domain.SeekingDetails{}, nil)
	}
	seedProfile(t, store, "Other Year", 2026, domain.SeekingDetails{}, nil)

	viewer := &domain.Profile{ID: uuid.New(), ClassYear: intPtr(2025)}

	q, err := ParseListQuery(url.Values{"page": {"1"}, "limit": {"12"}}, viewer)
	require.NoError(t, err)
	page1, err := uc.ListProfiles(ctx, viewer.ID, q)
	require.NoError(t, err)
	assert.Len(t, page1.Users, 12)
	assert.Equal(t, 25, page1.Total)
	assert.Equal(t, "Classmate 00", page1.Users[0].Name)

	q, err = ParseListQuery(url.Values{"page": {"3"}, "limit": {"12"}}, viewer)
	require.NoError(t, err)
	page3, err := uc.ListProfiles(ctx, viewer.ID, q)
	require.NoError(t, err)
	assert.Len(t, page3.Users, 1)
	assert.Equal(t, 25, page3.Total)
	assert.Equal(t, "Classmate 24", page3.Users[0].Name)
}

func TestListProfiles_Filters(t *testing.T) {
	uc, store := newTestUseCase()
	ctx := context.Background()

	ny := &domain.Location{Country: "USA", State: "NY", City: "New York"}
	seedProfile(t, store, "Ada", 2025, domain.WorkDetails{Company: "Google", Title: "SWE", Industry: "technology"}, ny)
	seedProfile(t, store, "Grace", 2025, domain.SchoolDetails{School: "MIT", Program: "PhD"}, &domain.Location{Country: "USA", State: "MA", City: "Cambridge"})
	seedProfile(t, store, "Linus", 2025, domain.WorkDetails{Company: "Stripe", Title: "PM", Industry: "finance"}, ny)

	q := ListQuery{Page: 1, Limit: 12, Filter: domain.DirectoryFilter{OnboardedOnly: true, State: "NY", Search: "goo"}}
	res, err := uc.ListProfiles(ctx, uuid.New(), q)

	require.NoError(t, err)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "Ada", res.Users[0].Name)
}

func TestGetProfile_Visibility(t *testing.T) {
	uc, store := newTestUseCase()
	ctx := context.Background()

	p := seedProfile(t, store, "Ada", 2025, domain.WorkDetails{Company: "Google", Title: "SWE", Industry: "technology"},
		&domain.Location{Country: "USA", State: "NY", City: "New York"})
	email := "ada@example.com"
	p.PersonalEmail = &email
	p.Visibility = domain.VisibilityOptions{domain.VisibilityCompany: false}
	require.NoError(t, store.Profiles().Update(ctx, p))

	t.Run("other viewers see hidden fields blanked", func(t *testing.T) {
		got, err := uc.GetProfile(ctx, uuid.New(), p.ID)

		require.NoError(t, err)
		work, _ := got.Work()
		assert.Empty(t, work.Company)
		assert.Equal(t, "SWE", work.Title)
		assert.Nil(t, got.PersonalEmail)
	})

	t.Run("owner sees everything", func(t *testing.T) {
		got, err := uc.GetProfile(ctx, p.ID, p.ID)

		require.NoError(t, err)
		work, _ := got.Work()
		assert.Equal(t, "Google", work.Company)
		require.NotNil(t, got.PersonalEmail)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := uc.GetProfile(ctx, p.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	uc, store := newTestUseCase()
	ctx := context.Background()

	p := seedProfile(t, store, "Ada", 2025, domain.SeekingDetails{}, nil)
	req := &UpdateProfileRequest{
		Name: "Ada L.", ClassYear: 2025, PostGradType: "school",
		School: "MIT", Program: "PhD", Company: "stale",
		Country: "USA", State: "MA", City: "Cambridge",
		VisibilityOptions: map[string]bool{"program": false},
	}

	t.Run("rejects another user's session", func(t *testing.T) {
		_, err := uc.UpdateProfile(ctx, uuid.New(), p.ID, req)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("validates the declared variant", func(t *testing.T) {
		bad := *req
		bad.Program = ""
		_, err := uc.UpdateProfile(ctx, p.ID, p.ID, &bad)

		ve, ok := domain.AsValidationError(err)
		require.True(t, ok)
		assert.True(t, ve.HasField("program"))
	})

	t.Run("owner update switches variant", func(t *testing.T) {
		got, err := uc.UpdateProfile(ctx, p.ID, p.ID, req)
		require.NoError(t, err)

		assert.Equal(t, "Ada L.", got.Name)
		assert.Equal(t, domain.SchoolDetails{School: "MIT", Program: "PhD"}, got.Details)
		assert.NotNil(t, got.LocationID)

		stored, err := store.Profiles().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PostGradSchool, stored.PostGradType())
		assert.False(t, stored.Visibility.IsVisible(domain.VisibilityProgram))
	})
}
