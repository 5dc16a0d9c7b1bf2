package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, credential string) (*domain.Identity, error) {
	args := m.Called(ctx, credential)
	id, _ := args.Get(0).(*domain.Identity)
	return id, args.Error(1)
}

func newTestAuth(t *testing.T) (*AuthUseCase, *mockVerifier, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	verifier := &mockVerifier{}
	uc := NewAuthUseCase(store.Profiles(), store.Sessions(), verifier, Options{
		JWTSecret:         "0123456789abcdef0123456789abcdef",
		TokenExpiry:       time.Hour,
		SessionHashKey:    "fedcba9876543210fedcba9876543210",
		InstitutionDomain: "@School.edu",
	}, zap.NewNop())
	return uc, verifier, store
}

func TestSignInWithGoogle_FirstInstitutionalSignIn(t *testing.T) {
	uc, verifier, store := newTestAuth(t)
	ctx := context.Background()

	verifier.On("Verify", mock.Anything, "cred").Return(&domain.Identity{
		Subject: "1", Email: "Ada@School.edu", EmailVerified: true, Name: "Ada Lovelace",
	}, nil)

	resp, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "firefox", "127.0.0.1")
	require.NoError(t, err)

	assert.True(t, resp.IsNewUser)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@school.edu", resp.Profile.InstitutionalEmail)
	assert.Equal(t, domain.StepClassYear, resp.Profile.OnboardingStep)
	assert.False(t, resp.Profile.IsOnboarded)

	stored, err := store.Profiles().GetByInstitutionalEmail(ctx, "ada@school.edu")
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, stored.ID)

	userID, err := uc.VerifyToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, userID)

	t.Run("second sign-in reuses the profile", func(t *testing.T) {
		again, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "", "")
		require.NoError(t, err)
		assert.False(t, again.IsNewUser)
		assert.Equal(t, resp.Profile.ID, again.Profile.ID)
	})

	verifier.AssertExpectations(t)
}

func TestSignInWithGoogle_Policy(t *testing.T) {
	ctx := context.Background()

	t.Run("outside email without a linked profile is rejected", func(t *testing.T) {
		uc, verifier, _ := newTestAuth(t)
		verifier.On("Verify", mock.Anything, "cred").Return(&domain.Identity{Email: "ada@gmail.com", EmailVerified: true}, nil)

		_, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "", "")
		assert.ErrorIs(t, err, domain.ErrEmailNotAllowed)
	})

	t.Run("lookalike domain is rejected", func(t *testing.T) {
		uc, verifier, _ := newTestAuth(t)
		verifier.On("Verify", mock.Anything, "cred").Return(&domain.Identity{Email: "ada@notschool.edu", EmailVerified: true}, nil)

		_, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "", "")
		assert.ErrorIs(t, err, domain.ErrEmailNotAllowed)
	})

	t.Run("personal email signs in as the linked profile", func(t *testing.T) {
		uc, verifier, store := newTestAuth(t)
		p := domain.NewProfile("Ada", "ada@school.edu", nil)
		personal := "ada@gmail.com"
		p.PersonalEmail = &personal
		require.NoError(t, store.Profiles().Create(ctx, p))
		verifier.On("Verify", mock.Anything, "cred").Return(&domain.Identity{Email: "ADA@gmail.com", EmailVerified: true}, nil)

		resp, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "", "")
		require.NoError(t, err)
		assert.Equal(t, p.ID, resp.Profile.ID)
		assert.False(t, resp.IsNewUser)
	})

	t.Run("unverified email is rejected", func(t *testing.T) {
		uc, verifier, _ := newTestAuth(t)
		verifier.On("Verify", mock.Anything, "cred").Return(&domain.Identity{Email: "ada@school.edu"}, nil)

		_, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "", "")
		assert.ErrorIs(t, err, domain.ErrEmailNotAllowed)
	})

	t.Run("bad credential", func(t *testing.T) {
		uc, verifier, _ := newTestAuth(t)
		verifier.On("Verify", mock.Anything, "forged").Return(nil, errors.New("signature mismatch"))

		_, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "forged"}, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("missing credential", func(t *testing.T) {
		uc, _, _ := newTestAuth(t)

		_, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{}, "", "")
		_, ok := domain.AsValidationError(err)
		assert.True(t, ok)
	})
}

func TestVerifyToken(t *testing.T) {
	ctx := context.Background()
	uc, verifier, _ := newTestAuth(t)
	verifier.On("Verify", mock.Anything, "cred").Return(&domain.Identity{Email: "ada@school.edu", EmailVerified: true, Name: "Ada"}, nil)

	resp, err := uc.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "", "")
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := uc.VerifyToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, _, _ := newTestAuth(t)
		other.jwtSecret = []byte("another-secret-another-secret-xx")
		otherVerifier := &mockVerifier{}
		otherVerifier.On("Verify", mock.Anything, "cred").Return(&domain.Identity{Email: "ada@school.edu", EmailVerified: true}, nil)
		other.verifier = otherVerifier
		foreign, err := other.SignInWithGoogle(ctx, &GoogleSignInRequest{Credential: "cred"}, "", "")
		require.NoError(t, err)

		_, err = uc.VerifyToken(ctx, foreign.Token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		uc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { uc.now = time.Now }()

		_, err := uc.VerifyToken(ctx, resp.Token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		require.NoError(t, uc.Logout(ctx, resp.Token))

		_, err := uc.VerifyToken(ctx, resp.Token)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestHashToken_IsKeyed(t *testing.T) {
	a, _, _ := newTestAuth(t)
	b, _, _ := newTestAuth(t)
	b.hashKey = []byte("another-key-another-key-another!")

	ha, err := a.hashToken("token")
	require.NoError(t, err)
	hb, err := b.hashToken("token")
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.NotEqual(t, ha, hb)
}
