package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/infrastructure/logger"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// IdentityVerifier turns a sign-in credential into a verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*domain.Identity, error)
}

type Options struct {
	JWTSecret         string
	TokenExpiry       time.Duration
	SessionHashKey    string
	InstitutionDomain string
}

type AuthUseCase struct {
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	verifier    IdentityVerifier
	jwtSecret   []byte
	hashKey     []byte
	tokenExpiry time.Duration
	instDomain  string
	logger      *zap.Logger
	now         func() time.Time
}

func NewAuthUseCase(
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	verifier IdentityVerifier,
	opts Options,
	logger *zap.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		jwtSecret:   []byte(opts.JWTSecret),
		hashKey:     []byte(opts.SessionHashKey),
		tokenExpiry: opts.TokenExpiry,
		instDomain:  strings.ToLower(strings.TrimPrefix(strings.TrimSpace(opts.InstitutionDomain), "@")),
		logger:      logger,
		now:         time.Now,
	}
}

type GoogleSignInRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Profile   *domain.Profile `json:"-"`
	IsNewUser bool            `json:"isNewUser"`
}

// IsInstitutionalEmail reports whether email belongs to the institution.
func (uc *AuthUseCase) IsInstitutionalEmail(email string) bool {
	return uc.instDomain != "" && strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+uc.instDomain)
}

// SignInWithGoogle verifies the credential and opens a session. Institutional
// addresses are always let in, creating a profile on first sign-in; any other
// address must already be some profile's personal email.
func (uc *AuthUseCase) SignInWithGoogle(ctx context.Context, req *GoogleSignInRequest, deviceInfo, ipAddress string) (*AuthResponse, error) {
	if err := domain.ValidateStruct(req); err != nil {
		return nil, err
	}

	identity, err := uc.verifier.Verify(ctx, req.Credential)
	if err != nil {
		logger.FromContext(ctx, uc.logger).Warn("Google credential rejected", zap.Error(err))
		return nil, domain.ErrInvalidToken
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" || !identity.EmailVerified {
		return nil, domain.ErrEmailNotAllowed
	}

	profile, isNew, err := uc.resolveProfile(ctx, email, identity)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := uc.createSession(ctx, profile.ID, deviceInfo, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.FromContext(ctx, uc.logger).Info("User signed in",
		zap.String("user_id", profile.ID.String()),
		zap.Bool("new_user", isNew),
	)

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   profile,
		IsNewUser: isNew,
	}, nil
}

func (uc *AuthUseCase) resolveProfile(ctx context.Context, email string, identity *domain.Identity) (*domain.Profile, bool, error) {
	if !uc.IsInstitutionalEmail(email) {
		profile, err := uc.profileRepo.GetByPersonalEmail(ctx, email)
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, false, domain.ErrEmailNotAllowed
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to get profile: %w", err)
		}
		return profile, false, nil
	}

	profile, err := uc.profileRepo.GetByInstitutionalEmail(ctx, email)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, false, fmt.Errorf("failed to get profile: %w", err)
	}

	name := identity.Name
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	var image *string
	if identity.Picture != "" {
		image = &identity.Picture
	}
	profile = domain.NewProfile(name, email, image)
	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		return nil, false, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, true, nil
}

func (uc *AuthUseCase) createSession(ctx context.Context, userID uuid.UUID, deviceInfo, ipAddress string) (string, time.Time, error) {
	now := uc.now()
	expiresAt := now.Add(uc.tokenExpiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	})
	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	hash, err := uc.hashToken(tokenString)
	if err != nil {
		return "", time.Time{}, err
	}
	session := &domain.Session{
		ID:         uuid.New(),
		UserID:     userID,
		TokenHash:  hash,
		DeviceInfo: optional(deviceInfo),
		IPAddress:  optional(ipAddress),
		ExpiresAt:  expiresAt,
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// VerifyToken checks the signature and expiry of tokenString and that its
// session has not been revoked.
func (uc *AuthUseCase) VerifyToken(ctx context.Context, tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return uc.jwtSecret, nil
	}, jwt.WithTimeFunc(uc.now))
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, domain.ErrInvalidToken
	}
	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}

	hash, err := uc.hashToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	session, err := uc.sessionRepo.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return uuid.Nil, domain.ErrSessionNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != userID {
		return uuid.Nil, domain.ErrInvalidToken
	}
	if uc.now().After(session.ExpiresAt) {
		return uuid.Nil, domain.ErrSessionExpired
	}

	return userID, nil
}

// Logout revokes the session behind tokenString.
func (uc *AuthUseCase) Logout(ctx context.Context, tokenString string) error {
	hash, err := uc.hashToken(tokenString)
	if err != nil {
		return err
	}
	return uc.sessionRepo.DeleteByTokenHash(ctx, hash)
}

// Me returns the caller's own profile.
func (uc *AuthUseCase) Me(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return uc.profileRepo.GetByID(ctx, userID)
}

// hashToken is a keyed BLAKE2b-256 of the token; only the hash is stored.
func (uc *AuthUseCase) hashToken(token string) (string, error) {
	h, err := blake2b.New256(uc.hashKey)
	if err != nil {
		return "", fmt.Errorf("failed to init token hash: %w", err)
	}
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil)), nil
}
