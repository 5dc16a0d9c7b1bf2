package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/usecase/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "flock_session"

// TokenKey is where the auth middleware stores the raw token.
const TokenKey = "token"

type AuthService interface {
	SignInWithGoogle(ctx context.Context, req *auth.GoogleSignInRequest, deviceInfo, ipAddress string) (*auth.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

type AuthHandler struct {
	authService  AuthService
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthHandler(authService AuthService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// AuthResponse is the response structure
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt int64           `json:"expiresAt"`
	User      ProfileResponse `json:"user"`
	IsNewUser bool            `json:"isNewUser"`
}

// GoogleSignIn handles POST /auth/google
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req auth.GoogleSignInRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.SignInWithGoogle(c.Request.Context(), &req, c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		respondError(c, h.logger, err, "authentication failed")
		return
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, result.Token, maxAge, "/", "", h.secureCookie, true)

	c.JSON(http.StatusOK, AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Unix(),
		User:      toProfileResponse(result.Profile),
		IsNewUser: result.IsNewUser,
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(TokenKey)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization token"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err, "logout failed")
		return
	}

	c.SetCookie(SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, SuccessResponse{Message: "logged out successfully"})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to get profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       toProfileResponse(profile),
		"resumeStep": profile.ResumeStep(),
	})
}
