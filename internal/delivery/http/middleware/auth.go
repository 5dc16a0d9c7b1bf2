package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/flockdir/flock-backend/internal/delivery/http/handler"
	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// isCredentialError reports whether err is the caller's fault rather than a
// failure of the session store.
func isCredentialError(err error) bool {
	return errors.Is(err, domain.ErrInvalidToken) ||
		errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrSessionExpired) ||
		errors.Is(err, domain.ErrUnauthorized)
}

// tokenFrom reads a bearer token, falling back to the session cookie.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(handler.SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects requests without a live session and stores the caller
// for downstream handlers.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.ErrorResponse{Error: "missing authorization token"})
			return
		}

		userID, err := m.verifier.VerifyToken(c.Request.Context(), token)
		switch {
		case err == nil:
		case isCredentialError(err):
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.ErrorResponse{Error: "unauthorized"})
			return
		default:
			logger.FromGin(c, m.logger).Error("Failed to verify session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, handler.ErrorResponse{Error: "failed to verify session"})
			return
		}

		c.Set(handler.UserIDKey, userID)
		c.Set(handler.TokenKey, token)
		c.Next()
	}
}
