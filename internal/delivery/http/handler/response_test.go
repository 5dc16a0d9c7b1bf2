package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.NewValidationError("city", "is required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("commit: %w", domain.NewValidationError("city", "is required")), http.StatusBadRequest},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"expired session", domain.ErrSessionExpired, http.StatusUnauthorized},
		{"outside email", domain.ErrEmailNotAllowed, http.StatusForbidden},
		{"missing profile", fmt.Errorf("load: %w", domain.ErrProfileNotFound), http.StatusNotFound},
		{"unknown destination type", domain.ErrUnknownDestinationType, http.StatusBadRequest},
		{"incomplete draft", domain.ErrDraftIncomplete, http.StatusBadRequest},
		{"onboarding already finished", domain.ErrOnboardingComplete, http.StatusConflict},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, zap.NewNop(), tt.err, "request failed")

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRespondError_LogsUnexpectedErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, zap.New(core), errors.New("connection refused"), "failed to list users")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to list users"}`, w.Body.String())
	entries := logs.FilterMessage("failed to list users").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "connection refused", entries[0].ContextMap()["error"])
	}
}

func TestRespondError_DoesNotLogExpectedErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, zap.New(core), domain.ErrProfileNotFound, "failed to get profile")

	assert.Equal(t, 0, logs.Len())
}
