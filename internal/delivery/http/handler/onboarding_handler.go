package handler

import (
	"context"
	"net/http"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/usecase/onboarding"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OnboardingService interface {
	GetState(ctx context.Context, userID uuid.UUID) (*onboarding.State, error)
	SubmitClassYear(ctx context.Context, userID uuid.UUID, req *onboarding.ClassYearRequest) (*onboarding.State, error)
	SubmitPostGradType(ctx context.Context, userID uuid.UUID, req *onboarding.PostGradTypeRequest) (*onboarding.State, error)
	SubmitDetails(ctx context.Context, userID uuid.UUID, req *onboarding.DetailsRequest) (*onboarding.State, error)
	SubmitLocation(ctx context.Context, userID uuid.UUID, req *onboarding.LocationRequest) (*onboarding.State, error)
	SubmitVisibility(ctx context.Context, userID uuid.UUID, req *onboarding.VisibilityRequest) (*onboarding.State, error)
	Submit(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Commit(ctx context.Context, userID uuid.UUID, draft *domain.Draft) (*domain.Profile, error)
}

type OnboardingHandler struct {
	onboarding OnboardingService
	logger     *zap.Logger
}

func NewOnboardingHandler(onboarding OnboardingService, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		onboarding: onboarding,
		logger:     logger,
	}
}

// GetState handles GET /onboarding
func (h *OnboardingHandler) GetState(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, err := h.onboarding.GetState(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to load onboarding")
		return
	}
	c.JSON(http.StatusOK, state)
}

// step binds the body into a fresh Req and hands it to submit.
func step[Req any](h *OnboardingHandler, submit func(ctx context.Context, userID uuid.UUID, req *Req) (*onboarding.State, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		req := new(Req)
		if !bindJSON(c, req) {
			return
		}

		state, err := submit(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, h.logger, err, "failed to save onboarding step")
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// ClassYear handles POST /onboarding/steps/class-year
func (h *OnboardingHandler) ClassYear() gin.HandlerFunc {
	return step(h, h.onboarding.SubmitClassYear)
}

// PostGradType handles POST /onboarding/steps/post-grad-type
func (h *OnboardingHandler) PostGradType() gin.HandlerFunc {
	return step(h, h.onboarding.SubmitPostGradType)
}

// Details handles POST /onboarding/steps/details
func (h *OnboardingHandler) Details() gin.HandlerFunc {
	return step(h, h.onboarding.SubmitDetails)
}

// Location handles POST /onboarding/steps/location
func (h *OnboardingHandler) Location() gin.HandlerFunc {
	return step(h, h.onboarding.SubmitLocation)
}

// Visibility handles POST /onboarding/steps/visibility
func (h *OnboardingHandler) Visibility() gin.HandlerFunc {
	return step(h, h.onboarding.SubmitVisibility)
}

// Submit handles POST /onboarding/submit, committing the stored draft.
func (h *OnboardingHandler) Submit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.onboarding.Submit(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to complete onboarding")
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// Commit handles POST /onboarding with a fully assembled draft.
func (h *OnboardingHandler) Commit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var draft domain.Draft
	if !bindJSON(c, &draft) {
		return
	}

	profile, err := h.onboarding.Commit(c.Request.Context(), userID, &draft)
	if err != nil {
		respondError(c, h.logger, err, "failed to complete onboarding")
		return
	}
	c.JSON(http.StatusCreated, toProfileResponse(profile))
}
