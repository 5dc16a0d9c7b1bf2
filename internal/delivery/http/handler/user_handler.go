package handler

import (
	"context"
	"net/http"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/usecase/directory"
	"github.com/flockdir/flock-backend/internal/usecase/onboarding"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DirectoryService interface {
	ListProfiles(ctx context.Context, viewerID uuid.UUID, q directory.ListQuery) (*directory.ListResult, error)
	GetProfile(ctx context.Context, viewerID, id uuid.UUID) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, callerID, id uuid.UUID, req *directory.UpdateProfileRequest) (*domain.Profile, error)
}

type ProgressSaver interface {
	SaveProgress(ctx context.Context, userID uuid.UUID, req *onboarding.ProgressRequest) error
}

type UserHandler struct {
	directory DirectoryService
	progress  ProgressSaver
	logger    *zap.Logger
}

func NewUserHandler(directory DirectoryService, progress ProgressSaver, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		directory: directory,
		progress:  progress,
		logger:    logger,
	}
}

type ListUsersResponse struct {
	Users []ProfileResponse `json:"users"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	viewer, err := h.directory.GetProfile(ctx, userID, userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to list users")
		return
	}

	q, err := directory.ParseListQuery(c.Request.URL.Query(), viewer)
	if err != nil {
		respondError(c, h.logger, err, "failed to list users")
		return
	}

	result, err := h.directory.ListProfiles(ctx, userID, q)
	if err != nil {
		respondError(c, h.logger, err, "failed to list users")
		return
	}

	c.JSON(http.StatusOK, ListUsersResponse{
		Users: toProfileResponses(result.Users),
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.directory.GetProfile(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to get profile")
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.directory.GetProfile(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err, "failed to get profile")
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// UpdateUser handles PUT /users/:id. The identity check runs before the body
// is read.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if id != userID {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req directory.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.directory.UpdateProfile(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, h.logger, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// SaveOnboardingProgress handles POST /users/onboarding-progress
func (h *UserHandler) SaveOnboardingProgress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req onboarding.ProgressRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.progress.SaveProgress(c.Request.Context(), userID, &req); err != nil {
		respondError(c, h.logger, err, "failed to save progress")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "progress saved"})
}
