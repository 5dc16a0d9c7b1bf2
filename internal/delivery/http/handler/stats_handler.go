package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/usecase/stats"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsService interface {
	TopDestinations(ctx context.Context, q stats.TopDestinationsQuery) ([]domain.Destination, error)
	Locations(ctx context.Context, state string, classYear *int) ([]domain.LocationCount, error)
}

type StatsHandler struct {
	stats  StatsService
	logger *zap.Logger
}

func NewStatsHandler(stats StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger,
	}
}

func classYearParam(c *gin.Context) (*int, bool) {
	raw := c.Query("classYear")
	if raw == "" {
		return nil, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, nil, domain.NewValidationError("classYear", "must be a year"), "")
		return nil, false
	}
	return &year, true
}

// TopDestinations handles GET /stats/top-destinations
func (h *StatsHandler) TopDestinations(c *gin.Context) {
	classYear, ok := classYearParam(c)
	if !ok {
		return
	}
	expanded, _ := strconv.ParseBool(c.Query("expanded"))

	destinations, err := h.stats.TopDestinations(c.Request.Context(), stats.TopDestinationsQuery{
		Type:      c.Query("type"),
		Limit:     c.Query("limit"),
		Expanded:  expanded,
		ClassYear: classYear,
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to load top destinations")
		return
	}
	c.JSON(http.StatusOK, destinations)
}

// Locations handles GET /locations
func (h *StatsHandler) Locations(c *gin.Context) {
	classYear, ok := classYearParam(c)
	if !ok {
		return
	}

	counts, err := h.stats.Locations(c.Request.Context(), c.Query("state"), classYear)
	if err != nil {
		respondError(c, h.logger, err, "failed to load locations")
		return
	}
	c.JSON(http.StatusOK, counts)
}
