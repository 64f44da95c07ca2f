package suggestions

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/pkg/common"
	"github.com/pepoapp/trust-engine/pkg/middleware"
	"github.com/pepoapp/trust-engine/pkg/pagination"
)

// Handler handles HTTP requests for follow suggestions
type Handler struct {
	service      *Service
	defaultLimit int
}

// NewHandler creates a new suggestion handler
func NewHandler(service *Service, defaultLimit int) *Handler {
	return &Handler{service: service, defaultLimit: defaultLimit}
}

// ListSuggestions returns the current user's suggestions
// GET /api/v1/suggestions?include_expired=false
func (h *Handler) ListSuggestions(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	includeExpired, _ := strconv.ParseBool(c.DefaultQuery("include_expired", "false"))
	params := pagination.ParseParams(c)

	items, total, err := h.service.ListSuggestions(c.Request.Context(), userID, includeExpired, params.Limit, params.Offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list suggestions")
		return
	}

	common.SuccessResponseWithMeta(c, items, &common.Meta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	})
}

// MarkViewed marks a suggestion as seen
// POST /api/v1/suggestions/:suggestion_id/viewed
func (h *Handler) MarkViewed(c *gin.Context) {
	h.mark(c, h.service.MarkViewed)
}

// MarkFollowed marks a suggestion as followed
// POST /api/v1/suggestions/:suggestion_id/followed
func (h *Handler) MarkFollowed(c *gin.Context) {
	h.mark(c, h.service.MarkFollowed)
}

// MarkIgnored marks a suggestion as dismissed
// POST /api/v1/suggestions/:suggestion_id/ignored
func (h *Handler) MarkIgnored(c *gin.Context) {
	h.mark(c, h.service.MarkIgnored)
}

func (h *Handler) mark(c *gin.Context, update func(context.Context, uuid.UUID, uuid.UUID) error) {
	suggestionID, err := uuid.Parse(c.Param("suggestion_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid suggestion ID")
		return
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := update(c.Request.Context(), suggestionID, userID); err != nil {
		common.HandleServiceError(c, err, "failed to update suggestion")
		return
	}

	common.SuccessResponse(c, gin.H{"updated": true})
}

// GenerateSuggestions forces regeneration for a user (admin)
// POST /api/v1/admin/suggestions/:user_id/generate
func (h *Handler) GenerateSuggestions(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	items, err := h.service.GenerateSuggestions(c.Request.Context(), userID, limit)
	if err != nil {
		common.HandleServiceError(c, err, "failed to generate suggestions")
		return
	}

	common.SuccessResponse(c, items)
}

// CleanupExpired removes expired suggestions (admin)
// POST /api/v1/admin/suggestions/cleanup
func (h *Handler) CleanupExpired(c *gin.Context) {
	removed, err := h.service.CleanupExpired(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "failed to clean up suggestions")
		return
	}

	common.SuccessResponse(c, gin.H{"removed": removed})
}

// RegisterRoutes registers suggestion routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	user := r.Group("/api/v1/suggestions")
	user.Use(middleware.RequireAuth(jwtSecret))
	{
		user.GET("", h.ListSuggestions)
		user.POST("/:suggestion_id/viewed", h.MarkViewed)
		user.POST("/:suggestion_id/followed", h.MarkFollowed)
		user.POST("/:suggestion_id/ignored", h.MarkIgnored)
	}

	admin := r.Group("/api/v1/admin/suggestions")
	admin.Use(middleware.RequireAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/users/:user_id/generate", h.GenerateSuggestions)
		admin.POST("/cleanup", h.CleanupExpired)
	}
}
