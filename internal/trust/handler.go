package trust

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/pkg/common"
	"github.com/pepoapp/trust-engine/pkg/middleware"
	"github.com/pepoapp/trust-engine/pkg/pagination"
	"github.com/pepoapp/trust-engine/pkg/validation"
)

// Handler handles HTTP requests for trust scores
type Handler struct {
	service *Service
}

// NewHandler creates a new trust handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetTrustScore returns a user's trust score, recomputing if stale
// GET /api/v1/trust/:user_id
func (h *Handler) GetTrustScore(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	score, err := h.service.GetTrustScore(c.Request.Context(), userID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to get trust score")
		return
	}

	common.SuccessResponse(c, score)
}

// GetTrustScores returns stored scores for a batch of users
// POST /api/v1/trust/batch
func (h *Handler) GetTrustScores(c *gin.Context) {
	var req struct {
		UserIDs []uuid.UUID `json:"user_ids" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			common.ErrorResponse(c, http.StatusBadRequest, validation.NewValidationError(verrs).Error())
			return
		}
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	scores, err := h.service.GetTrustScores(c.Request.Context(), req.UserIDs)
	if err != nil {
		common.HandleServiceError(c, err, "failed to get trust scores")
		return
	}

	common.SuccessResponse(c, scores)
}

// RecomputeTrustScore forces a fresh computation (admin)
// POST /api/v1/admin/trust/:user_id/recompute
func (h *Handler) RecomputeTrustScore(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	score, err := h.service.ComputeTrustScore(c.Request.Context(), userID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to recompute trust score")
		return
	}

	common.SuccessResponse(c, score)
}

// GetLevelDistribution returns the trust tier distribution (admin)
// GET /api/v1/admin/trust/distribution
func (h *Handler) GetLevelDistribution(c *gin.Context) {
	distribution, err := h.service.GetLevelDistribution(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "failed to get level distribution")
		return
	}

	common.SuccessResponse(c, distribution)
}

// GetTopScores lists the highest trust scores (admin)
// GET /api/v1/admin/trust/top
func (h *Handler) GetTopScores(c *gin.Context) {
	params := pagination.ParseParams(c)

	scores, total, err := h.service.GetTopScores(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to get top scores")
		return
	}

	common.SuccessResponseWithMeta(c, scores, &common.Meta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	})
}

// RegisterRoutes registers trust score routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	scores := r.Group("/api/v1/trust")
	scores.Use(middleware.RequireAuth(jwtSecret))
	{
		scores.GET("/:user_id", h.GetTrustScore)
		scores.POST("/batch", h.GetTrustScores)
	}

	admin := r.Group("/api/v1/admin/trust")
	admin.Use(middleware.RequireAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/:user_id/recompute", h.RecomputeTrustScore)
		admin.GET("/distribution", h.GetLevelDistribution)
		admin.GET("/top", h.GetTopScores)
	}
}
