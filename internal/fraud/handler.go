package fraud

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

// Handler handles HTTP requests for fraud triage
type Handler struct {
	service *Service
}

// NewHandler creates a new fraud handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// EvaluateFraudRisk runs a fresh risk evaluation for a user (admin)
// POST /api/v1/admin/fraud/users/:user_id/evaluate
func (h *Handler) EvaluateFraudRisk(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	assessment, err := h.service.EvaluateFraudRisk(c.Request.Context(), userID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to evaluate fraud risk")
		return
	}

	common.SuccessResponse(c, assessment)
}

// GetFlag returns a single flag (admin)
// GET /api/v1/admin/fraud/flags/:flag_id
func (h *Handler) GetFlag(c *gin.Context) {
	flagID, err := uuid.Parse(c.Param("flag_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid flag ID")
		return
	}

	flag, err := h.service.GetFlag(c.Request.Context(), flagID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to get fraud flag")
		return
	}

	common.SuccessResponse(c, flag)
}

// ListPendingFlags lists open flags for triage (admin)
// GET /api/v1/admin/fraud/flags
func (h *Handler) ListPendingFlags(c *gin.Context) {
	params := pagination.ParseParams(c)

	flags, total, err := h.service.ListPendingFlags(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list pending flags")
		return
	}

	common.SuccessResponseWithMeta(c, flags, &common.Meta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	})
}

// ResolveFlag settles a pending flag (admin)
// POST /api/v1/admin/fraud/flags/:flag_id/resolve
func (h *Handler) ResolveFlag(c *gin.Context) {
	flagID, err := uuid.Parse(c.Param("flag_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid flag ID")
		return
	}

	var req ResolveFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			common.ErrorResponse(c, http.StatusBadRequest, validation.NewValidationError(verrs).Error())
			return
		}
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	adminID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	flag, err := h.service.ResolveFlag(c.Request.Context(), flagID, &req, adminID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to resolve fraud flag")
		return
	}

	common.SuccessResponse(c, flag)
}

// ListUserFlags lists a user's flag history (admin)
// GET /api/v1/admin/fraud/users/:user_id/flags
func (h *Handler) ListUserFlags(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	params := pagination.ParseParams(c)

	flags, total, err := h.service.ListFlagsByUser(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list user flags")
		return
	}

	common.SuccessResponseWithMeta(c, flags, &common.Meta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	})
}

// GetStats summarizes flag volumes (admin)
// GET /api/v1/admin/fraud/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "failed to get fraud stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// RegisterRoutes registers fraud triage routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	admin := r.Group("/api/v1/admin/fraud")
	admin.Use(middleware.RequireAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/users/:user_id/evaluate", h.EvaluateFraudRisk)
		admin.GET("/users/:user_id/flags", h.ListUserFlags)
		admin.GET("/flags", h.ListPendingFlags)
		admin.GET("/flags/:flag_id", h.GetFlag)
		admin.POST("/flags/:flag_id/resolve", h.ResolveFlag)
		admin.GET("/stats", h.GetStats)
	}
}
