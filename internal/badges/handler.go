package badges

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/pkg/common"
	"github.com/pepoapp/trust-engine/pkg/middleware"
)

// Handler handles HTTP requests for badges
type Handler struct {
	service *Service
}

// NewHandler creates a new badge handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListBadges returns the badge catalog
// GET /api/v1/badges
func (h *Handler) ListBadges(c *gin.Context) {
	common.SuccessResponse(c, h.service.ListBadges())
}

// GetSubjectBadges lists a subject's awarded badges
// GET /api/v1/badges/subjects/:subject_id
func (h *Handler) GetSubjectBadges(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject ID")
		return
	}

	assignments, err := h.service.GetSubjectBadges(c.Request.Context(), subjectID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to get subject badges")
		return
	}

	common.SuccessResponse(c, assignments)
}

// EvaluateBadges runs badge evaluation for a subject (admin)
// POST /api/v1/admin/badges/subjects/:subject_id/evaluate
func (h *Handler) EvaluateBadges(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject ID")
		return
	}

	subjectType := SubjectType(c.DefaultQuery("subject_type", string(SubjectUser)))
	if subjectType != SubjectUser && subjectType != SubjectNGO {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject type")
		return
	}

	awarded, err := h.service.EvaluateBadges(c.Request.Context(), subjectID, subjectType)
	if err != nil {
		common.HandleServiceError(c, err, "failed to evaluate badges")
		return
	}

	common.SuccessResponse(c, awarded)
}

// GetBadgeCounts returns award counts per badge (admin)
// GET /api/v1/admin/badges/counts
func (h *Handler) GetBadgeCounts(c *gin.Context) {
	counts, err := h.service.GetBadgeCounts(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "failed to get badge counts")
		return
	}

	common.SuccessResponse(c, counts)
}

// RegisterRoutes registers badge routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	public := r.Group("/api/v1/badges")
	{
		public.GET("", h.ListBadges)
		public.GET("/subjects/:subject_id", h.GetSubjectBadges)
	}

	admin := r.Group("/api/v1/admin/badges")
	admin.Use(middleware.RequireAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/subjects/:subject_id/evaluate", h.EvaluateBadges)
		admin.GET("/counts", h.GetBadgeCounts)
	}
}
