package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/services"
	"github.com/huangang/evalstats/pkg/response"
)

// StatsHandler serves the aggregate documents, the settings and the audit log.
type StatsHandler struct {
	stats    *services.StatsService
	settings *services.SettingsService
	audit    *services.AuditService
}

func NewStatsHandler(stats *services.StatsService, settings *services.SettingsService, audit *services.AuditService) *StatsHandler {
	return &StatsHandler{stats: stats, settings: settings, audit: audit}
}

// GET /api/stats/overview
func (h *StatsHandler) Overview(c *gin.Context) {
	doc, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, doc)
}

// GET /api/stats/responses
func (h *StatsHandler) Responses(c *gin.Context) {
	doc, err := h.stats.Responses(c.Request.Context())
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, doc)
}

// GET /api/stats/demographics
func (h *StatsHandler) Demographics(c *gin.Context) {
	doc, err := h.stats.Demographics(c.Request.Context())
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, doc)
}

// GET /api/settings
func (h *StatsHandler) GetSettings(c *gin.Context) {
	doc, err := h.settings.Get(c.Request.Context())
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, doc)
}

type targetReviewsRequest struct {
	MinTargetReviewsPerEntry int64 `json:"minTargetReviewsPerEntry"`
}

// SetTargetReviews changes the fully-reviewed threshold
// PUT /api/settings/target-reviews
func (h *StatsHandler) SetTargetReviews(c *gin.Context) {
	var req targetReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	doc, err := h.settings.SetTargetReviews(c.Request.Context(), req.MinTargetReviewsPerEntry)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, doc)
}

// AuditLogs lists recent audit records
// GET /api/audit-logs?event_type=entry_deleted&limit=50
func (h *StatsHandler) AuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audit.List(c.Request.Context(), c.Query("event_type"), limit)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, logs)
}
