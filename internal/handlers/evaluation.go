package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/services"
	"github.com/huangang/evalstats/pkg/response"
)

type EvaluationHandler struct {
	evaluations *services.EvaluationService
	sessions    *services.SessionService
}

func NewEvaluationHandler(evaluations *services.EvaluationService, sessions *services.SessionService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations, sessions: sessions}
}

// Submit records one evaluation
// POST /api/evaluations
func (h *EvaluationHandler) Submit(c *gin.Context) {
	var req services.SubmitEvaluationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	eval, err := h.evaluations.Submit(c.Request.Context(), req)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Created(c, eval)
}

type createSessionRequest struct {
	Demographics models.Demographics `json:"demographics"`
}

// CreateSession starts a participant session
// POST /api/sessions
func (h *EvaluationHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	session, err := h.sessions.Create(c.Request.Context(), req.Demographics)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Created(c, session)
}
