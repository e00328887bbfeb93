package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/middleware"
	"github.com/huangang/evalstats/internal/services"
	"github.com/huangang/evalstats/pkg/response"
)

type EntryHandler struct {
	entries *services.EntryService
	flags   *services.FlagService
}

func NewEntryHandler(entries *services.EntryService, flags *services.FlagService) *EntryHandler {
	return &EntryHandler{entries: entries, flags: flags}
}

type createEntryRequest struct {
	ID string `json:"id"`
}

// Create adds an entry to the dataset
// POST /api/entries
func (h *EntryHandler) Create(c *gin.Context) {
	var req createEntryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	entry, err := h.entries.Create(c.Request.Context(), req.ID)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Created(c, entry)
}

// GetByID returns an entry
// GET /api/entries/:id
func (h *EntryHandler) GetByID(c *gin.Context) {
	entry, err := h.entries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, entry)
}

type archiveRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// SetArchived archives or restores an entry
// PUT /api/entries/:id/archive
func (h *EntryHandler) SetArchived(c *gin.Context) {
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.entries.SetArchived(c.Request.Context(), c.Param("id"), *req.Archived)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, entry)
}

type reviewCountRequest struct {
	Delta int64 `json:"delta"`
}

// AdjustReviewCount corrects an entry's review count
// POST /api/entries/:id/review-count
func (h *EntryHandler) AdjustReviewCount(c *gin.Context) {
	var req reviewCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.entries.AdjustReviewCount(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, entry)
}

type raiseFlagRequest struct {
	Reason string `json:"reason"`
}

// RaiseFlag flags an entry
// POST /api/entries/:id/flags
func (h *EntryHandler) RaiseFlag(c *gin.Context) {
	var req raiseFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	flag, err := h.flags.Raise(c.Request.Context(), c.Param("id"), req.Reason, middleware.GetUserID(c))
	if err != nil {
		statsError(c, err)
		return
	}
	response.Created(c, flag)
}

// ResolveFlag deletes a flag
// DELETE /api/flags/:id
func (h *EntryHandler) ResolveFlag(c *gin.Context) {
	if err := h.flags.Resolve(c.Request.Context(), c.Param("id")); err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "flag resolved"})
}
