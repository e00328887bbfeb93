package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/middleware"
	"github.com/huangang/evalstats/internal/stats"
	"github.com/huangang/evalstats/pkg/response"
)

// RPCHandler serves the callable functions under /api/rpc.
type RPCHandler struct {
	deletion *stats.DeletionWorkflow
}

func NewRPCHandler(deletion *stats.DeletionWorkflow) *RPCHandler {
	return &RPCHandler{deletion: deletion}
}

// deleteEntryRequest accepts both {"entryId": ...} and the callable
// envelope {"data": {"entryId": ...}}. EntryID stays untyped so the
// workflow can reject non-string ids itself.
type deleteEntryRequest struct {
	EntryID any `json:"entryId"`
	Data    *struct {
		EntryID any `json:"entryId"`
	} `json:"data"`
}

// DeleteEntry removes an entry with its evaluations and flags.
// POST /api/rpc/deleteEntry
func (h *RPCHandler) DeleteEntry(c *gin.Context) {
	// A malformed body leaves entryId unset; the workflow checks the
	// caller before it reports the missing id.
	var req deleteEntryRequest
	if c.Request.Body != nil {
		_ = json.NewDecoder(c.Request.Body).Decode(&req)
	}
	entryID := req.EntryID
	if req.Data != nil {
		entryID = req.Data.EntryID
	}

	result, err := h.deletion.DeleteEntry(c.Request.Context(), middleware.CallerFrom(c), entryID)
	if err != nil {
		statsError(c, err)
		return
	}
	response.Success(c, result)
}
