package handlers

import (
	"net/http"

	"bookeosync/internal/http/middleware"
	"bookeosync/internal/utils"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the manual "run incremental sync" entry point used by
// operators and external schedulers.
type SyncHandler struct {
	Trigger SyncEnqueuer
}

func (h SyncHandler) Run(c *gin.Context) {
	if h.Trigger == nil {
		RespondError(c, http.StatusServiceUnavailable, "sync worker not running", nil)
		return
	}
	queued := h.Trigger.Enqueue("manual")
	state := "queued"
	if !queued {
		state = "coalesced"
	}
	utils.LogEvent(middleware.GetRequestID(c), "sync", "trigger_requested", state)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "queued": queued})
}
