package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BookingCounter reports destination row counts for the health surface.
type BookingCounter interface {
	Count(ctx context.Context) (int, error)
}

type SystemHandler struct {
	Bookings BookingCounter
}

func (h SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h SystemHandler) DBCheck(c *gin.Context) {
	if h.Bookings == nil {
		RespondError(c, http.StatusInternalServerError, "database not connected", nil)
		return
	}
	count, err := h.Bookings.Count(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "database query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "bookings_in_db": count})
}
