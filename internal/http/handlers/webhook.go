package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bookeosync/internal/bookeo"
	"bookeosync/internal/config"
	"bookeosync/internal/domain/models"
	"bookeosync/internal/http/middleware"
	"bookeosync/internal/services"
	"bookeosync/internal/utils"
	"bookeosync/internal/webhook"

	"github.com/gin-gonic/gin"
)

// BookingUpserter persists one webhook-delivered booking.
type BookingUpserter interface {
	Upsert(ctx context.Context, row models.BookingRow) error
}

// SyncEnqueuer queues an incremental sync run.
type SyncEnqueuer interface {
	Enqueue(reason string) bool
}

// WebhookHandler receives provider callbacks for booking created/updated
// events. The provider expects a 2xx within 5 seconds, so the handler only
// upserts the delivered item and queues the catch-up sync for the worker.
type WebhookHandler struct {
	Env      config.Env
	Bookings BookingUpserter
	Trigger  SyncEnqueuer
	Now      func() time.Time
}

type webhookPayload struct {
	Item json.RawMessage `json:"item"`
}

func (h WebhookHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h WebhookHandler) Receive(c *gin.Context) {
	if h.Env.BookeoSecretKey == "" || h.Env.BookeoWebhookURL == "" {
		RespondError(c, http.StatusInternalServerError,
			"server misconfigured: BOOKEO_SECRET_KEY or BOOKEO_WEBHOOK_URL not set", nil)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable body", err)
		return
	}

	ok := webhook.VerifySignature(
		body,
		c.GetHeader(webhook.HeaderTimestamp),
		c.GetHeader(webhook.HeaderMessageID),
		c.GetHeader(webhook.HeaderSignature),
		h.Env.BookeoWebhookURL,
		h.Env.BookeoSecretKey,
		webhook.DefaultTolerance,
		h.now(),
	)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if len(payload.Item) == 0 {
		RespondError(c, http.StatusBadRequest, "missing item in payload", nil)
		return
	}

	var b bookeo.Booking
	if err := json.Unmarshal(payload.Item, &b); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid booking item", err)
		return
	}
	b.Raw = payload.Item

	row := services.MapBooking(b)
	if row.BookingNumber == "" {
		RespondError(c, http.StatusBadRequest, "booking without bookingNumber", nil)
		return
	}

	if err := h.Bookings.Upsert(c.Request.Context(), row); err != nil {
		RespondError(c, http.StatusInternalServerError, "database error", err)
		return
	}

	queued := false
	if h.Trigger != nil {
		queued = h.Trigger.Enqueue("webhook:" + row.BookingNumber)
	}
	utils.LogEvent(middleware.GetRequestID(c), "webhook", "received",
		"booking="+row.BookingNumber)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "booking_number": row.BookingNumber, "sync_queued": queued})
}
