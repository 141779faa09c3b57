package ingest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ngtlab/attendance-dashboard/internal"
	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	"github.com/ngtlab/attendance-dashboard/internal/transport"
)

// ServiceAPI is what the webhook handler needs from the ingest service.
type ServiceAPI interface {
	Ingest(ctx context.Context, dto DeviceEventDTO) (*attendance.Event, error)
}

// WebhookHandler accepts attendance events pushed by devices. Callers
// authenticate with a shared secret header instead of a user session.
type WebhookHandler struct {
	*transport.BaseHandler
	service ServiceAPI
	secret  string
	logger  *slog.Logger
}

const secretHeader = "X-Webhook-Secret"

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		secret:      secret,
		logger:      logger,
	}
}

type webhookResponse struct {
	Status  string `json:"status"`
	EventID int64  `json:"event_id"`
}

func (h *WebhookHandler) HandleDeviceEvent(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(secretHeader)), []byte(h.secret)) != 1 {
		h.logger.Warn("webhook rejected: bad secret", "remote_addr", r.RemoteAddr)
		h.HandleServiceError(w, internal.ErrInvalidWebhookSecret)
		return
	}

	var dto DeviceEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error("invalid webhook payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.service.Ingest(r.Context(), dto)
	if err != nil {
		h.logger.Error("failed to ingest device event", "error", err,
			"organization_id", dto.OrganizationID,
			"user_id", dto.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, webhookResponse{
		Status:  "accepted",
		EventID: event.ID,
	})
}
