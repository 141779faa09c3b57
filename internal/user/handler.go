package user

import (
	"log/slog"
	"net/http"

	"github.com/ngtlab/attendance-dashboard/internal/auth"
	"github.com/ngtlab/attendance-dashboard/internal/transport"
	"github.com/ngtlab/attendance-dashboard/pkg/logger"
)

type ServiceAPI interface {
	GetByID(userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	sessionUser, ok := auth.UserFromContext(r.Context())
	if !ok || sessionUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(sessionUser.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: lookup failed", "user_id", sessionUser.ID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
