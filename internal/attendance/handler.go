package attendance

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/ngtlab/attendance-dashboard/internal/auth"
	"github.com/ngtlab/attendance-dashboard/internal/transport"
	"github.com/ngtlab/attendance-dashboard/pkg/logger"
)

type ServiceAPI interface {
	HistoryEvents(organizationID string, dto HistoryQueryDTO) ([]*Event, error)
	TodayRecords(organizationID, day string) ([]*Record, error)
	Today() string
	DeleteEvent(organizationID string, id int64) error
	DeleteRecord(organizationID string, dto DeleteRecordDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// HistoryResponse is the payload for the history view: rendered rows plus
// the raw events. The client replaces its whole list with this snapshot.
type HistoryResponse struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Events []EventView `json:"events"`
	Count  int         `json:"count"`
	Limit  int         `json:"limit"`
}

// TodayResponse is the payload for the today view.
type TodayResponse struct {
	Day     string       `json:"day"`
	Records []RecordView `json:"records"`
	Summary TodaySummary `json:"summary"`
}

func (h *Handler) historyQueryFromRequest(r *http.Request) HistoryQueryDTO {
	q := r.URL.Query()
	dto := HistoryQueryDTO{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Status: q.Get("status"),
		UserID: q.Get("user_id"),
	}
	// Both dates default to today, matching the history view's initial state.
	if dto.From == "" {
		dto.From = h.Service.Today()
	}
	if dto.To == "" {
		dto.To = h.Service.Today()
	}
	return dto
}

// GetHistory handles GET /attendance/events.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetHistory: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	dto := h.historyQueryFromRequest(r)

	events, err := h.Service.HistoryEvents(user.OrganizationID, dto)
	if err != nil {
		h.Logger.Error("GetHistory: service error", "error", err, "organization_id", user.OrganizationID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, HistoryResponse{
		From:   dto.From,
		To:     dto.To,
		Events: NewEventViews(events),
		Count:  len(events),
		Limit:  HistoryRowLimit,
	})
}

// DeleteEvent handles DELETE /attendance/events/{id}. On success the
// response carries the refreshed history snapshot for the same filters, so
// the client never has to patch its list locally. On failure the stored data
// and the client's list are both left as they were.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("DeleteEvent: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	eventIDStr := chi.URLParam(r, "id")
	eventID, err := strconv.ParseInt(eventIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("DeleteEvent: invalid event ID", "id", eventIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	if err := h.Service.DeleteEvent(user.OrganizationID, eventID); err != nil {
		h.Logger.Error("DeleteEvent: service error", "error", err, "event_id", eventID)
		h.HandleServiceError(w, err)
		return
	}

	dto := h.historyQueryFromRequest(r)
	events, err := h.Service.HistoryEvents(user.OrganizationID, dto)
	if err != nil {
		h.Logger.Error("DeleteEvent: refresh query failed", "error", err, "organization_id", user.OrganizationID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, HistoryResponse{
		From:   dto.From,
		To:     dto.To,
		Events: NewEventViews(events),
		Count:  len(events),
		Limit:  HistoryRowLimit,
	})
}

// GetToday handles GET /attendance/records/today.
func (h *Handler) GetToday(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetToday: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	day := h.Service.Today()
	records, err := h.Service.TodayRecords(user.OrganizationID, day)
	if err != nil {
		h.Logger.Error("GetToday: service error", "error", err, "organization_id", user.OrganizationID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, TodayResponse{
		Day:     day,
		Records: NewRecordViews(records),
		Summary: Summarize(records),
	})
}

// DeleteRecord handles DELETE /attendance/records. The record is addressed
// by (user_id, day) from the body; the organization always comes from the
// session. The response carries the refreshed list for that day.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("DeleteRecord: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto DeleteRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("DeleteRecord: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.DeleteRecord(user.OrganizationID, dto); err != nil {
		h.Logger.Error("DeleteRecord: service error", "error", err,
			"user_id", dto.UserID, "day", dto.Day)
		h.HandleServiceError(w, err)
		return
	}

	records, err := h.Service.TodayRecords(user.OrganizationID, dto.Day)
	if err != nil {
		h.Logger.Error("DeleteRecord: refresh query failed", "error", err, "organization_id", user.OrganizationID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, TodayResponse{
		Day:     dto.Day,
		Records: NewRecordViews(records),
		Summary: Summarize(records),
	})
}
