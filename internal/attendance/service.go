package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngtlab/attendance-dashboard/internal/core/events"
)

// Repository defines the data access methods for attendance rows. Every
// method takes the caller's organization id; implementations must scope all
// reads and deletes to it, mirroring the row-level security policies on the
// underlying tables.
type Repository interface {
	EventsInWindow(organizationID string, query EventQuery) ([]*Event, error)
	DeleteEventByID(organizationID string, id int64) (int64, error)
	RecordsForDay(organizationID, day string) ([]*Record, error)
	DeleteRecordByKey(organizationID, userID, day string) (int64, error)
}

// Service handles the dashboard's read and delete flows.
type Service struct {
	repo     Repository
	eventBus *events.EventBus
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// HistoryEvents runs the history query: inclusive UTC day window on
// event_ts, optional trimmed equality filters, newest first, capped at
// HistoryRowLimit rows.
func (s *Service) HistoryEvents(organizationID string, dto HistoryQueryDTO) ([]*Event, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("history query validation failed", "error", err, "organization_id", organizationID)
		return nil, err
	}

	from, to, err := dto.Window()
	if err != nil {
		return nil, err
	}

	query := EventQuery{
		From:   from,
		To:     to,
		Status: dto.TrimmedStatus(),
		UserID: dto.TrimmedUserID(),
		Limit:  HistoryRowLimit,
	}

	events, err := s.repo.EventsInWindow(organizationID, query)
	if err != nil {
		s.logger.Error("failed to query history events", "error", err, "organization_id", organizationID)
		return nil, err
	}

	return events, nil
}

// TodayRecords returns the daily records for the given calendar day, newest
// activity first.
func (s *Service) TodayRecords(organizationID, day string) ([]*Record, error) {
	if day == "" {
		day = s.now().Format(DayLayout)
	}

	records, err := s.repo.RecordsForDay(organizationID, day)
	if err != nil {
		s.logger.Error("failed to query records", "error", err, "organization_id", organizationID, "day", day)
		return nil, err
	}

	return records, nil
}

// Today returns the current calendar date in the server's local zone.
func (s *Service) Today() string {
	return s.now().Format(DayLayout)
}

// DeleteEvent removes one audit event by id. The displayed list is refreshed
// by the caller re-running the query; nothing is patched locally.
func (s *Service) DeleteEvent(organizationID string, id int64) error {
	affected, err := s.repo.DeleteEventByID(organizationID, id)
	if err != nil {
		s.logger.Error("failed to delete event", "error", err, "organization_id", organizationID, "event_id", id)
		return err
	}
	if affected == 0 {
		return ErrEventNotFound
	}

	s.logger.Info("attendance event deleted", "organization_id", organizationID, "event_id", id)
	return nil
}

// DeleteRecord removes one daily record by its composite key. The
// organization half of the key always comes from the session.
func (s *Service) DeleteRecord(organizationID string, dto DeleteRecordDTO) error {
	if err := dto.Validate(); err != nil {
		s.logger.Error("delete record validation failed", "error", err, "organization_id", organizationID)
		return err
	}

	affected, err := s.repo.DeleteRecordByKey(organizationID, dto.UserID, dto.Day)
	if err != nil {
		s.logger.Error("failed to delete record", "error", err,
			"organization_id", organizationID,
			"user_id", dto.UserID,
			"day", dto.Day)
		return err
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	if s.eventBus != nil {
		s.eventBus.Publish(context.Background(), events.NewRecordDeletedEvent(organizationID, dto.UserID, dto.Day))
	}

	s.logger.Info("attendance record deleted",
		"organization_id", organizationID,
		"user_id", dto.UserID,
		"day", dto.Day)
	return nil
}
