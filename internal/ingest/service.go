package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ngtlab/attendance-dashboard/internal"
	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	"github.com/ngtlab/attendance-dashboard/internal/core/events"
)

// Repository is the subset of attendance storage the ingester writes through.
type Repository interface {
	InsertEvent(event *attendance.Event) error
	GetRecord(organizationID, userID, day string) (*attendance.Record, error)
	SaveRecord(record *attendance.Record) error
}

// DeviceEventDTO is the payload pushed by attendance devices. event_ts is
// accepted as RFC 3339; the day used for the record key is derived from it
// in UTC.
type DeviceEventDTO struct {
	OrganizationID string   `json:"organization_id"`
	UserID         string   `json:"user_id"`
	EventType      string   `json:"event_type"`
	Status         string   `json:"status"`
	Score          *float64 `json:"score,omitempty"`
	FullName       *string  `json:"full_name,omitempty"`
	UserType       *string  `json:"user_type,omitempty"`
	Role           *string  `json:"role,omitempty"`
	EventTS        string   `json:"event_ts"`
}

func (d *DeviceEventDTO) Validate() error {
	if strings.TrimSpace(d.OrganizationID) == "" {
		return internal.NewValidationError("organization_id is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.UserID) == "" {
		return internal.NewValidationError("user_id is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.Status) == "" {
		return internal.NewValidationError("status is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.EventTS) == "" {
		return internal.NewValidationError("event_ts is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// Service persists device events and folds each one into the daily record
// for its (organization, user, day) key.
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

// Ingest appends the event to the audit log and updates the daily aggregate.
// Returns the stored event with its generated id.
func (s *Service) Ingest(ctx context.Context, dto DeviceEventDTO) (*attendance.Event, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	eventTS, err := time.Parse(time.RFC3339, strings.TrimSpace(dto.EventTS))
	if err != nil {
		s.logger.Error("unparsable event timestamp", "error", err, "event_ts", dto.EventTS)
		return nil, internal.ErrInvalidEventTimestamp
	}

	event := &attendance.Event{
		OrganizationID: strings.TrimSpace(dto.OrganizationID),
		UserID:         strings.TrimSpace(dto.UserID),
		EventType:      strings.TrimSpace(dto.EventType),
		Status:         strings.TrimSpace(dto.Status),
		Score:          dto.Score,
		FullName:       dto.FullName,
		UserType:       dto.UserType,
		Role:           dto.Role,
		EventTS:        eventTS,
		ReceivedAt:     s.now(),
	}
	if event.EventType == "" {
		event.EventType = event.Status
	}

	if err := s.repo.InsertEvent(event); err != nil {
		s.logger.Error("failed to insert attendance event", "error", err,
			"organization_id", event.OrganizationID,
			"user_id", event.UserID)
		return nil, err
	}

	if err := s.foldIntoRecord(event); err != nil {
		// The audit row is already committed; the next event for this key
		// will rebuild the aggregate, so the ingest still counts.
		s.logger.Error("failed to update daily record", "error", err,
			"organization_id", event.OrganizationID,
			"user_id", event.UserID)
	}

	if s.eventBus != nil {
		busEvent := events.NewAttendanceReceivedEvent(event.ID, event.OrganizationID, event.UserID, event.Status)
		s.eventBus.Publish(ctx, busEvent)
	}

	s.logger.Info("attendance event ingested",
		"event_id", event.ID,
		"organization_id", event.OrganizationID,
		"user_id", event.UserID,
		"status", event.Status)

	return event, nil
}

// foldIntoRecord applies one event to the daily aggregate: the first present
// sets check-in, any checkout advances check-out, and last_status/last_ts
// move forward only when the event is newer than what the record has seen.
func (s *Service) foldIntoRecord(event *attendance.Event) error {
	day := event.EventTS.UTC().Format(attendance.DayLayout)

	record, err := s.repo.GetRecord(event.OrganizationID, event.UserID, day)
	if err != nil {
		return err
	}

	if record == nil {
		record = &attendance.Record{
			OrganizationID: event.OrganizationID,
			UserID:         event.UserID,
			Day:            day,
			LastStatus:     event.Status,
			LastTS:         event.EventTS,
		}
	}

	switch event.Status {
	case attendance.StatusPresent:
		if record.CheckInTS == nil || event.EventTS.Before(*record.CheckInTS) {
			ts := event.EventTS
			record.CheckInTS = &ts
		}
	case attendance.StatusCheckout:
		if record.CheckOutTS == nil || event.EventTS.After(*record.CheckOutTS) {
			ts := event.EventTS
			record.CheckOutTS = &ts
		}
	}

	if !event.EventTS.Before(record.LastTS) {
		record.LastStatus = event.Status
		record.LastTS = event.EventTS
	}

	// display fields follow the newest event that carries them
	if event.FullName != nil {
		record.FullName = event.FullName
	}
	if event.UserType != nil {
		record.UserType = event.UserType
	}
	if event.Role != nil {
		record.Role = event.Role
	}
	if event.Score != nil {
		record.Score = event.Score
	}

	return s.repo.SaveRecord(record)
}
