package attendance

import (
	"time"

	"github.com/ngtlab/attendance-dashboard/internal"
	attendanceDatamodel "github.com/ngtlab/attendance-dashboard/internal/core/datamodel/attendance"
)

// Event is one row of the attendance audit log. Rows are written by the
// ingestion webhook and removed only through an explicit dashboard delete.
type Event struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	EventType      string    `json:"event_type"`
	Status         string    `json:"status"`
	Score          *float64  `json:"score,omitempty"`
	FullName       *string   `json:"full_name,omitempty"`
	UserType       *string   `json:"user_type,omitempty"`
	Role           *string   `json:"role,omitempty"`
	EventTS        time.Time `json:"event_ts"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Record is the daily aggregate per (organization, user, day).
type Record struct {
	OrganizationID string     `json:"organization_id"`
	UserID         string     `json:"user_id"`
	Day            string     `json:"day"`
	CheckInTS      *time.Time `json:"check_in_ts,omitempty"`
	CheckOutTS     *time.Time `json:"check_out_ts,omitempty"`
	LastStatus     string     `json:"last_status"`
	LastTS         time.Time  `json:"last_ts"`
	FullName       *string    `json:"full_name,omitempty"`
	UserType       *string    `json:"user_type,omitempty"`
	Role           *string    `json:"role,omitempty"`
	Score          *float64   `json:"score,omitempty"`
}

const (
	// Status values the dashboard distinguishes. The column itself is an
	// open string enum; anything else renders as neutral.
	StatusPresent  = "present"
	StatusCheckout = "checkout"

	// HistoryRowLimit caps every history query.
	HistoryRowLimit = 500

	// DayLayout is the calendar-date form used for record keys and filters.
	DayLayout = "2006-01-02"
)

var (
	ErrEventNotFound  = internal.ErrEventNotFound
	ErrRecordNotFound = internal.ErrRecordNotFound
)

func ToEventDataModel(e *Event) *attendanceDatamodel.Event {
	return &attendanceDatamodel.Event{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		UserID:         e.UserID,
		EventType:      e.EventType,
		Status:         e.Status,
		Score:          e.Score,
		FullName:       e.FullName,
		UserType:       e.UserType,
		Role:           e.Role,
		EventTS:        e.EventTS,
		ReceivedAt:     e.ReceivedAt,
	}
}

func EventFromDataModel(e *attendanceDatamodel.Event) *Event {
	return &Event{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		UserID:         e.UserID,
		EventType:      e.EventType,
		Status:         e.Status,
		Score:          e.Score,
		FullName:       e.FullName,
		UserType:       e.UserType,
		Role:           e.Role,
		EventTS:        e.EventTS,
		ReceivedAt:     e.ReceivedAt,
	}
}

func EventsFromDataModelSlice(events []*attendanceDatamodel.Event) []*Event {
	result := make([]*Event, len(events))
	for i, e := range events {
		result[i] = EventFromDataModel(e)
	}
	return result
}

func ToRecordDataModel(r *Record) *attendanceDatamodel.Record {
	return &attendanceDatamodel.Record{
		OrganizationID: r.OrganizationID,
		UserID:         r.UserID,
		Day:            r.Day,
		CheckInTS:      r.CheckInTS,
		CheckOutTS:     r.CheckOutTS,
		LastStatus:     r.LastStatus,
		LastTS:         r.LastTS,
		FullName:       r.FullName,
		UserType:       r.UserType,
		Role:           r.Role,
		Score:          r.Score,
	}
}

func RecordFromDataModel(r *attendanceDatamodel.Record) *Record {
	return &Record{
		OrganizationID: r.OrganizationID,
		UserID:         r.UserID,
		Day:            r.Day,
		CheckInTS:      r.CheckInTS,
		CheckOutTS:     r.CheckOutTS,
		LastStatus:     r.LastStatus,
		LastTS:         r.LastTS,
		FullName:       r.FullName,
		UserType:       r.UserType,
		Role:           r.Role,
		Score:          r.Score,
	}
}

func RecordsFromDataModelSlice(records []*attendanceDatamodel.Record) []*Record {
	result := make([]*Record, len(records))
	for i, r := range records {
		result[i] = RecordFromDataModel(r)
	}
	return result
}
