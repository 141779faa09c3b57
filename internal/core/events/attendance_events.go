package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAttendanceReceived = "attendance.event.received"
	EventTypeRecordDeleted      = "attendance.record.deleted"
)

type AttendanceReceivedEvent struct {
	BaseEvent
	AttendanceEventID int64  `json:"attendance_event_id"`
	OrganizationID    string `json:"organization_id"`
	UserID            string `json:"user_id"`
	Status            string `json:"status"`
}

func NewAttendanceReceivedEvent(attendanceEventID int64, organizationID, userID, status string) *AttendanceReceivedEvent {
	return &AttendanceReceivedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAttendanceReceived,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"attendance_event_id": attendanceEventID,
				"organization_id":     organizationID,
				"user_id":             userID,
				"status":              status,
			},
		},
		AttendanceEventID: attendanceEventID,
		OrganizationID:    organizationID,
		UserID:            userID,
		Status:            status,
	}
}

type RecordDeletedEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Day            string `json:"day"`
}

func NewRecordDeletedEvent(organizationID, userID, day string) *RecordDeletedEvent {
	return &RecordDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecordDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"organization_id": organizationID,
				"user_id":         userID,
				"day":             day,
			},
		},
		OrganizationID: organizationID,
		UserID:         userID,
		Day:            day,
	}
}
