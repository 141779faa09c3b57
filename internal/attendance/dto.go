package attendance

import (
	"strings"
	"time"

	"github.com/ngtlab/attendance-dashboard/internal/core/common/validation"
)

// HistoryQueryDTO carries the raw filter values from the history view.
// From/To are calendar dates; Status and UserID are optional exact-match
// filters that only apply when non-blank after trimming.
type HistoryQueryDTO struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
	UserID string `json:"user_id"`
}

func (d HistoryQueryDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("from", d.From).Required().CalendarDate()
	v.Field("to", d.To).Required().CalendarDate()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Window converts the inclusive calendar-date range into the inclusive
// instant window [from 00:00:00, to 23:59:59.999] in UTC. Validate must have
// been called first; parse failures here mean a programming error upstream.
func (d HistoryQueryDTO) Window() (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(DayLayout, d.From, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.ParseInLocation(DayLayout, d.To, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := to.Add(24*time.Hour - time.Millisecond)
	return from, end, nil
}

// TrimmedStatus returns the status filter, or "" when blank.
func (d HistoryQueryDTO) TrimmedStatus() string {
	return strings.TrimSpace(d.Status)
}

// TrimmedUserID returns the user filter, or "" when blank.
func (d HistoryQueryDTO) TrimmedUserID() string {
	return strings.TrimSpace(d.UserID)
}

// DeleteRecordDTO identifies a daily record by the caller-visible part of its
// composite key; the organization comes from the session, never the request.
type DeleteRecordDTO struct {
	UserID string `json:"user_id"`
	Day    string `json:"day"`
}

func (d DeleteRecordDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("user_id", d.UserID).Required()
	v.Field("day", d.Day).Required().CalendarDate()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// EventQuery is the resolved query the repository executes.
type EventQuery struct {
	From   time.Time
	To     time.Time
	Status string
	UserID string
	Limit  int
}
