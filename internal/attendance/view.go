package attendance

import (
	"fmt"
	"time"
)

// Badge is the closed three-way visual classification of a status string.
// The stored status stays an open enum; rendering is total over all inputs.
type Badge string

const (
	BadgePresent  Badge = "present"
	BadgeCheckout Badge = "checkout"
	BadgeNeutral  Badge = "neutral"
)

// BadgeFor classifies a status case-insensitively. Every input, including
// empty and unknown values, maps to exactly one badge.
func BadgeFor(status string) Badge {
	switch toLower(status) {
	case StatusPresent:
		return BadgePresent
	case StatusCheckout:
		return BadgeCheckout
	default:
		return BadgeNeutral
	}
}

// toLower avoids pulling unicode tables in for ASCII status strings.
func toLower(s string) string {
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

const displayTimeLayout = "2006-01-02 15:04:05"

// FormatTime renders a timestamp for display. Nil renders as the empty
// string; it never errors.
func FormatTime(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(displayTimeLayout)
}

// FormatTimestamp renders a raw timestamp string for display. Empty input
// renders empty; a string that does not parse renders unchanged rather than
// raising an error.
func FormatTimestamp(iso string) string {
	if iso == "" {
		return ""
	}
	ts, err := parseTimestamp(iso)
	if err != nil {
		return iso
	}
	return ts.UTC().Format(displayTimeLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", DayLayout} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp: %q", s)
}

// FormatDuration renders the span between check-in and check-out in whole
// minutes: "Mm" under an hour, "Hh Mm" otherwise. A missing endpoint renders
// as the empty string and a negative span is clamped to zero.
func FormatDuration(checkIn, checkOut *time.Time) string {
	if checkIn == nil || checkOut == nil {
		return ""
	}
	diff := checkOut.Sub(*checkIn)
	if diff < 0 {
		diff = 0
	}
	totalMins := int(diff / time.Minute)
	hrs := totalMins / 60
	mins := totalMins % 60
	if hrs <= 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %dm", hrs, mins)
}

// EventView is the rendered history row.
type EventView struct {
	ID       int64    `json:"id"`
	Time     string   `json:"time"`
	Name     string   `json:"name"`
	UserID   string   `json:"user_id"`
	Status   string   `json:"status"`
	Badge    Badge    `json:"badge"`
	Role     string   `json:"role"`
	Score    *float64 `json:"score,omitempty"`
	EventTS  string   `json:"event_ts"`
	Received string   `json:"received_at"`
}

func NewEventView(e *Event) EventView {
	ts := e.EventTS
	return EventView{
		ID:       e.ID,
		Time:     FormatTime(&ts),
		Name:     deref(e.FullName),
		UserID:   e.UserID,
		Status:   e.Status,
		Badge:    BadgeFor(e.Status),
		Role:     deref(e.Role),
		Score:    e.Score,
		EventTS:  e.EventTS.UTC().Format(time.RFC3339Nano),
		Received: e.ReceivedAt.UTC().Format(time.RFC3339Nano),
	}
}

func NewEventViews(events []*Event) []EventView {
	views := make([]EventView, len(events))
	for i, e := range events {
		views[i] = NewEventView(e)
	}
	return views
}

// RecordView is the rendered daily-record row.
type RecordView struct {
	UserID   string   `json:"user_id"`
	Day      string   `json:"day"`
	Name     string   `json:"name"`
	CheckIn  string   `json:"check_in"`
	CheckOut string   `json:"check_out"`
	Duration string   `json:"duration"`
	Status   string   `json:"status"`
	Badge    Badge    `json:"badge"`
	LastSeen string   `json:"last_seen"`
	Role     string   `json:"role"`
	Score    *float64 `json:"score,omitempty"`
}

func NewRecordView(r *Record) RecordView {
	last := r.LastTS
	return RecordView{
		UserID:   r.UserID,
		Day:      r.Day,
		Name:     deref(r.FullName),
		CheckIn:  FormatTime(r.CheckInTS),
		CheckOut: FormatTime(r.CheckOutTS),
		Duration: FormatDuration(r.CheckInTS, r.CheckOutTS),
		Status:   r.LastStatus,
		Badge:    BadgeFor(r.LastStatus),
		LastSeen: FormatTime(&last),
		Role:     deref(r.Role),
		Score:    r.Score,
	}
}

func NewRecordViews(records []*Record) []RecordView {
	views := make([]RecordView, len(records))
	for i, r := range records {
		views[i] = NewRecordView(r)
	}
	return views
}

// TodaySummary is the aggregate strip above the today table.
type TodaySummary struct {
	Total      int `json:"total"`
	CheckedIn  int `json:"checked_in"`
	CheckedOut int `json:"checked_out"`
}

func Summarize(records []*Record) TodaySummary {
	s := TodaySummary{Total: len(records)}
	for _, r := range records {
		if r.CheckInTS != nil {
			s.CheckedIn++
		}
		if r.CheckOutTS != nil {
			s.CheckedOut++
		}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
