package attendance

import "time"

// Event is one row of the attendance_events audit log. Rows are appended by
// the webhook ingester and only ever removed by an explicit dashboard delete.
type Event struct {
	ID             int64      `gorm:"primaryKey"`
	OrganizationID string     `gorm:"column:organization_id;not null;index"`
	UserID         string     `gorm:"column:user_id;not null;index"`
	EventType      string     `gorm:"column:event_type;not null"`
	Status         string     `gorm:"column:status;not null"`
	Score          *float64   `gorm:"column:score"`
	FullName       *string    `gorm:"column:full_name"`
	UserType       *string    `gorm:"column:user_type"`
	Role           *string    `gorm:"column:role"`
	EventTS        time.Time  `gorm:"column:event_ts;not null;index"`
	ReceivedAt     time.Time  `gorm:"column:received_at;autoCreateTime"`
}

func (Event) TableName() string {
	return "attendance_events"
}

// Record is the derived daily aggregate, one row per (organization, user, day).
type Record struct {
	OrganizationID string     `gorm:"column:organization_id;not null;primaryKey"`
	UserID         string     `gorm:"column:user_id;not null;primaryKey"`
	Day            string     `gorm:"column:day;not null;primaryKey"`
	CheckInTS      *time.Time `gorm:"column:check_in_ts"`
	CheckOutTS     *time.Time `gorm:"column:check_out_ts"`
	LastStatus     string     `gorm:"column:last_status;not null"`
	LastTS         time.Time  `gorm:"column:last_ts;not null"`
	FullName       *string    `gorm:"column:full_name"`
	UserType       *string    `gorm:"column:user_type"`
	Role           *string    `gorm:"column:role"`
	Score          *float64   `gorm:"column:score"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "attendance_records"
}
