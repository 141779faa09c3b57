package postgres

import (
	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	attendanceDatamodel "github.com/ngtlab/attendance-dashboard/internal/core/datamodel/attendance"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceRepository implements attendance.Repository using GORM. Every
// query carries the organization id so a session can never touch another
// tenant's rows even if the database-level policies are bypassed.
type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// EventsInWindow retrieves audit events inside the [From, To] window, newest
// first, optionally narrowed by exact status and user id matches.
func (r *AttendanceRepository) EventsInWindow(organizationID string, query attendance.EventQuery) ([]*attendance.Event, error) {
	q := r.db.
		Where("organization_id = ?", organizationID).
		Where("event_ts >= ?", query.From).
		Where("event_ts <= ?", query.To)

	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.UserID != "" {
		q = q.Where("user_id = ?", query.UserID)
	}

	var events []*attendanceDatamodel.Event
	err := q.Order("event_ts DESC").
		Limit(query.Limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return attendance.EventsFromDataModelSlice(events), nil
}

// DeleteEventByID removes a single audit event and reports how many rows were
// actually deleted, so callers can tell a miss from a success.
func (r *AttendanceRepository) DeleteEventByID(organizationID string, id int64) (int64, error) {
	result := r.db.
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		Delete(&attendanceDatamodel.Event{})
	return result.RowsAffected, result.Error
}

// RecordsForDay retrieves the daily records for one calendar day, most recent
// activity first.
func (r *AttendanceRepository) RecordsForDay(organizationID, day string) ([]*attendance.Record, error) {
	var records []*attendanceDatamodel.Record
	err := r.db.
		Where("organization_id = ?", organizationID).
		Where("day = ?", day).
		Order("last_ts DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return attendance.RecordsFromDataModelSlice(records), nil
}

// DeleteRecordByKey removes one daily record by its composite key.
func (r *AttendanceRepository) DeleteRecordByKey(organizationID, userID, day string) (int64, error) {
	result := r.db.
		Where("organization_id = ?", organizationID).
		Where("user_id = ?", userID).
		Where("day = ?", day).
		Delete(&attendanceDatamodel.Record{})
	return result.RowsAffected, result.Error
}

// InsertEvent appends one row to the audit log and backfills the generated id.
func (r *AttendanceRepository) InsertEvent(event *attendance.Event) error {
	model := attendance.ToEventDataModel(event)
	if err := r.db.Create(model).Error; err != nil {
		return err
	}
	event.ID = model.ID
	event.ReceivedAt = model.ReceivedAt
	return nil
}

// GetRecord fetches one daily record, or nil when none exists yet for the key.
func (r *AttendanceRepository) GetRecord(organizationID, userID, day string) (*attendance.Record, error) {
	var record attendanceDatamodel.Record
	err := r.db.
		Where("organization_id = ?", organizationID).
		Where("user_id = ?", userID).
		Where("day = ?", day).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return attendance.RecordFromDataModel(&record), nil
}

// SaveRecord upserts a daily record on its composite key.
func (r *AttendanceRepository) SaveRecord(record *attendance.Record) error {
	model := attendance.ToRecordDataModel(record)
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"},
			{Name: "user_id"},
			{Name: "day"},
		},
		UpdateAll: true,
	}).Create(model).Error
}
