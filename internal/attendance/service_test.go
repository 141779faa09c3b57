package attendance_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ngtlab/attendance-dashboard/internal/attendance"
)

// Mock repository capturing the queries the service builds
type mockAttendanceRepository struct {
	events  []*attendance.Event
	records []*attendance.Record

	lastOrgID    string
	lastQuery    attendance.EventQuery
	queryCalls   int
	deletedEvent int64
	deletedKey   [3]string
	deleteCalls  int

	affected int64
	queryErr error
	delErr   error
}

func (m *mockAttendanceRepository) EventsInWindow(organizationID string, query attendance.EventQuery) ([]*attendance.Event, error) {
	m.lastOrgID = organizationID
	m.lastQuery = query
	m.queryCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.events, nil
}

func (m *mockAttendanceRepository) DeleteEventByID(organizationID string, id int64) (int64, error) {
	m.lastOrgID = organizationID
	m.deletedEvent = id
	m.deleteCalls++
	return m.affected, m.delErr
}

func (m *mockAttendanceRepository) RecordsForDay(organizationID, day string) ([]*attendance.Record, error) {
	m.lastOrgID = organizationID
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.records, nil
}

func (m *mockAttendanceRepository) DeleteRecordByKey(organizationID, userID, day string) (int64, error) {
	m.deletedKey = [3]string{organizationID, userID, day}
	m.deleteCalls++
	return m.affected, m.delErr
}

var _ = Describe("Attendance Service", func() {
	var (
		repo    *mockAttendanceRepository
		service *attendance.Service
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		repo = &mockAttendanceRepository{}
		service = attendance.NewService(repo, nil, testLogger)
	})

	Describe("HistoryEvents", func() {
		It("builds an inclusive UTC day window from a single-day range", func() {
			_, err := service.HistoryEvents("org-1", attendance.HistoryQueryDTO{
				From: "2024-03-01",
				To:   "2024-03-01",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.lastOrgID).To(Equal("org-1"))
			Expect(repo.lastQuery.From).To(Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
			Expect(repo.lastQuery.To).To(Equal(time.Date(2024, 3, 1, 23, 59, 59, 999000000, time.UTC)))
		})

		It("always caps the query at the row limit", func() {
			_, err := service.HistoryEvents("org-1", attendance.HistoryQueryDTO{
				From: "2024-03-01",
				To:   "2024-03-31",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastQuery.Limit).To(Equal(attendance.HistoryRowLimit))
		})

		It("trims filter values and drops blank ones", func() {
			_, err := service.HistoryEvents("org-1", attendance.HistoryQueryDTO{
				From:   "2024-03-01",
				To:     "2024-03-02",
				Status: "  present ",
				UserID: "   ",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastQuery.Status).To(Equal("present"))
			Expect(repo.lastQuery.UserID).To(Equal(""))
		})

		It("rejects malformed dates without touching the repository", func() {
			_, err := service.HistoryEvents("org-1", attendance.HistoryQueryDTO{
				From: "03/01/2024",
				To:   "2024-03-01",
			})
			Expect(err).To(HaveOccurred())
			Expect(repo.queryCalls).To(BeZero())
		})

		It("rejects missing dates", func() {
			_, err := service.HistoryEvents("org-1", attendance.HistoryQueryDTO{})
			Expect(err).To(HaveOccurred())
			Expect(repo.queryCalls).To(BeZero())
		})

		It("passes an inverted range through as an empty window", func() {
			repo.events = []*attendance.Event{}
			events, err := service.HistoryEvents("org-1", attendance.HistoryQueryDTO{
				From: "2024-03-10",
				To:   "2024-03-01",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())
			Expect(repo.lastQuery.From.After(repo.lastQuery.To)).To(BeTrue())
		})

		It("propagates repository errors", func() {
			repo.queryErr = errors.New("connection lost")
			_, err := service.HistoryEvents("org-1", attendance.HistoryQueryDTO{
				From: "2024-03-01",
				To:   "2024-03-01",
			})
			Expect(err).To(MatchError("connection lost"))
		})
	})

	Describe("TodayRecords", func() {
		It("queries the given day", func() {
			repo.records = []*attendance.Record{{UserID: "emp-1", Day: "2024-03-01"}}
			records, err := service.TodayRecords("org-1", "2024-03-01")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(repo.lastOrgID).To(Equal("org-1"))
		})

		It("defaults a blank day to today", func() {
			_, err := service.TodayRecords("org-1", "")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("DeleteEvent", func() {
		It("deletes by id within the caller's organization", func() {
			repo.affected = 1
			err := service.DeleteEvent("org-1", 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastOrgID).To(Equal("org-1"))
			Expect(repo.deletedEvent).To(Equal(int64(42)))
		})

		It("reports not found when nothing was deleted", func() {
			repo.affected = 0
			err := service.DeleteEvent("org-1", 42)
			Expect(err).To(Equal(attendance.ErrEventNotFound))
		})

		It("propagates repository errors", func() {
			repo.delErr = errors.New("deadlock")
			err := service.DeleteEvent("org-1", 42)
			Expect(err).To(MatchError("deadlock"))
		})
	})

	Describe("DeleteRecord", func() {
		It("deletes by the composite key with the session organization", func() {
			repo.affected = 1
			err := service.DeleteRecord("org-1", attendance.DeleteRecordDTO{
				UserID: "emp-1",
				Day:    "2024-03-01",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.deletedKey).To(Equal([3]string{"org-1", "emp-1", "2024-03-01"}))
		})

		It("reports not found when nothing was deleted", func() {
			repo.affected = 0
			err := service.DeleteRecord("org-1", attendance.DeleteRecordDTO{
				UserID: "emp-1",
				Day:    "2024-03-01",
			})
			Expect(err).To(Equal(attendance.ErrRecordNotFound))
		})

		It("rejects an invalid key without touching the repository", func() {
			err := service.DeleteRecord("org-1", attendance.DeleteRecordDTO{
				UserID: "emp-1",
				Day:    "first of march",
			})
			Expect(err).To(HaveOccurred())
			Expect(repo.deleteCalls).To(BeZero())
		})

		It("rejects a missing user id", func() {
			err := service.DeleteRecord("org-1", attendance.DeleteRecordDTO{
				Day: "2024-03-01",
			})
			Expect(err).To(HaveOccurred())
			Expect(repo.deleteCalls).To(BeZero())
		})
	})
})
