package ingest_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	"github.com/ngtlab/attendance-dashboard/internal/ingest"
)

func TestIngest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Suite")
}

type mockIngestRepository struct {
	events  []*attendance.Event
	records map[string]*attendance.Record
	nextID  int64

	insertErr error
	saveErr   error
}

func newMockIngestRepository() *mockIngestRepository {
	return &mockIngestRepository{
		records: make(map[string]*attendance.Record),
		nextID:  1,
	}
}

func recordKey(org, userID, day string) string {
	return org + "/" + userID + "/" + day
}

func (m *mockIngestRepository) InsertEvent(event *attendance.Event) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	event.ID = m.nextID
	m.nextID++
	m.events = append(m.events, event)
	return nil
}

func (m *mockIngestRepository) GetRecord(organizationID, userID, day string) (*attendance.Record, error) {
	record, ok := m.records[recordKey(organizationID, userID, day)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (m *mockIngestRepository) SaveRecord(record *attendance.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[recordKey(record.OrganizationID, record.UserID, record.Day)] = record
	return nil
}

var _ = Describe("Ingest Service", func() {
	var (
		repo    *mockIngestRepository
		service *ingest.Service
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := context.Background()

	dto := func(status, ts string) ingest.DeviceEventDTO {
		return ingest.DeviceEventDTO{
			OrganizationID: "org-1",
			UserID:         "emp-1",
			Status:         status,
			EventTS:        ts,
		}
	}

	BeforeEach(func() {
		repo = newMockIngestRepository()
		service = ingest.NewService(repo, nil, testLogger)
	})

	It("stores the event and assigns an id", func() {
		event, err := service.Ingest(ctx, dto("present", "2024-03-01T08:00:00Z"))
		Expect(err).NotTo(HaveOccurred())
		Expect(event.ID).To(Equal(int64(1)))
		Expect(repo.events).To(HaveLen(1))
	})

	It("opens the daily record on the first present event", func() {
		_, err := service.Ingest(ctx, dto("present", "2024-03-01T08:00:00Z"))
		Expect(err).NotTo(HaveOccurred())

		record := repo.records[recordKey("org-1", "emp-1", "2024-03-01")]
		Expect(record).NotTo(BeNil())
		Expect(record.CheckInTS).NotTo(BeNil())
		Expect(record.CheckInTS.Hour()).To(Equal(8))
		Expect(record.CheckOutTS).To(BeNil())
		Expect(record.LastStatus).To(Equal("present"))
	})

	It("keeps the earliest check-in and the latest check-out", func() {
		_, err := service.Ingest(ctx, dto("present", "2024-03-01T08:00:00Z"))
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Ingest(ctx, dto("present", "2024-03-01T09:30:00Z"))
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Ingest(ctx, dto("checkout", "2024-03-01T17:00:00Z"))
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Ingest(ctx, dto("checkout", "2024-03-01T17:45:00Z"))
		Expect(err).NotTo(HaveOccurred())

		record := repo.records[recordKey("org-1", "emp-1", "2024-03-01")]
		Expect(record.CheckInTS.Hour()).To(Equal(8))
		Expect(record.CheckOutTS.Hour()).To(Equal(17))
		Expect(record.CheckOutTS.Minute()).To(Equal(45))
		Expect(record.LastStatus).To(Equal("checkout"))
	})

	It("does not regress last status on an out-of-order event", func() {
		_, err := service.Ingest(ctx, dto("checkout", "2024-03-01T17:00:00Z"))
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Ingest(ctx, dto("present", "2024-03-01T08:00:00Z"))
		Expect(err).NotTo(HaveOccurred())

		record := repo.records[recordKey("org-1", "emp-1", "2024-03-01")]
		Expect(record.LastStatus).To(Equal("checkout"))
		Expect(record.LastTS.Hour()).To(Equal(17))
		Expect(record.CheckInTS).NotTo(BeNil())
	})

	It("keys the record by the event's UTC day", func() {
		_, err := service.Ingest(ctx, dto("present", "2024-03-02T01:00:00+07:00"))
		Expect(err).NotTo(HaveOccurred())

		Expect(repo.records).To(HaveKey(recordKey("org-1", "emp-1", "2024-03-01")))
	})

	It("carries display fields onto the record", func() {
		name := "Ayu Lestari"
		role := "engineer"
		d := dto("present", "2024-03-01T08:00:00Z")
		d.FullName = &name
		d.Role = &role

		_, err := service.Ingest(ctx, d)
		Expect(err).NotTo(HaveOccurred())

		record := repo.records[recordKey("org-1", "emp-1", "2024-03-01")]
		Expect(record.FullName).To(HaveValue(Equal("Ayu Lestari")))
		Expect(record.Role).To(HaveValue(Equal("engineer")))
	})

	It("keeps a neutral status out of the check-in and check-out columns", func() {
		_, err := service.Ingest(ctx, dto("late", "2024-03-01T10:00:00Z"))
		Expect(err).NotTo(HaveOccurred())

		record := repo.records[recordKey("org-1", "emp-1", "2024-03-01")]
		Expect(record.CheckInTS).To(BeNil())
		Expect(record.CheckOutTS).To(BeNil())
		Expect(record.LastStatus).To(Equal("late"))
	})

	It("rejects an unparsable timestamp before writing anything", func() {
		_, err := service.Ingest(ctx, dto("present", "yesterday"))
		Expect(err).To(HaveOccurred())
		Expect(repo.events).To(BeEmpty())
	})

	It("rejects a payload with missing identifiers", func() {
		d := dto("present", "2024-03-01T08:00:00Z")
		d.UserID = ""
		_, err := service.Ingest(ctx, d)
		Expect(err).To(HaveOccurred())
		Expect(repo.events).To(BeEmpty())
	})

	It("defaults the event type to the status", func() {
		event, err := service.Ingest(ctx, dto("present", "2024-03-01T08:00:00Z"))
		Expect(err).NotTo(HaveOccurred())
		Expect(event.EventType).To(Equal("present"))
	})
})
