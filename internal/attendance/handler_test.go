package attendance_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	"github.com/ngtlab/attendance-dashboard/internal/auth"
)

type stubAttendanceService struct {
	events  []*attendance.Event
	records []*attendance.Record

	historyCalls  int
	lastDTO       attendance.HistoryQueryDTO
	deletedEvent  int64
	deletedRecord attendance.DeleteRecordDTO

	deleteEventErr  error
	deleteRecordErr error
}

func (s *stubAttendanceService) HistoryEvents(organizationID string, dto attendance.HistoryQueryDTO) ([]*attendance.Event, error) {
	s.historyCalls++
	s.lastDTO = dto
	return s.events, nil
}

func (s *stubAttendanceService) TodayRecords(organizationID, day string) ([]*attendance.Record, error) {
	return s.records, nil
}

func (s *stubAttendanceService) Today() string {
	return "2024-03-01"
}

func (s *stubAttendanceService) DeleteEvent(organizationID string, id int64) error {
	if s.deleteEventErr != nil {
		return s.deleteEventErr
	}
	s.deletedEvent = id
	return nil
}

func (s *stubAttendanceService) DeleteRecord(organizationID string, dto attendance.DeleteRecordDTO) error {
	if s.deleteRecordErr != nil {
		return s.deleteRecordErr
	}
	s.deletedRecord = dto
	return nil
}

var _ = Describe("Attendance Handler", func() {
	var (
		service *stubAttendanceService
		router  *chi.Mux
	)

	sessionUser := &auth.User{ID: 7, Email: "ayu@example.com", OrganizationID: "org-1"}

	withSession := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), sessionUser)))
		})
	}

	newRouter := func(authenticated bool) *chi.Mux {
		handler := attendance.NewHandler(service)
		r := chi.NewRouter()
		if authenticated {
			r.Use(withSession)
		}
		r.Get("/attendance/events", handler.GetHistory)
		r.Delete("/attendance/events/{id}", handler.DeleteEvent)
		r.Get("/attendance/records/today", handler.GetToday)
		r.Delete("/attendance/records", handler.DeleteRecord)
		return r
	}

	BeforeEach(func() {
		ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		service = &stubAttendanceService{
			events: []*attendance.Event{
				{ID: 1, OrganizationID: "org-1", UserID: "emp-1", Status: "present", EventTS: ts, ReceivedAt: ts},
			},
			records: []*attendance.Record{
				{OrganizationID: "org-1", UserID: "emp-1", Day: "2024-03-01", LastStatus: "present", LastTS: ts, CheckInTS: &ts},
			},
		}
		router = newRouter(true)
	})

	Describe("session guard", func() {
		It("rejects every data route without a session", func() {
			bare := newRouter(false)
			for _, req := range []*http.Request{
				httptest.NewRequest(http.MethodGet, "/attendance/events", nil),
				httptest.NewRequest(http.MethodDelete, "/attendance/events/1", nil),
				httptest.NewRequest(http.MethodGet, "/attendance/records/today", nil),
				httptest.NewRequest(http.MethodDelete, "/attendance/records", strings.NewReader(`{}`)),
			} {
				rec := httptest.NewRecorder()
				bare.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusUnauthorized), req.URL.Path)
			}
		})
	})

	Describe("GetHistory", func() {
		It("returns the rendered snapshot with count and limit", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance/events?from=2024-03-01&to=2024-03-01", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp attendance.HistoryResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Count).To(Equal(1))
			Expect(resp.Limit).To(Equal(attendance.HistoryRowLimit))
			Expect(resp.Events[0].Badge).To(Equal(attendance.BadgePresent))
		})

		It("defaults both dates to today", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance/events", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.lastDTO.From).To(Equal("2024-03-01"))
			Expect(service.lastDTO.To).To(Equal("2024-03-01"))
		})

		It("passes the filters through untouched", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance/events?from=2024-02-01&to=2024-02-29&status=present&user_id=emp-1", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.lastDTO.Status).To(Equal("present"))
			Expect(service.lastDTO.UserID).To(Equal("emp-1"))
		})
	})

	Describe("DeleteEvent", func() {
		It("deletes and responds with the refreshed snapshot for the same filters", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/attendance/events/42?from=2024-02-01&to=2024-02-29", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.deletedEvent).To(Equal(int64(42)))
			Expect(service.historyCalls).To(Equal(1))
			Expect(service.lastDTO.From).To(Equal("2024-02-01"))

			var resp attendance.HistoryResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Count).To(Equal(1))
		})

		It("rejects a non-numeric id", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/attendance/events/abc", nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps a missing event to 404 and skips the refresh", func() {
			service.deleteEventErr = attendance.ErrEventNotFound
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/attendance/events/42", nil))

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(service.historyCalls).To(BeZero())
		})

		It("surfaces an unexpected failure message verbatim in the error payload", func() {
			service.deleteEventErr = errors.New("permission denied")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/attendance/events/42", nil))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(ContainSubstring("permission denied"))
			Expect(service.historyCalls).To(BeZero())
		})
	})

	Describe("GetToday", func() {
		It("returns the rendered records with the summary strip", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance/records/today", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp attendance.TodayResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Day).To(Equal("2024-03-01"))
			Expect(resp.Records).To(HaveLen(1))
			Expect(resp.Summary.Total).To(Equal(1))
			Expect(resp.Summary.CheckedIn).To(Equal(1))
			Expect(resp.Summary.CheckedOut).To(BeZero())
		})
	})

	Describe("DeleteRecord", func() {
		It("deletes by the body key and responds with the refreshed day", func() {
			body := strings.NewReader(`{"user_id":"emp-1","day":"2024-03-01"}`)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/attendance/records", body))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.deletedRecord.UserID).To(Equal("emp-1"))
			Expect(service.deletedRecord.Day).To(Equal("2024-03-01"))

			var resp attendance.TodayResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Day).To(Equal("2024-03-01"))
		})

		It("rejects a body that is not JSON", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/attendance/records", strings.NewReader("nope")))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps a missing record to 404", func() {
			service.deleteRecordErr = attendance.ErrRecordNotFound
			body := strings.NewReader(`{"user_id":"emp-1","day":"2024-03-01"}`)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/attendance/records", body))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
