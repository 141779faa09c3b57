package ingest_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	"github.com/ngtlab/attendance-dashboard/internal/ingest"
	"github.com/ngtlab/attendance-dashboard/internal/transport"
)

type stubIngestService struct {
	ingested []ingest.DeviceEventDTO
	err      error
}

func (s *stubIngestService) Ingest(ctx context.Context, dto ingest.DeviceEventDTO) (*attendance.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.ingested = append(s.ingested, dto)
	return &attendance.Event{ID: int64(len(s.ingested))}, nil
}

var _ = Describe("Webhook Handler", func() {
	var (
		service *stubIngestService
		handler *ingest.WebhookHandler
	)

	const secret = "shared-device-secret"

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	post := func(secretHeader, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/attendance", strings.NewReader(body))
		if secretHeader != "" {
			req.Header.Set("X-Webhook-Secret", secretHeader)
		}
		rec := httptest.NewRecorder()
		handler.HandleDeviceEvent(rec, req)
		return rec
	}

	BeforeEach(func() {
		service = &stubIngestService{}
		handler = ingest.NewWebhookHandler(transport.NewBaseHandler(testLogger), service, secret, testLogger)
	})

	It("accepts a well-formed event with the right secret", func() {
		rec := post(secret, `{"organization_id":"org-1","user_id":"emp-1","status":"present","event_ts":"2024-03-01T08:00:00Z"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(service.ingested).To(HaveLen(1))
		Expect(service.ingested[0].UserID).To(Equal("emp-1"))
	})

	It("rejects a missing secret", func() {
		rec := post("", `{}`)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(service.ingested).To(BeEmpty())
	})

	It("rejects a wrong secret", func() {
		rec := post("guessed", `{}`)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(service.ingested).To(BeEmpty())
	})

	It("rejects a body that is not JSON", func() {
		rec := post(secret, "nope")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(service.ingested).To(BeEmpty())
	})
})
