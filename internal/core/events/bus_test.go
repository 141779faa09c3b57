package events_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ngtlab/attendance-dashboard/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		bus = events.NewEventBus(testLogger)
	})

	It("delivers events to subscribed handlers", func() {
		var (
			mu       sync.Mutex
			received []string
		)

		bus.Subscribe(events.EventTypeRecordDeleted, func(ctx context.Context, ev events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, ev.EventID())
			return nil
		})

		ev := events.NewRecordDeletedEvent("org-1", "emp-1", "2024-03-01")
		Expect(bus.PublishSync(context.Background(), ev)).To(Succeed())

		mu.Lock()
		defer mu.Unlock()
		Expect(received).To(ConsistOf(ev.EventID()))
	})

	It("ignores events nobody subscribed to", func() {
		ev := events.NewAttendanceReceivedEvent(1, "org-1", "emp-1", "present")
		Expect(bus.PublishSync(context.Background(), ev)).To(Succeed())
	})

	It("carries the record key in the deleted payload", func() {
		ev := events.NewRecordDeletedEvent("org-1", "emp-1", "2024-03-01")
		Expect(ev.EventType()).To(Equal(events.EventTypeRecordDeleted))

		payload, ok := ev.Payload().(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(payload).To(HaveKeyWithValue("organization_id", "org-1"))
		Expect(payload).To(HaveKeyWithValue("user_id", "emp-1"))
		Expect(payload).To(HaveKeyWithValue("day", "2024-03-01"))
	})
})
