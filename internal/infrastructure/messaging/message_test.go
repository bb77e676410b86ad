package messaging_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/infrastructure/messaging"
	wfmodel "story-loop-api/internal/workflow/model"
)

var _ = Describe("Message", func() {
	It("should carry an event through the envelope", func() {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		evt := &wfmodel.Event{
			ID:        "e-1",
			Type:      wfmodel.EventJobChapterCompleted,
			SessionID: "s-1",
			JobID:     "j-1",
			Payload:   map[string]any{"chapter": 2, "pages": 3},
			CreatedAt: at,
		}

		msg, err := messaging.NewMessage(evt)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Metadata).NotTo(BeNil())

		back, err := msg.Event()
		Expect(err).NotTo(HaveOccurred())
		Expect(back.Type).To(Equal(wfmodel.EventJobChapterCompleted))
		Expect(back.JobID).To(Equal("j-1"))
		Expect(back.Payload).To(HaveKeyWithValue("chapter", BeNumerically("==", 2)))
		Expect(back.CreatedAt).To(Equal(at))
	})

	It("should stamp a creation time when missing", func() {
		msg, err := messaging.NewMessage(&wfmodel.Event{ID: "e-2", Type: wfmodel.EventJobStarted})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.CreatedAt).NotTo(BeZero())
		Expect(msg.Payload).To(BeEmpty())
	})

	It("should read metadata safely", func() {
		msg := &messaging.Message{}
		Expect(msg.GetMetadata("request_id")).To(BeEmpty())

		msg.SetMetadata("request_id", "r-1")
		Expect(msg.GetMetadata("request_id")).To(Equal("r-1"))
	})
})

var _ = Describe("BackoffConfig", func() {
	DescribeTable("should grow and cap the backoff",
		func(retries int, want time.Duration) {
			cfg := messaging.BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}
			Expect(cfg.CalculateBackoff(retries)).To(Equal(want))
		},
		Entry("first attempt", 0, time.Second),
		Entry("second attempt", 1, 2*time.Second),
		Entry("third attempt", 3, 8*time.Second),
		Entry("capped", 6, 10*time.Second),
	)

	It("should name the dead letter stream", func() {
		Expect(messaging.StreamStoryEvents.DLQStream()).To(Equal("dlq:stream:story:events"))
	})
})
