package archive_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/application/archive"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/infrastructure/persistence/memory"
	wfmodel "story-loop-api/internal/workflow/model"
)

// wirePayload 模拟经过 JSON 传输后的载荷
func wirePayload(d entity.Decision) map[string]any {
	b, err := json.Marshal(map[string]any{"seq": d.Seq, "decision": d})
	Expect(err).NotTo(HaveOccurred())
	var out map[string]any
	Expect(json.Unmarshal(b, &out)).To(Succeed())
	return out
}

var _ = Describe("Archiver", func() {
	var (
		ctx context.Context
		log *memory.DecisionLog
		a   *archive.Archiver
	)

	BeforeEach(func() {
		ctx = context.Background()
		log = memory.NewDecisionLog()
		a = archive.NewArchiver(log)
	})

	It("should append decisions carried by events", func() {
		d := entity.NewDecision(1, &entity.Candidate{ID: "p1", Title: "Tide", Keywords: []string{"sea"}}, entity.OutcomeApproved)

		err := a.Handle(ctx, &wfmodel.Event{
			ID:        "e-1",
			Type:      wfmodel.EventDecisionRecorded,
			SessionID: "s-1",
			Payload:   wirePayload(d),
		})

		Expect(err).NotTo(HaveOccurred())
		got, err := log.List(ctx, "s-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Candidate.Keywords).To(Equal([]string{"sea"}))
		Expect(got[0].Approved()).To(BeTrue())
	})

	It("should reject a decision event without a decision", func() {
		err := a.Handle(ctx, &wfmodel.Event{
			ID:        "e-2",
			Type:      wfmodel.EventDecisionRecorded,
			SessionID: "s-1",
			Payload:   map[string]any{"seq": 1},
		})

		Expect(err).To(HaveOccurred())
	})

	It("should reject a decision event without a session", func() {
		d := entity.NewDecision(1, &entity.Candidate{ID: "p1"}, entity.OutcomeDenied)

		err := a.Handle(ctx, &wfmodel.Event{ID: "e-3", Type: wfmodel.EventDecisionRecorded, Payload: wirePayload(d)})

		Expect(err).To(HaveOccurred())
	})

	It("should accept job and unknown events", func() {
		Expect(a.Handle(ctx, &wfmodel.Event{Type: wfmodel.EventJobCompleted, JobID: "j-1"})).To(Succeed())
		Expect(a.Handle(ctx, &wfmodel.Event{Type: "something.else"})).To(Succeed())
	})
})
