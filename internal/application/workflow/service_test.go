package workflow_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/application/workflow"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/infrastructure/persistence/memory"
	wfmodel "story-loop-api/internal/workflow/model"
	apperrors "story-loop-api/pkg/errors"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*wfmodel.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt *wfmodel.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		svc       *workflow.Service
		decisions *memory.DecisionLog
		events    *recordingPublisher
	)

	BeforeEach(func() {
		ctx = context.Background()
		decisions = memory.NewDecisionLog()
		events = &recordingPublisher{}
		svc = workflow.NewService(workflow.ServiceDeps{
			Generator: &mockGenerator{},
			Jobs:      &mockJobs{},
			Decisions: decisions,
			Events:    events,
		})
	})

	It("should run a session end to end", func() {
		s, err := svc.Create(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Step).To(Equal(entity.StepCover))

		_, err = svc.SelectCover(ctx, s.ID, "u1", 1)
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.SubmitIntent(ctx, s.ID, "u1", "a quiet comeback")
		Expect(err).NotTo(HaveOccurred())
		s, err = svc.GenerateProfile(ctx, s.ID, "u1")
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 2; i++ {
			res, snap, err := svc.Vote(ctx, s.ID, "u1", s.Pitches[0].ID, entity.OutcomeApproved)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Replacement).NotTo(BeNil())
			s = snap
		}

		s, err = svc.ApproveStructure(ctx, s.ID, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Step).To(Equal(entity.StepStructure))

		s, err = svc.StartGeneration(ctx, s.ID, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Step).To(Equal(entity.StepGenerating))
		Expect(s.JobID).To(Equal("job-1"))

		history, err := svc.History(ctx, s.ID, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(2))
		Expect(events.events).To(HaveLen(2))
		Expect(events.events[0].Type).To(Equal(wfmodel.EventDecisionRecorded))
	})

	It("should return snapshots detached from the live session", func() {
		s, _ := svc.Create(ctx, "")
		s.Step = entity.StepGenerating

		again, err := svc.Get(ctx, s.ID, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Step).To(Equal(entity.StepCover))
	})

	It("should return the latest snapshot together with step errors", func() {
		s, _ := svc.Create(ctx, "")

		snap, err := svc.SubmitIntent(ctx, s.ID, "", "too early")
		Expect(errors.Is(err, apperrors.ErrStepConflict)).To(BeTrue())
		Expect(snap.Step).To(Equal(entity.StepCover))
	})

	It("should return NotFound for unknown sessions", func() {
		_, err := svc.Get(ctx, "missing", "")
		Expect(apperrors.IsNotFound(err)).To(BeTrue())
	})

	It("should forbid access from another owner", func() {
		s, _ := svc.Create(ctx, "owner")

		_, err := svc.Get(ctx, s.ID, "intruder")
		Expect(errors.Is(err, apperrors.ErrForbidden)).To(BeTrue())
	})

	It("should delete sessions", func() {
		s, _ := svc.Create(ctx, "")
		Expect(svc.Delete(ctx, s.ID, "")).To(Succeed())

		_, err := svc.Get(ctx, s.ID, "")
		Expect(apperrors.IsNotFound(err)).To(BeTrue())
	})

	It("should expose the default policy and cover catalog", func() {
		Expect(svc.Policy().MinApprovals).To(Equal(2))
		Expect(svc.Policy().PitchPoolSize).To(Equal(5))
		Expect(svc.Covers()).To(HaveLen(4))
	})
})
