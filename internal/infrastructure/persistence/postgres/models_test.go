package postgres_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/infrastructure/persistence/postgres"
)

var _ = Describe("Models", func() {
	It("should carry a finished job through the table model", func() {
		job := entity.NewJob("job-1", "s-1", 1)
		job.Start()
		job.AppendChapter([]entity.Page{{Number: 1, Chapter: 1, Text: "one"}})
		job.Complete()

		got := postgres.JobToModel(job).Entity()

		Expect(got.State).To(Equal(entity.JobStateComplete))
		Expect(got.Progress).To(Equal(100))
		Expect(got.Pages).To(Equal(job.Pages))
		Expect(got.CompletedAt).NotTo(BeNil())
		Expect(got.SessionID).To(Equal("s-1"))
	})

	It("should flatten the candidate of a decision", func() {
		d := entity.Decision{
			Seq:     3,
			Outcome: entity.OutcomeDenied,
			Candidate: &entity.Candidate{
				ID:           "p1",
				Title:        "Tide",
				Keywords:     []string{"sea", "return"},
				Demographics: []string{"adult"},
				Match:        71,
			},
			DecidedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		m := postgres.DecisionToModel("s-1", d)
		Expect(m.SessionID).To(Equal("s-1"))
		Expect([]string(m.Keywords)).To(Equal([]string{"sea", "return"}))

		back := m.Entity()
		Expect(back.Seq).To(Equal(3))
		Expect(back.Approved()).To(BeFalse())
		Expect(back.Candidate.Title).To(Equal("Tide"))
		Expect(back.Candidate.Demographics).To(Equal([]string{"adult"}))
		Expect(back.DecidedAt).To(Equal(d.DecidedAt))
	})

	It("should use stable table names", func() {
		Expect(postgres.JobModel{}.TableName()).To(Equal("story_jobs"))
		Expect(postgres.DecisionModel{}.TableName()).To(Equal("pitch_decisions"))
	})
})
