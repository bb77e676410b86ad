package generation_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/application/generation"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/infrastructure/persistence/memory"
	wfmodel "story-loop-api/internal/workflow/model"
	apperrors "story-loop-api/pkg/errors"
)

var _ = Describe("Manager", func() {
	var (
		ctx       context.Context
		store     *memory.JobStore
		writer    *mockWriter
		publisher *mockPublisher
		manager   *generation.Manager
	)

	stateOf := func(id string) func() entity.JobState {
		return func() entity.JobState {
			job, err := manager.GetStatus(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			return job.State
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewJobStore()
		writer = &mockWriter{}
		publisher = &mockPublisher{}
		manager = generation.NewManager(store, writer, publisher, generation.Config{MaxPages: 96, WordsPerPage: 250})
	})

	AfterEach(func() {
		Expect(manager.Shutdown(context.Background())).To(Succeed())
	})

	Describe("StartJob", func() {
		It("should complete a three chapter structure with contiguous pages", func() {
			id, err := manager.StartJob(ctx, threeChapters(), generation.Options{SessionID: "s1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())

			Eventually(stateOf(id)).Should(Equal(entity.JobStateComplete))

			job, _ := manager.GetStatus(ctx, id)
			Expect(job.Progress).To(Equal(100))
			Expect(job.ChaptersDone).To(Equal(3))
			Expect(job.SessionID).To(Equal("s1"))
			Expect(job.PageCount()).To(Equal(4))
			for i, p := range job.Pages {
				Expect(p.Number).To(Equal(i + 1))
			}
			Expect([]int{job.Pages[0].Chapter, job.Pages[1].Chapter, job.Pages[2].Chapter, job.Pages[3].Chapter}).
				To(Equal([]int{1, 2, 2, 3}))
			Expect(writer.Calls()).To(Equal([]int{1, 2, 3}))
			Eventually(publisher.Types).Should(Equal([]string{
				wfmodel.EventJobStarted,
				wfmodel.EventJobChapterCompleted,
				wfmodel.EventJobChapterCompleted,
				wfmodel.EventJobChapterCompleted,
				wfmodel.EventJobCompleted,
			}))
		})

		It("should fail on chapter two and keep exactly the pages of chapter one", func() {
			writer.writeFn = func(_ context.Context, in *wfmodel.ChapterInput) (string, error) {
				if in.Chapter.Number == 2 {
					return "", errors.New("upstream timeout")
				}
				return strings.Repeat("word ", 300), nil
			}

			id, err := manager.StartJob(ctx, threeChapters(), generation.Options{})
			Expect(err).NotTo(HaveOccurred())

			Eventually(stateOf(id)).Should(Equal(entity.JobStateFailed))

			job, _ := manager.GetStatus(ctx, id)
			Expect(job.Pages).To(HaveLen(2))
			for _, p := range job.Pages {
				Expect(p.Chapter).To(Equal(1))
			}
			Expect(job.Progress).To(Equal(33))
			Expect(job.ErrorMessage).To(ContainSubstring("upstream timeout"))
			Expect(writer.Calls()).To(Equal([]int{1, 2}))
		})

		It("should treat empty chapter text as a generation failure", func() {
			writer.writeFn = func(context.Context, *wfmodel.ChapterInput) (string, error) {
				return "   ", nil
			}

			id, err := manager.StartJob(ctx, threeChapters(), generation.Options{})
			Expect(err).NotTo(HaveOccurred())

			Eventually(stateOf(id)).Should(Equal(entity.JobStateFailed))
			job, _ := manager.GetStatus(ctx, id)
			Expect(job.Pages).To(BeEmpty())
		})

		It("should pass target words and style to the writer", func() {
			var seen *wfmodel.ChapterInput
			writer.writeFn = func(_ context.Context, in *wfmodel.ChapterInput) (string, error) {
				if in.Chapter.Number == 2 {
					seen = in
				}
				return "text", nil
			}

			id, _ := manager.StartJob(ctx, threeChapters(), generation.Options{Style: "warm", Emphasis: []string{"hope"}})
			Eventually(stateOf(id)).Should(Equal(entity.JobStateComplete))

			Expect(seen.TargetWords).To(Equal(500))
			Expect(seen.Style).To(Equal("warm"))
			Expect(seen.Emphasis).To(Equal([]string{"hope"}))
			Expect(seen.Structure.Title).To(Equal("Tide Lines"))
		})

		It("should not block on in-flight generation", func() {
			release := make(chan struct{})
			writer.writeFn = func(context.Context, *wfmodel.ChapterInput) (string, error) {
				<-release
				return "text", nil
			}

			id, err := manager.StartJob(ctx, threeChapters(), generation.Options{})
			Expect(err).NotTo(HaveOccurred())

			job, err := manager.GetStatus(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.State).To(Equal(entity.JobStateGenerating))
			Expect(job.Progress).To(BeZero())

			close(release)
			Eventually(stateOf(id)).Should(Equal(entity.JobStateComplete))
		})

		It("should keep running after the request context is cancelled", func() {
			reqCtx, cancel := context.WithCancel(ctx)
			id, err := manager.StartJob(reqCtx, threeChapters(), generation.Options{})
			Expect(err).NotTo(HaveOccurred())
			cancel()

			Eventually(stateOf(id)).Should(Equal(entity.JobStateComplete))
		})

		DescribeTable("should reject invalid structures without creating a job",
			func(s *entity.Structure) {
				_, err := manager.StartJob(ctx, s, generation.Options{})

				Expect(apperrors.IsValidation(err)).To(BeTrue())
				Expect(store.Len()).To(BeZero())
			},
			Entry("nil structure", (*entity.Structure)(nil)),
			Entry("no chapters", &entity.Structure{Title: "Empty"}),
			Entry("chapter without title", &entity.Structure{Chapters: []entity.Chapter{{TargetPages: 1}}}),
			Entry("chapter without pages", &entity.Structure{Chapters: []entity.Chapter{{Title: "A"}}}),
			Entry("over the page ceiling", &entity.Structure{Chapters: []entity.Chapter{{Title: "A", TargetPages: 60}, {Title: "B", TargetPages: 37}}}),
			Entry("single chapter over the page ceiling", &entity.Structure{Chapters: []entity.Chapter{{Title: "A", TargetPages: 97}}}),
			Entry("page counts that wrap around", &entity.Structure{Chapters: []entity.Chapter{{Title: "A", TargetPages: math.MaxInt}, {Title: "B", TargetPages: math.MaxInt}}}),
			Entry("page counts that wrap to a small total", &entity.Structure{Chapters: []entity.Chapter{{Title: "A", TargetPages: math.MaxInt}, {Title: "B", TargetPages: math.MaxInt}, {Title: "C", TargetPages: 3}}}),
		)

		It("should surface store failures", func() {
			m := generation.NewManager(failingStore{}, writer, nil, generation.Config{})

			_, err := m.StartJob(ctx, threeChapters(), generation.Options{})
			Expect(err).To(MatchError(ContainSubstring("store down")))
		})

		It("should not leave a job behind when the running snapshot is rejected", func() {
			inner := memory.NewJobStore()
			m := generation.NewManager(&rejectRunningStore{JobStore: inner}, writer, nil, generation.Config{})

			_, err := m.StartJob(ctx, threeChapters(), generation.Options{})
			Expect(err).To(MatchError(ContainSubstring("store rejected running job")))
			Expect(inner.Len()).To(BeZero())
			Expect(m.Running()).To(BeZero())
		})
	})

	Describe("GetStatus", func() {
		It("should return NotFound for unknown jobs", func() {
			_, err := manager.GetStatus(ctx, "nope")

			Expect(apperrors.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Cancel", func() {
		It("should stop at the next chapter boundary and keep finished pages", func() {
			first := make(chan struct{})
			release := make(chan struct{})
			writer.writeFn = func(_ context.Context, in *wfmodel.ChapterInput) (string, error) {
				if in.Chapter.Number == 1 {
					close(first)
					<-release
				}
				return "one two three", nil
			}

			id, err := manager.StartJob(ctx, threeChapters(), generation.Options{})
			Expect(err).NotTo(HaveOccurred())
			Eventually(first).Should(BeClosed())

			Expect(manager.Cancel(ctx, id)).To(Succeed())
			close(release)

			Eventually(stateOf(id)).Should(Equal(entity.JobStateCancelled))
			job, _ := manager.GetStatus(ctx, id)
			Expect(job.ChaptersDone).To(Equal(1))
			Expect(job.Pages).To(HaveLen(1))
			Expect(writer.Calls()).To(Equal([]int{1}))
			Eventually(manager.Running).Should(BeZero())
		})

		It("should refuse to cancel a finished job", func() {
			id, _ := manager.StartJob(ctx, threeChapters(), generation.Options{})
			Eventually(stateOf(id)).Should(Equal(entity.JobStateComplete))

			err := manager.Cancel(ctx, id)
			Expect(errors.Is(err, apperrors.ErrJobFinished)).To(BeTrue())
		})

		It("should return NotFound for unknown jobs", func() {
			Expect(apperrors.IsNotFound(manager.Cancel(ctx, "nope"))).To(BeTrue())
		})
	})

	Describe("Shutdown", func() {
		It("should stop running jobs and wait for them", func() {
			started := make(chan struct{})
			writer.writeFn = func(ctx context.Context, _ *wfmodel.ChapterInput) (string, error) {
				close(started)
				<-ctx.Done()
				return "", ctx.Err()
			}

			id, _ := manager.StartJob(ctx, threeChapters(), generation.Options{})
			Eventually(started).Should(BeClosed())

			shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			Expect(manager.Shutdown(shutdownCtx)).To(Succeed())

			Expect(stateOf(id)()).To(Equal(entity.JobStateCancelled))
		})

		It("should refuse new jobs once shut down", func() {
			Expect(manager.Shutdown(ctx)).To(Succeed())

			_, err := manager.StartJob(ctx, threeChapters(), generation.Options{})
			Expect(errors.Is(err, apperrors.ErrConflict)).To(BeTrue())
			Expect(store.Len()).To(BeZero())
			Expect(writer.Calls()).To(BeEmpty())
		})
	})
})
