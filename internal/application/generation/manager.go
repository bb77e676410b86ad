// Package generation 管理异步的整书生成任务
package generation

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"story-loop-api/internal/application/pagination"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/domain/repository"
	wfmodel "story-loop-api/internal/workflow/model"
	"story-loop-api/internal/workflow/port"
	apperrors "story-loop-api/pkg/errors"
	"story-loop-api/pkg/logger"
	"story-loop-api/pkg/metrics"
	"story-loop-api/pkg/tracer"
)

// Config 任务管理器配置
type Config struct {
	MaxPages     int
	WordsPerPage int
	LLM          wfmodel.LLMOptions
}

// Options 单次任务参数
type Options struct {
	SessionID string
	Style     string
	Emphasis  []string
}

// Manager 生成任务管理器
// 每个任务由独立的后台 goroutine 按章节顺序推进，只有该 goroutine 修改任务，
// 读取方通过 JobStore 拿到快照。
type Manager struct {
	store     repository.JobStore
	writer    port.ChapterWriter
	events    port.EventPublisher
	paginator *pagination.Paginator
	cfg       Config

	mu     sync.Mutex
	tasks  map[string]*task
	closed bool
	wg     sync.WaitGroup
}

type task struct {
	cancelRequested atomic.Bool
	stop            context.CancelFunc
}

// NewManager 创建任务管理器
func NewManager(store repository.JobStore, writer port.ChapterWriter, events port.EventPublisher, cfg Config) *Manager {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &Manager{
		store:     store,
		writer:    writer,
		events:    events,
		paginator: pagination.New(cfg.WordsPerPage),
		cfg:       cfg,
		tasks:     make(map[string]*task),
	}
}

// StartJob 校验结构并启动后台生成，任务进入 generating 后立即返回 ID
func (m *Manager) StartJob(ctx context.Context, structure *entity.Structure, opts Options) (string, error) {
	if err := ValidateStructure(structure, m.cfg.MaxPages); err != nil {
		return "", err
	}

	s := structure.Clone()
	for i := range s.Chapters {
		s.Chapters[i].Number = i + 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", apperrors.ErrConflict.WithDetail("job manager is shutting down")
	}

	// 只写入一次 generating 快照，存储失败时不会残留 pending 任务
	job := entity.NewJob(uuid.NewString(), opts.SessionID, len(s.Chapters))
	job.Start()
	if err := m.store.Put(ctx, job.Clone()); err != nil {
		return "", err
	}

	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	runCtx = logger.WithContext(runCtx, logger.JobIDKey, job.ID)
	t := &task{stop: stop}

	m.tasks[job.ID] = t
	m.wg.Add(1)
	go m.run(runCtx, job, s, opts, t)

	logger.FromContext(runCtx).Info("generation job started",
		"chapters", len(s.Chapters),
		"target_pages", s.TotalPages(),
	)
	return job.ID, nil
}

// GetStatus 返回任务快照
func (m *Manager) GetStatus(ctx context.Context, jobID string) (*entity.Job, error) {
	job, err := m.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperrors.ErrJobNotFound.WithDetail(jobID)
	}
	return job, nil
}

// Cancel 请求在下一个章节边界停止任务
func (m *Manager) Cancel(ctx context.Context, jobID string) error {
	job, err := m.GetStatus(ctx, jobID)
	if err != nil {
		return err
	}
	if job.State.Terminal() {
		return apperrors.ErrJobFinished.WithDetail(string(job.State))
	}

	m.mu.Lock()
	t, ok := m.tasks[jobID]
	m.mu.Unlock()
	if !ok {
		return apperrors.ErrConflict.WithDetail("job is not running in this process")
	}
	t.cancelRequested.Store(true)
	logger.Info(logger.WithContext(ctx, logger.JobIDKey, jobID), "generation job cancel requested")
	return nil
}

// Running 当前进程内运行中的任务数
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Shutdown 拒绝新任务，中止所有运行中的任务并等待其退出
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for _, t := range m.tasks {
		t.cancelRequested.Store(true)
		t.stop()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(ctx context.Context, job *entity.Job, s *entity.Structure, opts Options, t *task) {
	defer m.wg.Done()
	defer m.forget(job.ID, t)

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	log := logger.FromContext(ctx)
	m.publish(ctx, job, wfmodel.EventJobStarted, map[string]any{"chapters": len(s.Chapters)})

	next := 1
	for _, ch := range s.Chapters {
		if t.cancelRequested.Load() {
			m.cancel(ctx, job)
			return
		}

		pages, err := m.generateChapter(ctx, s, ch, next, opts)
		if err != nil {
			if ctx.Err() != nil {
				m.cancel(ctx, job)
				return
			}
			log.Error("chapter generation failed", "chapter", ch.Number, "error", err)
			job.Fail(err.Error())
			m.save(ctx, job)
			m.finish(ctx, job, wfmodel.EventJobFailed)
			return
		}

		job.AppendChapter(pages)
		next = job.NextPage()
		m.save(ctx, job)
		metrics.PagesProduced.Add(float64(len(pages)))
		m.publish(ctx, job, wfmodel.EventJobChapterCompleted, map[string]any{
			"chapter":  ch.Number,
			"pages":    len(pages),
			"progress": job.Progress,
		})
		log.Info("chapter generated", "chapter", ch.Number, "pages", len(pages), "progress", job.Progress)
	}

	job.Complete()
	m.save(ctx, job)
	m.finish(ctx, job, wfmodel.EventJobCompleted)
	log.Info("generation job completed", "pages", job.PageCount(), "duration_ms", job.DurationMs)
}

func (m *Manager) generateChapter(ctx context.Context, s *entity.Structure, ch entity.Chapter, startPage int, opts Options) ([]entity.Page, error) {
	ctx, span := tracer.Start(ctx, "generation.chapter",
		trace.WithAttributes(
			attribute.Int("chapter.number", ch.Number),
			attribute.Int("chapter.target_pages", ch.TargetPages),
		))
	defer span.End()

	start := time.Now()
	text, err := m.writer.WriteChapter(ctx, &wfmodel.ChapterInput{
		Structure:   s,
		Chapter:     ch,
		Style:       opts.Style,
		Emphasis:    opts.Emphasis,
		TargetWords: ch.TargetPages * m.paginator.WordsPerPage,
		LLMOptions:  m.cfg.LLM,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = apperrors.Generation(nil, "chapter %d returned empty text", ch.Number)
	}
	if err != nil {
		metrics.ChapterDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		tracer.RecordError(span, err)
		if !apperrors.IsGeneration(err) {
			err = apperrors.Generation(err, "chapter %d", ch.Number)
		}
		return nil, err
	}
	metrics.ChapterDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	pages, _, err := m.paginator.Paginate(text, ch.Number, startPage)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("chapter.pages", len(pages)))
	return pages, nil
}

func (m *Manager) cancel(ctx context.Context, job *entity.Job) {
	job.Cancel()
	m.save(ctx, job)
	m.finish(ctx, job, wfmodel.EventJobCancelled)
	logger.FromContext(ctx).Info("generation job cancelled", "chapters_done", job.ChaptersDone)
}

func (m *Manager) finish(ctx context.Context, job *entity.Job, eventType string) {
	metrics.JobsTotal.WithLabelValues(string(job.State)).Inc()
	metrics.JobDuration.WithLabelValues(string(job.State)).Observe(float64(job.DurationMs) / 1000)
	payload := map[string]any{
		"pages":    job.PageCount(),
		"progress": job.Progress,
	}
	if job.ErrorMessage != "" {
		payload["error"] = job.ErrorMessage
	}
	m.publish(ctx, job, eventType, payload)
}

// save 写入快照；存储失败不改变任务走向
func (m *Manager) save(ctx context.Context, job *entity.Job) {
	// 取消后的 ctx 仍需落盘终态
	if err := m.store.Put(context.WithoutCancel(ctx), job.Clone()); err != nil {
		logger.Error(ctx, "failed to save job snapshot", err, "state", job.State)
	}
}

func (m *Manager) publish(ctx context.Context, job *entity.Job, eventType string, payload map[string]any) {
	evt := &wfmodel.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: job.SessionID,
		JobID:     job.ID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.events.Publish(context.WithoutCancel(ctx), evt); err != nil {
		logger.Warn(ctx, "failed to publish job event", "type", eventType, "error", err.Error())
	}
}

func (m *Manager) forget(jobID string, t *task) {
	t.stop()
	m.mu.Lock()
	delete(m.tasks, jobID)
	m.mu.Unlock()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *wfmodel.Event) error { return nil }
