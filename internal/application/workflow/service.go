package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/domain/repository"
	wfmodel "story-loop-api/internal/workflow/model"
	"story-loop-api/internal/workflow/port"
	apperrors "story-loop-api/pkg/errors"
	"story-loop-api/pkg/logger"
	"story-loop-api/pkg/metrics"
)

// Service 会话注册表与工作流入口
// 同一会话的操作通过会话级互斥锁串行执行，不同会话互不阻塞。
type Service struct {
	policy    Policy
	covers    []entity.CoverOption
	gen       port.ContentGenerator
	jobs      JobStarter
	decisions repository.DecisionLog
	events    port.EventPublisher
	llm       wfmodel.LLMOptions

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu   sync.Mutex
	ctrl *Controller
}

// ServiceDeps 服务依赖
type ServiceDeps struct {
	Policy    Policy
	Covers    []entity.CoverOption
	Generator port.ContentGenerator
	Jobs      JobStarter
	Decisions repository.DecisionLog
	Events    port.EventPublisher
	LLM       wfmodel.LLMOptions
}

// NewService 创建工作流服务
func NewService(deps ServiceDeps) *Service {
	covers := deps.Covers
	if len(covers) == 0 {
		covers = entity.DefaultCovers()
	}
	return &Service{
		policy:    deps.Policy.normalized(),
		covers:    covers,
		gen:       deps.Generator,
		jobs:      deps.Jobs,
		decisions: deps.Decisions,
		events:    deps.Events,
		llm:       deps.LLM,
		sessions:  make(map[string]*sessionEntry),
	}
}

// Policy 生效的策略
func (s *Service) Policy() Policy {
	return s.policy
}

// Covers 封面目录
func (s *Service) Covers() []entity.CoverOption {
	out := make([]entity.CoverOption, len(s.covers))
	copy(out, s.covers)
	return out
}

// Create 创建新会话
func (s *Service) Create(ctx context.Context, ownerID string) (*entity.Session, error) {
	session := entity.NewSession(uuid.NewString(), ownerID)
	entry := &sessionEntry{ctrl: NewController(session, ControllerDeps{
		Policy:    s.policy,
		Covers:    s.covers,
		Generator: s.gen,
		Jobs:      s.jobs,
		LLM:       s.llm,
		OnDecide:  s.recordDecision,
	})}

	s.mu.Lock()
	s.sessions[session.ID] = entry
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	logger.Info(logger.WithContext(ctx, logger.SessionIDKey, session.ID), "workflow session created")
	return session.Clone(), nil
}

// Get 返回会话快照
func (s *Service) Get(ctx context.Context, sessionID, ownerID string) (*entity.Session, error) {
	var out *entity.Session
	err := s.with(ctx, sessionID, ownerID, func(_ context.Context, c *Controller) error {
		out = c.Session().Clone()
		return nil
	})
	return out, err
}

// Delete 删除会话
func (s *Service) Delete(ctx context.Context, sessionID, ownerID string) error {
	if _, err := s.Get(ctx, sessionID, ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// SelectCover 选择封面
func (s *Service) SelectCover(ctx context.Context, sessionID, ownerID string, coverID int) (*entity.Session, error) {
	return s.mutate(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		return c.SelectCover(ctx, coverID)
	})
}

// SubmitIntent 提交意图
func (s *Service) SubmitIntent(ctx context.Context, sessionID, ownerID, text string) (*entity.Session, error) {
	return s.mutate(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		return c.SubmitIntent(ctx, text)
	})
}

// GenerateProfile 生成 Genome 与初始 pitch 池
func (s *Service) GenerateProfile(ctx context.Context, sessionID, ownerID string) (*entity.Session, error) {
	return s.mutate(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		return c.GenerateProfile(ctx)
	})
}

// Vote 对 pitch 投票；替补失败时仍返回最新会话与错误
func (s *Service) Vote(ctx context.Context, sessionID, ownerID, candidateID string, outcome entity.Outcome) (*VoteResult, *entity.Session, error) {
	var result *VoteResult
	session, err := s.mutate(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		var err error
		result, err = c.Vote(ctx, candidateID, outcome)
		return err
	})
	return result, session, err
}

// ReplenishPitches 补足 pitch 池
func (s *Service) ReplenishPitches(ctx context.Context, sessionID, ownerID string) (*entity.Session, error) {
	return s.mutate(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		_, err := c.ReplenishPitches(ctx)
		return err
	})
}

// ApproveStructure 批准进入结构步骤
func (s *Service) ApproveStructure(ctx context.Context, sessionID, ownerID string) (*entity.Session, error) {
	return s.mutate(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		_, err := c.ApproveStructure(ctx)
		return err
	})
}

// StartGeneration 启动整书生成
func (s *Service) StartGeneration(ctx context.Context, sessionID, ownerID string) (*entity.Session, error) {
	return s.mutate(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		_, err := c.StartGeneration(ctx)
		return err
	})
}

// History 从决定日志读取会话历史
func (s *Service) History(ctx context.Context, sessionID, ownerID string) ([]entity.Decision, error) {
	if _, err := s.Get(ctx, sessionID, ownerID); err != nil {
		return nil, err
	}
	if s.decisions == nil {
		return []entity.Decision{}, nil
	}
	return s.decisions.List(ctx, sessionID)
}

// mutate 在会话锁内执行操作，无论成功与否都返回最新快照
func (s *Service) mutate(ctx context.Context, sessionID, ownerID string, fn func(context.Context, *Controller) error) (*entity.Session, error) {
	var out *entity.Session
	err := s.with(ctx, sessionID, ownerID, func(ctx context.Context, c *Controller) error {
		err := fn(ctx, c)
		out = c.Session().Clone()
		return err
	})
	return out, err
}

func (s *Service) with(ctx context.Context, sessionID, ownerID string, fn func(context.Context, *Controller) error) error {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return apperrors.ErrSessionNotFound.WithDetail(sessionID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	owner := entry.ctrl.Session().OwnerID
	if owner != "" && owner != ownerID {
		return apperrors.ErrForbidden.WithDetail("session belongs to another user")
	}
	ctx = logger.WithContext(ctx, logger.SessionIDKey, sessionID)
	return fn(ctx, entry.ctrl)
}

func (s *Service) recordDecision(ctx context.Context, sessionID string, d entity.Decision) {
	if s.decisions != nil {
		if err := s.decisions.Append(ctx, sessionID, d); err != nil {
			logger.Error(ctx, "failed to append decision", err, "seq", d.Seq)
		}
	}
	if s.events != nil {
		evt := &wfmodel.Event{
			ID:        uuid.NewString(),
			Type:      wfmodel.EventDecisionRecorded,
			SessionID: sessionID,
			Payload: map[string]any{
				"seq":          d.Seq,
				"candidate_id": d.Candidate.ID,
				"outcome":      string(d.Outcome),
				"decision":     d,
			},
			CreatedAt: d.DecidedAt,
		}
		if err := s.events.Publish(ctx, evt); err != nil {
			logger.Warn(ctx, "failed to publish decision event", "error", err.Error())
		}
	}
}
