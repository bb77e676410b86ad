// Package workflow 编排 cover → intent → profile → pitching → structure → generating 的步骤状态机
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"story-loop-api/internal/application/generation"
	"story-loop-api/internal/application/matcher"
	"story-loop-api/internal/application/preference"
	"story-loop-api/internal/domain/entity"
	wfmodel "story-loop-api/internal/workflow/model"
	"story-loop-api/internal/workflow/port"
	apperrors "story-loop-api/pkg/errors"
	"story-loop-api/pkg/logger"
	"story-loop-api/pkg/metrics"
)

// 默认策略
const (
	DefaultMinApprovals  = 2
	DefaultPitchPoolSize = 5
	emphasisTerms        = 12
)

// Policy 工作流策略常量
type Policy struct {
	MinApprovals  int
	PitchPoolSize int
	MaxPages      int
	Weights       preference.Weights
}

// DefaultPolicy 默认策略
func DefaultPolicy() Policy {
	return Policy{
		MinApprovals:  DefaultMinApprovals,
		PitchPoolSize: DefaultPitchPoolSize,
		MaxPages:      generation.DefaultMaxPages,
		Weights:       preference.DefaultWeights(),
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MinApprovals <= 0 {
		p.MinApprovals = d.MinApprovals
	}
	if p.PitchPoolSize <= 0 {
		p.PitchPoolSize = d.PitchPoolSize
	}
	if p.MaxPages <= 0 {
		p.MaxPages = d.MaxPages
	}
	if p.Weights == (preference.Weights{}) {
		p.Weights = d.Weights
	}
	return p
}

// JobStarter 启动整书生成
type JobStarter interface {
	StartJob(ctx context.Context, structure *entity.Structure, opts generation.Options) (string, error)
}

// DecisionHook 决定记录后的回调
type DecisionHook func(ctx context.Context, sessionID string, d entity.Decision)

// VoteResult 一次投票的结果
type VoteResult struct {
	Decision    entity.Decision
	Weights     entity.WeightedTermSet
	Replacement *entity.Candidate
}

// Controller 单个会话的步骤状态机，不做并发保护，由调用方串行访问
type Controller struct {
	session *entity.Session
	policy  Policy
	covers  []entity.CoverOption
	gen     port.ContentGenerator
	jobs    JobStarter
	model   *preference.Model
	llm     wfmodel.LLMOptions
	hook    DecisionHook
}

// ControllerDeps 控制器依赖
type ControllerDeps struct {
	Policy    Policy
	Covers    []entity.CoverOption
	Generator port.ContentGenerator
	Jobs      JobStarter
	LLM       wfmodel.LLMOptions
	OnDecide  DecisionHook
}

// NewController 为会话创建控制器
func NewController(session *entity.Session, deps ControllerDeps) *Controller {
	covers := deps.Covers
	if len(covers) == 0 {
		covers = entity.DefaultCovers()
	}
	return &Controller{
		session: session,
		policy:  deps.Policy.normalized(),
		covers:  covers,
		gen:     deps.Generator,
		jobs:    deps.Jobs,
		model:   preference.NewModel(deps.Policy.normalized().Weights, session.Decisions...),
		llm:     deps.LLM,
		hook:    deps.OnDecide,
	}
}

// Session 返回会话（调用方不得在锁外修改）
func (c *Controller) Session() *entity.Session {
	return c.session
}

// Step 当前步骤
func (c *Controller) Step() entity.Step {
	return c.session.Step
}

// Covers 封面目录
func (c *Controller) Covers() []entity.CoverOption {
	return c.covers
}

// SelectCover cover → intent
func (c *Controller) SelectCover(ctx context.Context, coverID int) error {
	if err := c.require(entity.StepCover); err != nil {
		return err
	}
	for i := range c.covers {
		if c.covers[i].ID == coverID {
			cover := c.covers[i]
			c.session.Cover = &cover
			c.advance(ctx)
			return nil
		}
	}
	return apperrors.ErrCoverNotFound.WithDetail(fmt.Sprintf("cover %d", coverID))
}

// SubmitIntent intent → profile
func (c *Controller) SubmitIntent(ctx context.Context, text string) error {
	if err := c.require(entity.StepIntent); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.Validation("intent must not be empty")
	}
	c.session.Intent = text
	c.advance(ctx)
	return nil
}

// GenerateProfile profile → pitching：分析意图得到 Genome 并生成初始 pitch 池
func (c *Controller) GenerateProfile(ctx context.Context) error {
	if err := c.require(entity.StepProfile); err != nil {
		return err
	}

	genome, err := c.gen.AnalyzeIntent(ctx, &wfmodel.IntentInput{
		Cover:      *c.session.Cover,
		Intent:     c.session.Intent,
		LLMOptions: c.llm,
	})
	if err != nil {
		return asGenerationError(err, "analyze intent")
	}
	if genome == nil {
		return apperrors.Generation(nil, "analyze intent returned no genome")
	}
	genome.Tracks = matcher.Rank(genome.Tracks, &genome.Profile)

	pitches, err := c.gen.GeneratePitches(ctx, &wfmodel.PitchInput{
		Cover:      *c.session.Cover,
		Intent:     c.session.Intent,
		Profile:    genome.Profile,
		Count:      c.policy.PitchPoolSize,
		MaxPages:   c.policy.MaxPages,
		LLMOptions: c.llm,
	})
	if err != nil {
		return asGenerationError(err, "generate pitches")
	}
	pool := make([]*entity.Candidate, 0, len(pitches))
	seen := make(map[string]struct{}, len(pitches))
	for _, p := range pitches {
		if p == nil {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			p.ID = ""
		}
		c.prepare(p, &genome.Profile)
		seen[p.ID] = struct{}{}
		pool = append(pool, p)
	}
	if len(pool) == 0 {
		return apperrors.Generation(nil, "generate pitches returned no candidates")
	}
	pool = matcher.Rank(pool, &genome.Profile)
	if len(pool) > c.policy.PitchPoolSize {
		pool = pool[:c.policy.PitchPoolSize]
	}

	c.session.Genome = genome
	c.session.Pitches = pool
	c.advance(ctx)
	return nil
}

// Vote 记录 approve/deny，移除该 pitch 并请求一个替补
// 替补失败时决定依然保留，返回 GenerationError，可稍后调用 ReplenishPitches。
func (c *Controller) Vote(ctx context.Context, candidateID string, outcome entity.Outcome) (*VoteResult, error) {
	if err := c.require(entity.StepPitching); err != nil {
		return nil, err
	}
	if !outcome.Valid() {
		return nil, apperrors.Validation("outcome must be approved or denied, got %q", outcome)
	}
	idx := c.session.PitchIndex(candidateID)
	if idx < 0 {
		return nil, apperrors.ErrPitchNotFound.WithDetail(candidateID)
	}

	candidate := c.session.Pitches[idx]
	weights, decision := c.model.RecordDecision(candidate, outcome)
	c.session.Decisions = append(c.session.Decisions, decision)
	c.session.Weights = weights
	c.session.Pitches = append(c.session.Pitches[:idx:idx], c.session.Pitches[idx+1:]...)
	c.touch()

	metrics.PitchVotesTotal.WithLabelValues(string(outcome)).Inc()
	logger.Info(ctx, "pitch decision recorded",
		"candidate_id", candidateID,
		"outcome", outcome,
		"approvals", c.session.Approvals(),
		"terms", weights.Len(),
	)
	if c.hook != nil {
		c.hook(ctx, c.session.ID, decision)
	}

	result := &VoteResult{Decision: decision, Weights: weights.Clone()}
	replacement, err := c.refine(ctx)
	if err != nil {
		return result, err
	}
	result.Replacement = replacement
	return result, nil
}

// ReplenishPitches 补足 pitch 池，返回新增的候选
func (c *Controller) ReplenishPitches(ctx context.Context) ([]*entity.Candidate, error) {
	if err := c.require(entity.StepPitching); err != nil {
		return nil, err
	}
	var added []*entity.Candidate
	for len(c.session.Pitches) < c.policy.PitchPoolSize {
		p, err := c.refine(ctx)
		if err != nil {
			return added, err
		}
		added = append(added, p)
	}
	return added, nil
}

// ApproveStructure pitching → structure：至少 MinApprovals 个通过后生成章节结构
func (c *Controller) ApproveStructure(ctx context.Context) (*entity.Structure, error) {
	if err := c.require(entity.StepPitching); err != nil {
		return nil, err
	}
	if n := c.session.Approvals(); n < c.policy.MinApprovals {
		return nil, apperrors.Validation("need at least %d approved pitches, have %d", c.policy.MinApprovals, n)
	}

	structure, err := c.gen.CreateStructure(ctx, &wfmodel.StructureInput{
		Cover:      *c.session.Cover,
		Intent:     c.session.Intent,
		Approved:   c.session.ApprovedCandidates(),
		Weights:    c.session.Weights.Clone(),
		MaxPages:   c.policy.MaxPages,
		LLMOptions: c.llm,
	})
	if err != nil {
		return nil, asGenerationError(err, "create structure")
	}
	if err := generation.ValidateStructure(structure, c.policy.MaxPages); err != nil {
		return nil, apperrors.Generation(err, "structure does not conform")
	}

	c.session.Structure = structure
	c.advance(ctx)
	return structure.Clone(), nil
}

// StartGeneration structure → generating：拿到任务 ID 即转移，不等待生成完成
func (c *Controller) StartGeneration(ctx context.Context) (string, error) {
	if err := c.require(entity.StepStructure); err != nil {
		return "", err
	}
	opts := generation.Options{
		SessionID: c.session.ID,
		Emphasis:  topTerms(c.session.Weights, emphasisTerms),
	}
	if c.session.Cover != nil {
		opts.Style = c.session.Cover.Style + ", " + c.session.Cover.Mood
	}
	jobID, err := c.jobs.StartJob(ctx, c.session.Structure, opts)
	if err != nil {
		return "", err
	}
	c.session.JobID = jobID
	c.advance(ctx)
	return jobID, nil
}

func (c *Controller) refine(ctx context.Context) (*entity.Candidate, error) {
	var approvedCores, deniedCores, exclude []string
	for _, d := range c.session.Decisions {
		exclude = append(exclude, d.Candidate.Title)
		if d.Approved() {
			approvedCores = append(approvedCores, d.Candidate.Core...)
		} else {
			deniedCores = append(deniedCores, d.Candidate.Core...)
		}
	}
	for _, p := range c.session.Pitches {
		exclude = append(exclude, p.Title)
	}

	in := &wfmodel.RefineInput{
		Cover:         *c.session.Cover,
		Intent:        c.session.Intent,
		Profile:       c.session.Genome.Profile,
		Weights:       c.session.Weights.Clone(),
		ApprovedCores: entity.NormalizeTerms(approvedCores),
		DeniedCores:   entity.NormalizeTerms(deniedCores),
		Exclude:       exclude,
		LLMOptions:    c.llm,
	}
	p, err := c.gen.RefinePitch(ctx, in)
	if err != nil {
		return nil, asGenerationError(err, "refine pitch")
	}
	if p == nil {
		return nil, apperrors.Generation(nil, "refine pitch returned no candidate")
	}
	c.prepare(p, &c.session.Genome.Profile)
	c.session.Pitches = append(c.session.Pitches, p)
	c.touch()
	return p, nil
}

// prepare 补齐 ID 与匹配标签
func (c *Controller) prepare(p *entity.Candidate, profile *entity.Profile) {
	if p.ID == "" || c.session.PitchIndex(p.ID) >= 0 || c.decided(p.ID) {
		p.ID = uuid.NewString()
	}
	if len(p.AttributeTags) == 0 {
		p.AttributeTags = entity.NormalizeTerms(append(append([]string{}, p.Keywords...), p.Core...))
	}
	if profile != nil {
		p.Match = matcher.Score(p, profile)
	}
}

func (c *Controller) decided(id string) bool {
	for _, d := range c.session.Decisions {
		if d.Candidate.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) require(step entity.Step) error {
	if c.session.Step != step {
		return apperrors.ErrStepConflict.WithDetail(fmt.Sprintf("expected step %s, session is at %s", step, c.session.Step))
	}
	return nil
}

func (c *Controller) advance(ctx context.Context) {
	from := c.session.Step
	c.session.Step = from.Next()
	c.touch()
	metrics.WorkflowTransitionsTotal.WithLabelValues(string(from), string(c.session.Step)).Inc()
	logger.Info(ctx, "workflow step advanced", "from", from, "to", c.session.Step)
}

func (c *Controller) touch() {
	c.session.UpdatedAt = time.Now()
}

func topTerms(w entity.WeightedTermSet, n int) []string {
	terms := w.Terms()
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

func asGenerationError(err error, op string) error {
	if apperrors.IsGeneration(err) {
		return err
	}
	return apperrors.Generation(err, "%s", op)
}
