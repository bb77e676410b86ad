// Package generator 基于 LLM 调用链实现内容生成协作者
package generator

import (
	"context"
	"strings"
	"time"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/workflow/chain"
	wfmodel "story-loop-api/internal/workflow/model"
	wfnode "story-loop-api/internal/workflow/node"
	workflowport "story-loop-api/internal/workflow/port"
	workflowprompt "story-loop-api/internal/workflow/prompt"
	apperrors "story-loop-api/pkg/errors"
	"story-loop-api/pkg/logger"
)

const (
	// DefaultTrackCount 参考曲目数量
	DefaultTrackCount = 8
	// TokensPerPage 章节生成的 max_tokens 估算
	TokensPerPage = 500

	weightsLimit    = 20
	defaultMaxPages = 96
)

// Config 生成器配置
type Config struct {
	TrackCount int `mapstructure:"track_count"`
}

// LLMGenerator 通过 Eino 调用链实现 port.ContentGenerator
type LLMGenerator struct {
	cfg Config

	attributes *chain.PromptChain
	tracks     *chain.PromptChain
	pitches    *chain.PromptChain
	refine     *chain.PromptChain
	structure  *chain.PromptChain
	chapter    *chain.PromptChain
}

var _ workflowport.ContentGenerator = (*LLMGenerator)(nil)

// NewLLMGenerator 创建 LLM 生成器
func NewLLMGenerator(factory workflowport.ChatModelFactory, cfg Config) *LLMGenerator {
	if cfg.TrackCount <= 0 {
		cfg.TrackCount = DefaultTrackCount
	}
	registry := workflowprompt.NewRegistry()
	return &LLMGenerator{
		cfg:        cfg,
		attributes: chain.NewPromptChain(factory, registry, chain.GenomeAttributesSpec),
		tracks:     chain.NewPromptChain(factory, registry, chain.GenomeTracksSpec),
		pitches:    chain.NewPromptChain(factory, registry, chain.PitchesSpec),
		refine:     chain.NewPromptChain(factory, registry, chain.PitchRefineSpec),
		structure:  chain.NewPromptChain(factory, registry, chain.StructureSpec),
		chapter:    chain.NewPromptChain(factory, registry, chain.ChapterSpec),
	}
}

// AnalyzeIntent 两次调用：意图 → 属性，属性 → 参考曲目
func (g *LLMGenerator) AnalyzeIntent(ctx context.Context, in *wfmodel.IntentInput) (*entity.Genome, error) {
	if in == nil {
		return nil, apperrors.Validation("intent input is nil")
	}

	var attrs wfmodel.GenomeAttributesOutput
	if err := g.invokeJSON(ctx, g.attributes, in.LLMOptions, map[string]any{
		"intent":      strings.TrimSpace(in.Intent),
		"cover_style": in.Cover.Style,
		"cover_mood":  in.Cover.Mood,
		"dimensions":  strings.Join(entity.EmotionalDimensions, ", "),
	}, &attrs); err != nil {
		return nil, err
	}
	profile := attrs.Profile()

	var tracks wfmodel.TracksOutput
	if err := g.invokeJSON(ctx, g.tracks, in.LLMOptions, map[string]any{
		"track_count": g.cfg.TrackCount,
		"primary":     strings.Join(profile.Primary, ", "),
		"secondary":   strings.Join(profile.Secondary, ", "),
		"vibe":        profile.Vibe,
		"emotional":   wfnode.FormatEmotional(profile.Emotional),
		"genre_hints": strings.Join(profile.GenreHints, ", "),
	}, &tracks); err != nil {
		return nil, err
	}

	return &entity.Genome{
		Profile:     profile,
		Tracks:      tracks.Candidates(),
		GeneratedAt: time.Now(),
	}, nil
}

// GeneratePitches 生成初始 pitch 池
func (g *LLMGenerator) GeneratePitches(ctx context.Context, in *wfmodel.PitchInput) ([]*entity.Candidate, error) {
	if in == nil {
		return nil, apperrors.Validation("pitch input is nil")
	}
	var out wfmodel.PitchesOutput
	if err := g.invokeJSON(ctx, g.pitches, in.LLMOptions, map[string]any{
		"count":         in.Count,
		"max_pages":     maxPagesOrDefault(in.MaxPages),
		"intent":        strings.TrimSpace(in.Intent),
		"cover_style":   in.Cover.Style,
		"cover_mood":    in.Cover.Mood,
		"profile_block": wfnode.BuildProfileBlock(in.Profile, nil),
	}, &out); err != nil {
		return nil, err
	}
	return out.Candidates(), nil
}

// RefinePitch 根据词云与决定历史生成一个替补 pitch
func (g *LLMGenerator) RefinePitch(ctx context.Context, in *wfmodel.RefineInput) (*entity.Candidate, error) {
	if in == nil {
		return nil, apperrors.Validation("refine input is nil")
	}
	var out wfmodel.PitchOutput
	if err := g.invokeJSON(ctx, g.refine, in.LLMOptions, map[string]any{
		"intent":         strings.TrimSpace(in.Intent),
		"cover_style":    in.Cover.Style,
		"cover_mood":     in.Cover.Mood,
		"weights_block":  wfnode.BuildWeightsBlock(in.Weights, weightsLimit),
		"approved_block": wfnode.BuildListBlock(in.ApprovedCores),
		"denied_block":   wfnode.BuildListBlock(in.DeniedCores),
		"exclude_block":  wfnode.BuildListBlock(in.Exclude),
	}, &out); err != nil {
		return nil, err
	}
	return out.Candidate(), nil
}

// CreateStructure 由通过的 pitch 生成章节结构
func (g *LLMGenerator) CreateStructure(ctx context.Context, in *wfmodel.StructureInput) (*entity.Structure, error) {
	if in == nil {
		return nil, apperrors.Validation("structure input is nil")
	}
	var out wfmodel.StructureOutput
	if err := g.invokeJSON(ctx, g.structure, in.LLMOptions, map[string]any{
		"approved_block": wfnode.BuildCandidatesBlock(in.Approved),
		"weights_block":  wfnode.BuildWeightsBlock(in.Weights, weightsLimit),
		"max_pages":      maxPagesOrDefault(in.MaxPages),
		"cover_style":    in.Cover.Style,
		"cover_mood":     in.Cover.Mood,
	}, &out); err != nil {
		return nil, err
	}
	return out.Structure(), nil
}

// WriteChapter 生成单章正文
func (g *LLMGenerator) WriteChapter(ctx context.Context, in *wfmodel.ChapterInput) (string, error) {
	if in == nil || in.Structure == nil {
		return "", apperrors.Validation("chapter input is nil")
	}
	opts := in.LLMOptions
	if opts.MaxTokens == nil {
		n := in.Chapter.TargetPages * TokensPerPage
		opts.MaxTokens = &n
	}

	msg, err := g.chapter.Invoke(ctx, &chain.Request{
		Vars: map[string]any{
			"chapter_number":  in.Chapter.Number,
			"chapter_title":   in.Chapter.Title,
			"chapter_summary": in.Chapter.Summary,
			"book_title":      in.Structure.Title,
			"book_synopsis":   in.Structure.Synopsis,
			"outline_block":   wfnode.BuildOutlineBlock(in.Structure, in.Chapter.Number),
			"emphasis":        joinOr(in.Emphasis, "(none)"),
			"style":           in.Style,
			"target_words":    in.TargetWords,
		},
		LLMOptions: opts,
	})
	if err != nil {
		return "", apperrors.Generation(err, "chapter %d", in.Chapter.Number)
	}
	return strings.TrimSpace(msg.Content), nil
}

func (g *LLMGenerator) invokeJSON(ctx context.Context, c *chain.PromptChain, opts wfmodel.LLMOptions, vars map[string]any, out validatable) error {
	workflow := c.Spec().Workflow
	msg, err := c.Invoke(ctx, &chain.Request{Vars: vars, LLMOptions: opts})
	if err != nil {
		return apperrors.Generation(err, "%s", workflow)
	}
	if err := wfnode.DecodeJSON(msg.Content, out); err != nil {
		logger.Warn(ctx, "llm output is not valid json",
			"workflow", workflow,
			"output", wfnode.Preview(msg.Content, 200),
		)
		return apperrors.Generation(err, "%s", workflow)
	}
	if err := out.Validate(); err != nil {
		return apperrors.Generation(err, "%s", workflow)
	}
	return nil
}

type validatable interface {
	Validate() error
}

func maxPagesOrDefault(n int) int {
	if n > 0 {
		return n
	}
	return defaultMaxPages
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
