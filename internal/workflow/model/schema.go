package model

import (
	"fmt"
	"strings"

	"story-loop-api/internal/domain/entity"
)

// SchemaError 模型输出不符合约定的结构
type SchemaError struct {
	Schema string
	Issues []string
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return e.Schema + " validation failed"
	}
	return e.Schema + " validation failed: " + strings.Join(e.Issues, "; ")
}

func schemaErr(name string, issues []string) error {
	if len(issues) == 0 {
		return nil
	}
	return &SchemaError{Schema: name, Issues: issues}
}

// GenomeAttributesOutput 意图分析输出
type GenomeAttributesOutput struct {
	Primary    []string           `json:"primary"`
	Secondary  []string           `json:"secondary"`
	Vibe       string             `json:"vibe"`
	Emotional  map[string]float64 `json:"emotional"`
	GenreHints []string           `json:"genre_hints"`
}

// Validate 校验意图分析输出
func (o *GenomeAttributesOutput) Validate() error {
	var issues []string
	if len(entity.NormalizeTerms(o.Primary)) == 0 {
		issues = append(issues, "primary must not be empty")
	}
	for dim, v := range o.Emotional {
		if v < 0 || v > 1 {
			issues = append(issues, fmt.Sprintf("emotional.%s out of range: %v", dim, v))
		}
	}
	return schemaErr("genome_attributes", issues)
}

// Profile 转为领域 Profile
func (o *GenomeAttributesOutput) Profile() entity.Profile {
	return entity.Profile{
		Primary:    entity.NormalizeTerms(o.Primary),
		Secondary:  entity.NormalizeTerms(o.Secondary),
		Vibe:       strings.TrimSpace(o.Vibe),
		Emotional:  o.Emotional,
		GenreHints: entity.NormalizeTerms(o.GenreHints),
	}
}

// TrackOutput 参考曲目
type TrackOutput struct {
	Title      string             `json:"title"`
	Artist     string             `json:"artist"`
	Reason     string             `json:"reason"`
	Attributes []string           `json:"attributes"`
	Emotional  map[string]float64 `json:"emotional"`
}

// TracksOutput 参考曲目列表
type TracksOutput struct {
	Tracks []TrackOutput `json:"tracks"`
}

// Validate 校验曲目列表
func (o *TracksOutput) Validate() error {
	var issues []string
	for i, t := range o.Tracks {
		if strings.TrimSpace(t.Title) == "" {
			issues = append(issues, fmt.Sprintf("tracks[%d].title is required", i))
		}
	}
	return schemaErr("genome_tracks", issues)
}

// Candidates 转为候选（Match 由调用方打分）
func (o *TracksOutput) Candidates() []*entity.Candidate {
	out := make([]*entity.Candidate, 0, len(o.Tracks))
	for i, t := range o.Tracks {
		out = append(out, &entity.Candidate{
			ID:            fmt.Sprintf("track_%d", i+1),
			Title:         strings.TrimSpace(t.Title),
			Artist:        strings.TrimSpace(t.Artist),
			Reason:        strings.TrimSpace(t.Reason),
			AttributeTags: entity.NormalizeTerms(t.Attributes),
			Emotional:     t.Emotional,
		})
	}
	return out
}

// PitchOutput 单个 pitch
type PitchOutput struct {
	Title        string   `json:"title"`
	Synopsis     string   `json:"synopsis"`
	Keywords     []string `json:"keywords"`
	Demographics []string `json:"demographics"`
	Core         []string `json:"core"`
	MusicVibe    string   `json:"music_vibe"`
	Attributes   []string `json:"attributes"`
}

// Validate 校验单个 pitch
func (o *PitchOutput) Validate() error {
	return schemaErr("pitch", o.issues(""))
}

func (o *PitchOutput) issues(path string) []string {
	var issues []string
	if strings.TrimSpace(o.Title) == "" {
		issues = append(issues, path+"title is required")
	}
	if len(entity.NormalizeTerms(o.Keywords)) == 0 {
		issues = append(issues, path+"keywords must not be empty")
	}
	return issues
}

// Candidate 转为候选
func (o *PitchOutput) Candidate() *entity.Candidate {
	return &entity.Candidate{
		Title:         strings.TrimSpace(o.Title),
		Synopsis:      strings.TrimSpace(o.Synopsis),
		Keywords:      entity.NormalizeTerms(o.Keywords),
		Demographics:  entity.NormalizeTerms(o.Demographics),
		Core:          entity.NormalizeTerms(o.Core),
		AttributeTags: entity.NormalizeTerms(o.Attributes),
		MusicVibe:     strings.TrimSpace(o.MusicVibe),
	}
}

// PitchesOutput pitch 列表
type PitchesOutput struct {
	Pitches []PitchOutput `json:"pitches"`
}

// Validate 校验 pitch 列表
func (o *PitchesOutput) Validate() error {
	var issues []string
	if len(o.Pitches) == 0 {
		issues = append(issues, "pitches must not be empty")
	}
	for i := range o.Pitches {
		issues = append(issues, o.Pitches[i].issues(fmt.Sprintf("pitches[%d].", i))...)
	}
	return schemaErr("pitches", issues)
}

// Candidates 转为候选
func (o *PitchesOutput) Candidates() []*entity.Candidate {
	out := make([]*entity.Candidate, len(o.Pitches))
	for i := range o.Pitches {
		out[i] = o.Pitches[i].Candidate()
	}
	return out
}

// ChapterOutput 章节大纲
type ChapterOutput struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	TargetPages int    `json:"target_pages"`
}

// StructureOutput 书籍结构
type StructureOutput struct {
	Title    string          `json:"title"`
	Synopsis string          `json:"synopsis"`
	Chapters []ChapterOutput `json:"chapters"`
}

// Validate 校验书籍结构的形状；页数上限由调用方按策略检查
func (o *StructureOutput) Validate() error {
	var issues []string
	if strings.TrimSpace(o.Title) == "" {
		issues = append(issues, "title is required")
	}
	if len(o.Chapters) == 0 {
		issues = append(issues, "chapters must not be empty")
	}
	for i, ch := range o.Chapters {
		if strings.TrimSpace(ch.Title) == "" {
			issues = append(issues, fmt.Sprintf("chapters[%d].title is required", i))
		}
		if ch.TargetPages < 1 {
			issues = append(issues, fmt.Sprintf("chapters[%d].target_pages must be positive", i))
		}
	}
	return schemaErr("structure", issues)
}

// Structure 转为领域结构，章节按输出顺序重新编号
func (o *StructureOutput) Structure() *entity.Structure {
	s := &entity.Structure{
		Title:    strings.TrimSpace(o.Title),
		Synopsis: strings.TrimSpace(o.Synopsis),
		Chapters: make([]entity.Chapter, len(o.Chapters)),
	}
	for i, ch := range o.Chapters {
		s.Chapters[i] = entity.Chapter{
			Number:      i + 1,
			Title:       strings.TrimSpace(ch.Title),
			Summary:     strings.TrimSpace(ch.Summary),
			TargetPages: ch.TargetPages,
		}
	}
	return s
}
