package model

import (
	"story-loop-api/internal/domain/entity"
)

// LLMOptions 单次调用的模型参数
type LLMOptions struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// IntentInput 意图分析输入
type IntentInput struct {
	Cover  entity.CoverOption
	Intent string

	LLMOptions
}

// PitchInput 初始 pitch 池输入
type PitchInput struct {
	Cover    entity.CoverOption
	Intent   string
	Profile  entity.Profile
	Count    int
	MaxPages int

	LLMOptions
}

// RefineInput 替补 pitch 输入
type RefineInput struct {
	Cover         entity.CoverOption
	Intent        string
	Profile       entity.Profile
	Weights       entity.WeightedTermSet
	ApprovedCores []string
	DeniedCores   []string
	Exclude       []string // 已出现过的标题

	LLMOptions
}

// StructureInput 结构生成输入
type StructureInput struct {
	Cover    entity.CoverOption
	Intent   string
	Approved []*entity.Candidate
	Weights  entity.WeightedTermSet
	MaxPages int

	LLMOptions
}

// ChapterInput 单章生成输入
type ChapterInput struct {
	Structure   *entity.Structure
	Chapter     entity.Chapter
	Style       string
	Emphasis    []string
	TargetWords int

	LLMOptions
}
