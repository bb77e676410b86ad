// Package preference 维护由 approve/deny 决定累计出的词云
package preference

import (
	"sync"

	"story-loop-api/internal/domain/entity"
)

// Weights 各类决定对词权重的增量
type Weights struct {
	ApproveKeyword     int `mapstructure:"approve_keyword" json:"approve_keyword"`
	ApproveDemographic int `mapstructure:"approve_demographic" json:"approve_demographic"`
	DenyKeyword        int `mapstructure:"deny_keyword" json:"deny_keyword"`
	DenyDemographic    int `mapstructure:"deny_demographic" json:"deny_demographic"`
}

// DefaultWeights 默认权重：通过 +3/+2，否决只惩罚关键词 -1
func DefaultWeights() Weights {
	return Weights{
		ApproveKeyword:     3,
		ApproveDemographic: 2,
		DenyKeyword:        -1,
		DenyDemographic:    0,
	}
}

// Compute 由完整决定历史重新计算词云
// 相同历史总是得到相同结果，权重 <= 0 的词被剔除。
func Compute(history []entity.Decision, w Weights) entity.WeightedTermSet {
	acc := NewAccumulator(w)
	for _, d := range history {
		acc.Add(d)
	}
	return acc.Snapshot()
}

// Model 单个会话的偏好模型
type Model struct {
	mu      sync.Mutex
	weights Weights
	history []entity.Decision
}

// NewModel 创建偏好模型，可携带已有历史
func NewModel(w Weights, history ...entity.Decision) *Model {
	h := make([]entity.Decision, len(history))
	copy(h, history)
	return &Model{weights: w, history: h}
}

// RecordDecision 记录一次决定并返回新的词云快照
func (m *Model) RecordDecision(c *entity.Candidate, outcome entity.Outcome) (entity.WeightedTermSet, entity.Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := entity.NewDecision(len(m.history)+1, c, outcome)
	m.history = append(m.history, d)
	return Compute(m.history, m.weights), d
}

// Snapshot 当前词云
func (m *Model) Snapshot() entity.WeightedTermSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Compute(m.history, m.weights)
}

// History 决定历史副本
func (m *Model) History() []entity.Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Decision, len(m.history))
	copy(out, m.history)
	return out
}

// Len 决定条数
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}
