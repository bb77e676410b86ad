package preference

import (
	"story-loop-api/internal/domain/entity"
)

// Accumulator 增量维护词云
// 内部保存未剔除的原始累计值，Snapshot 时再剔除 <= 0 的词，
// 因此任意历史下结果与 Compute 一致。
type Accumulator struct {
	weights Weights
	raw     map[string]int
	count   int
}

// NewAccumulator 创建累加器
func NewAccumulator(w Weights) *Accumulator {
	return &Accumulator{weights: w, raw: make(map[string]int)}
}

// Add 计入一条决定
func (a *Accumulator) Add(d entity.Decision) {
	a.count++
	if d.Candidate == nil {
		return
	}
	kw, demo := a.weights.DenyKeyword, a.weights.DenyDemographic
	if d.Approved() {
		kw, demo = a.weights.ApproveKeyword, a.weights.ApproveDemographic
	}
	a.apply(d.Candidate.Keywords, kw)
	a.apply(d.Candidate.Demographics, demo)
}

func (a *Accumulator) apply(terms []string, delta int) {
	if delta == 0 {
		return
	}
	for _, t := range entity.NormalizeTerms(terms) {
		a.raw[t] += delta
	}
}

// Count 已计入的决定数
func (a *Accumulator) Count() int {
	return a.count
}

// Snapshot 返回剔除后的词云副本
func (a *Accumulator) Snapshot() entity.WeightedTermSet {
	out := make(entity.WeightedTermSet, len(a.raw))
	for t, v := range a.raw {
		if v > 0 {
			out[t] = v
		}
	}
	return out
}
