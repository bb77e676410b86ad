// Package entity 定义领域实体
package entity

import (
	"sort"
	"strings"
)

// WeightedTermSet 词云：Term -> 累计偏好权重
// 不变量：不存在权重 <= 0 的条目。
type WeightedTermSet map[string]int

// TermWeight 单个词及其权重
type TermWeight struct {
	Term   string `json:"term"`
	Weight int    `json:"weight"`
}

// Weight 返回词的权重，不存在时为 0
func (s WeightedTermSet) Weight(term string) int {
	return s[term]
}

// Len 返回条目数
func (s WeightedTermSet) Len() int {
	return len(s)
}

// Clone 返回独立副本
func (s WeightedTermSet) Clone() WeightedTermSet {
	out := make(WeightedTermSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal 比较两个词云是否完全一致
func (s WeightedTermSet) Equal(other WeightedTermSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Ranked 按权重降序返回（同权重按字典序）
func (s WeightedTermSet) Ranked() []TermWeight {
	out := make([]TermWeight, 0, len(s))
	for k, v := range s {
		out = append(out, TermWeight{Term: k, Weight: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// Terms 按权重降序返回词列表
func (s WeightedTermSet) Terms() []string {
	ranked := s.Ranked()
	out := make([]string, len(ranked))
	for i, tw := range ranked {
		out[i] = tw.Term
	}
	return out
}

// NormalizeTerms 去除首尾空白、丢弃空词并去重，保持原顺序
func NormalizeTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
