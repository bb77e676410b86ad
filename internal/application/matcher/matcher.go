// Package matcher 计算候选与目标 Profile 的匹配分
package matcher

import (
	"math"
	"sort"

	"story-loop-api/internal/domain/entity"
)

const (
	overlapShare   = 0.7
	emotionalShare = 0.3
)

// Score 返回 [0,100] 的匹配分
// 有共同情绪维度时按 7:3 合成标签重合度与情绪相似度，否则只用标签重合度。
func Score(c *entity.Candidate, p *entity.Profile) int {
	if c == nil || p == nil {
		return 0
	}

	overlap := Overlap(c.AttributeTags, p)
	emotional, ok := EmotionalMatch(c.Emotional, p.Emotional)

	var score float64
	if ok {
		score = overlap*overlapShare + emotional*100*emotionalShare
	} else {
		score = overlap
	}
	return clamp(int(math.Round(score)))
}

// Overlap 标签重合度 (0-100)，Profile 标签为空时为 0
func Overlap(tags []string, p *entity.Profile) float64 {
	union := p.TagUnion()
	if len(union) == 0 {
		return 0
	}
	hit := 0
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := union[t]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(union)) * 100
}

// EmotionalMatch 共同维度上的 1 - 平均绝对差，下限 0
// 没有共同维度时 ok 为 false。
func EmotionalMatch(candidate, profile map[string]float64) (float64, bool) {
	if len(candidate) == 0 || len(profile) == 0 {
		return 0, false
	}
	var sum float64
	n := 0
	for dim, cv := range candidate {
		pv, ok := profile[dim]
		if !ok {
			continue
		}
		sum += math.Abs(cv - pv)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return math.Max(0, 1-sum/float64(n)), true
}

// Rank 为每个候选写入 Match 并按分数降序稳定排序
func Rank(candidates []*entity.Candidate, p *entity.Profile) []*entity.Candidate {
	out := make([]*entity.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		c.Match = Score(c, p)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Match > out[j].Match
	})
	return out
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
