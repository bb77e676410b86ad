package node

import (
	"fmt"
	"sort"
	"strings"

	"story-loop-api/internal/domain/entity"
)

const (
	synopsisMaxRunes = 400
	none             = "(none)"
)

// BuildWeightsBlock 词云按权重降序输出，limit<=0 表示不限制
func BuildWeightsBlock(ws entity.WeightedTermSet, limit int) string {
	ranked := ws.Ranked()
	if len(ranked) == 0 {
		return none
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	parts := make([]string, len(ranked))
	for i, tw := range ranked {
		parts[i] = fmt.Sprintf("%s (%d)", tw.Term, tw.Weight)
	}
	return strings.Join(parts, ", ")
}

// BuildCandidatesBlock 已通过 pitch 的摘要
func BuildCandidatesBlock(cands []*entity.Candidate) string {
	lines := make([]string, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		line := "- " + strings.TrimSpace(c.Title)
		if s := strings.TrimSpace(c.Synopsis); s != "" {
			line += ": " + Preview(s, synopsisMaxRunes)
		}
		if len(c.Core) > 0 {
			line += "\n  core: " + strings.Join(c.Core, ", ")
		}
		if len(c.Keywords) > 0 {
			line += "\n  keywords: " + strings.Join(c.Keywords, ", ")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return none
	}
	return strings.Join(lines, "\n")
}

// BuildListBlock 每行一项的列表
func BuildListBlock(items []string) string {
	items = entity.NormalizeTerms(items)
	if len(items) == 0 {
		return none
	}
	return "- " + strings.Join(items, "\n- ")
}

// FormatEmotional 按标准维度顺序输出情绪向量，未知维度按字典序追加
func FormatEmotional(v map[string]float64) string {
	if len(v) == 0 {
		return none
	}
	seen := make(map[string]struct{}, len(entity.EmotionalDimensions))
	parts := make([]string, 0, len(v))
	for _, dim := range entity.EmotionalDimensions {
		seen[dim] = struct{}{}
		if score, ok := v[dim]; ok {
			parts = append(parts, fmt.Sprintf("%s %.2f", dim, score))
		}
	}
	var extra []string
	for dim := range v {
		if _, ok := seen[dim]; !ok {
			extra = append(extra, dim)
		}
	}
	sort.Strings(extra)
	for _, dim := range extra {
		parts = append(parts, fmt.Sprintf("%s %.2f", dim, v[dim]))
	}
	return strings.Join(parts, ", ")
}

// BuildProfileBlock Profile 与参考曲目
func BuildProfileBlock(p entity.Profile, tracks []*entity.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Primary: %s\n", joinOrNone(p.Primary))
	fmt.Fprintf(&b, "Secondary: %s\n", joinOrNone(p.Secondary))
	if v := strings.TrimSpace(p.Vibe); v != "" {
		fmt.Fprintf(&b, "Vibe: %s\n", v)
	}
	fmt.Fprintf(&b, "Emotional: %s", FormatEmotional(p.Emotional))
	if len(tracks) > 0 {
		b.WriteString("\nReference songs:")
		for _, t := range tracks {
			if t == nil {
				continue
			}
			fmt.Fprintf(&b, "\n- %s", t.Title)
			if t.Artist != "" {
				fmt.Fprintf(&b, " by %s", t.Artist)
			}
		}
	}
	return b.String()
}

// BuildOutlineBlock 全书大纲，标记当前章节
func BuildOutlineBlock(s *entity.Structure, current int) string {
	if s == nil || len(s.Chapters) == 0 {
		return none
	}
	lines := make([]string, len(s.Chapters))
	for i, ch := range s.Chapters {
		marker := " "
		if ch.Number == current {
			marker = ">"
		}
		lines[i] = fmt.Sprintf("%s %d. %s (%d pages): %s", marker, ch.Number, ch.Title, ch.TargetPages, Preview(ch.Summary, synopsisMaxRunes))
	}
	return strings.Join(lines, "\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return none
	}
	return strings.Join(items, ", ")
}
