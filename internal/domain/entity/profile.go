package entity

import "time"

// EmotionalDimensions 情绪向量的标准维度
var EmotionalDimensions = []string{
	"melancholic",
	"uplifting",
	"introspective",
	"energetic",
	"nostalgic",
	"romantic",
	"rebellious",
	"peaceful",
}

// Profile 匹配目标：主/次属性标签 + 情绪向量
// 每次工作流运行生成一次，之后只读。
type Profile struct {
	Primary    []string           `json:"primary"`
	Secondary  []string           `json:"secondary"`
	Vibe       string             `json:"vibe,omitempty"`
	Emotional  map[string]float64 `json:"emotional,omitempty"`
	GenreHints []string           `json:"genre_hints,omitempty"`
}

// TagUnion 返回 primary ∪ secondary（去重）
func (p *Profile) TagUnion() map[string]struct{} {
	if p == nil {
		return map[string]struct{}{}
	}
	out := make(map[string]struct{}, len(p.Primary)+len(p.Secondary))
	for _, t := range p.Primary {
		out[t] = struct{}{}
	}
	for _, t := range p.Secondary {
		out[t] = struct{}{}
	}
	return out
}

// Genome 意图分析结果：Profile + 参考曲目
type Genome struct {
	Profile     Profile      `json:"profile"`
	Tracks      []*Candidate `json:"tracks"`
	GeneratedAt time.Time    `json:"generated_at"`
}
