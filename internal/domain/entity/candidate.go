package entity

import (
	"time"
)

// Candidate 候选单元（故事 pitch 或参考曲目）
type Candidate struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Synopsis      string             `json:"synopsis,omitempty"`
	Artist        string             `json:"artist,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Keywords      []string           `json:"keywords"`
	Demographics  []string           `json:"demographics"`
	Core          []string           `json:"core,omitempty"`
	AttributeTags []string           `json:"attribute_tags,omitempty"`
	Emotional     map[string]float64 `json:"emotional,omitempty"`
	MusicVibe     string             `json:"music_vibe,omitempty"`
	Match         int                `json:"match"`
}

// Clone 深拷贝，Decision 需要不可变快照
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Keywords = cloneStrings(c.Keywords)
	cp.Demographics = cloneStrings(c.Demographics)
	cp.Core = cloneStrings(c.Core)
	cp.AttributeTags = cloneStrings(c.AttributeTags)
	if c.Emotional != nil {
		cp.Emotional = make(map[string]float64, len(c.Emotional))
		for k, v := range c.Emotional {
			cp.Emotional[k] = v
		}
	}
	return &cp
}

// Outcome 用户对候选的决定
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeDenied   Outcome = "denied"
)

// Valid 是否为合法取值
func (o Outcome) Valid() bool {
	return o == OutcomeApproved || o == OutcomeDenied
}

// Decision 一次 approve/deny 记录，按到达顺序编号，记录后不可变
type Decision struct {
	Seq       int        `json:"seq"`
	Candidate *Candidate `json:"candidate"`
	Outcome   Outcome    `json:"outcome"`
	DecidedAt time.Time  `json:"decided_at"`
}

// NewDecision 创建决定记录，候选会被深拷贝
func NewDecision(seq int, c *Candidate, outcome Outcome) Decision {
	return Decision{
		Seq:       seq,
		Candidate: c.Clone(),
		Outcome:   outcome,
		DecidedAt: time.Now(),
	}
}

// Approved 是否为通过
func (d Decision) Approved() bool {
	return d.Outcome == OutcomeApproved
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
