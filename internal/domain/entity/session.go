package entity

import "time"

// Step 工作流步骤
type Step string

const (
	StepCover      Step = "cover"
	StepIntent     Step = "intent"
	StepProfile    Step = "profile"
	StepPitching   Step = "pitching"
	StepStructure  Step = "structure"
	StepGenerating Step = "generating"
)

// Steps 步骤的固定顺序
var Steps = []Step{StepCover, StepIntent, StepProfile, StepPitching, StepStructure, StepGenerating}

// Index 返回步骤序号，未知步骤为 -1
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Next 返回下一步骤，最后一步返回自身
func (s Step) Next() Step {
	i := s.Index()
	if i < 0 || i == len(Steps)-1 {
		return s
	}
	return Steps[i+1]
}

// Session 一次工作流运行的状态
type Session struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id,omitempty"`
	Step      Step            `json:"step"`
	Cover     *CoverOption    `json:"cover,omitempty"`
	Intent    string          `json:"intent,omitempty"`
	Genome    *Genome         `json:"genome,omitempty"`
	Pitches   []*Candidate    `json:"pitches"`
	Decisions []Decision      `json:"decisions"`
	Weights   WeightedTermSet `json:"weights"`
	Structure *Structure      `json:"structure,omitempty"`
	JobID     string          `json:"job_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSession 创建会话，从 cover 步骤开始
func NewSession(id, ownerID string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		OwnerID:   ownerID,
		Step:      StepCover,
		Pitches:   []*Candidate{},
		Decisions: []Decision{},
		Weights:   WeightedTermSet{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Approvals 通过的决定数
func (s *Session) Approvals() int {
	n := 0
	for _, d := range s.Decisions {
		if d.Approved() {
			n++
		}
	}
	return n
}

// ApprovedCandidates 按决定顺序返回通过的候选
func (s *Session) ApprovedCandidates() []*Candidate {
	out := make([]*Candidate, 0, len(s.Decisions))
	for _, d := range s.Decisions {
		if d.Approved() {
			out = append(out, d.Candidate)
		}
	}
	return out
}

// PitchIndex 返回活跃 pitch 的下标，不存在为 -1
func (s *Session) PitchIndex(id string) int {
	for i, p := range s.Pitches {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Clone 深拷贝，供锁外读取
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Cover != nil {
		cover := *s.Cover
		cover.Palette = cloneStrings(s.Cover.Palette)
		cp.Cover = &cover
	}
	if s.Genome != nil {
		g := *s.Genome
		g.Tracks = cloneCandidates(s.Genome.Tracks)
		cp.Genome = &g
	}
	cp.Pitches = cloneCandidates(s.Pitches)
	cp.Decisions = make([]Decision, len(s.Decisions))
	for i, d := range s.Decisions {
		d.Candidate = d.Candidate.Clone()
		cp.Decisions[i] = d
	}
	cp.Weights = s.Weights.Clone()
	cp.Structure = s.Structure.Clone()
	return &cp
}

func cloneCandidates(in []*Candidate) []*Candidate {
	out := make([]*Candidate, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
