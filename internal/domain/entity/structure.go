package entity

import "math"

// Chapter 章节大纲
type Chapter struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	TargetPages int    `json:"target_pages"`
}

// Structure 已批准的书籍结构，章节按叙事顺序排列
type Structure struct {
	Title    string    `json:"title"`
	Synopsis string    `json:"synopsis"`
	Chapters []Chapter `json:"chapters"`
}

// TotalPages 所有章节目标页数之和，溢出时截断为 math.MaxInt
func (s *Structure) TotalPages() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, ch := range s.Chapters {
		if ch.TargetPages > 0 && total > math.MaxInt-ch.TargetPages {
			return math.MaxInt
		}
		total += ch.TargetPages
	}
	return total
}

// Clone 深拷贝
func (s *Structure) Clone() *Structure {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Chapters = make([]Chapter, len(s.Chapters))
	copy(cp.Chapters, s.Chapters)
	return &cp
}
