package generation

import (
	"fmt"
	"strings"

	"story-loop-api/internal/domain/entity"
	apperrors "story-loop-api/pkg/errors"
)

// DefaultMaxPages 整书页数上限
const DefaultMaxPages = 96

// ValidateStructure 校验结构可以启动生成
func ValidateStructure(s *entity.Structure, maxPages int) error {
	if s == nil {
		return apperrors.Validation("structure is required")
	}
	if len(s.Chapters) == 0 {
		return apperrors.Validation("structure has no chapters")
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var issues []string
	total, over := 0, false
	for i, ch := range s.Chapters {
		path := fmt.Sprintf("chapters[%d]", i)
		if strings.TrimSpace(ch.Title) == "" {
			issues = append(issues, path+".title is required")
		}
		switch {
		case ch.TargetPages < 1:
			issues = append(issues, path+".target_pages must be positive")
		case ch.TargetPages > maxPages:
			issues = append(issues, fmt.Sprintf("%s.target_pages %d exceeds ceiling %d", path, ch.TargetPages, maxPages))
			over = true
		case !over:
			// 每项都不超过上限，累加不会溢出；越过上限即停止
			total += ch.TargetPages
			over = total > maxPages
		}
	}
	if over {
		issues = append(issues, fmt.Sprintf("total pages exceed ceiling %d", maxPages))
	}
	if len(issues) > 0 {
		return apperrors.Validation("%s", strings.Join(issues, "; "))
	}
	return nil
}
