package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	jobStores    = []string{"memory", "redis", "postgres"}
	decisionLogs = []string{"memory", "postgres"}
)

// Validate 校验工作流参数与存储后端取值
func (c *Config) Validate() error {
	var errs []error

	w := c.Workflow
	if w.MinApprovals < 1 {
		errs = append(errs, fmt.Errorf("workflow.min_approvals must be >= 1, got %d", w.MinApprovals))
	}
	if w.PitchPoolSize < 1 {
		errs = append(errs, fmt.Errorf("workflow.pitch_pool_size must be >= 1, got %d", w.PitchPoolSize))
	}
	if w.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("workflow.max_pages must be >= 1, got %d", w.MaxPages))
	}
	if w.WordsPerPage < 1 {
		errs = append(errs, fmt.Errorf("workflow.words_per_page must be >= 1, got %d", w.WordsPerPage))
	}
	seen := make(map[int]struct{}, len(w.Covers))
	for _, cover := range w.Covers {
		if _, dup := seen[cover.ID]; dup {
			errs = append(errs, fmt.Errorf("workflow.covers: duplicate id %d", cover.ID))
		}
		seen[cover.ID] = struct{}{}
	}

	if !oneOf(c.Jobs.Store, jobStores) {
		errs = append(errs, fmt.Errorf("jobs.store must be one of %v, got %q", jobStores, c.Jobs.Store))
	}
	if !oneOf(c.Jobs.DecisionLog, decisionLogs) {
		errs = append(errs, fmt.Errorf("jobs.decision_log must be one of %v, got %q", decisionLogs, c.Jobs.DecisionLog))
	}

	return errors.Join(errs...)
}

// 空值视为 memory
func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
