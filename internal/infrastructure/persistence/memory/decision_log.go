package memory

import (
	"context"
	"sync"

	"story-loop-api/internal/domain/entity"
)

// DecisionLog 进程内决定历史
type DecisionLog struct {
	mu        sync.RWMutex
	decisions map[string][]entity.Decision
}

// NewDecisionLog 创建进程内决定历史
func NewDecisionLog() *DecisionLog {
	return &DecisionLog{decisions: make(map[string][]entity.Decision)}
}

// Append 追加一条决定
func (l *DecisionLog) Append(_ context.Context, sessionID string, d entity.Decision) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	d.Candidate = d.Candidate.Clone()
	l.decisions[sessionID] = append(l.decisions[sessionID], d)
	return nil
}

// List 返回会话的决定历史副本
func (l *DecisionLog) List(_ context.Context, sessionID string) ([]entity.Decision, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.decisions[sessionID]
	out := make([]entity.Decision, len(src))
	for i, d := range src {
		d.Candidate = d.Candidate.Clone()
		out[i] = d
	}
	return out, nil
}
