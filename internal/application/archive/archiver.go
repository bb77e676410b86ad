// Package archive 消费领域事件并落盘到持久存储
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/domain/repository"
	wfmodel "story-loop-api/internal/workflow/model"
	"story-loop-api/pkg/logger"
)

// Archiver 将决定事件写入决定日志，记录任务终态
type Archiver struct {
	decisions repository.DecisionLog
}

// NewArchiver 创建归档器
func NewArchiver(decisions repository.DecisionLog) *Archiver {
	return &Archiver{decisions: decisions}
}

// Handle 按事件类型分派；未知类型忽略
func (a *Archiver) Handle(ctx context.Context, evt *wfmodel.Event) error {
	switch evt.Type {
	case wfmodel.EventDecisionRecorded:
		return a.archiveDecision(ctx, evt)
	case wfmodel.EventJobCompleted, wfmodel.EventJobFailed, wfmodel.EventJobCancelled:
		logger.Info(ctx, "generation job finished", "type", evt.Type, "payload", evt.Payload)
		return nil
	default:
		return nil
	}
}

func (a *Archiver) archiveDecision(ctx context.Context, evt *wfmodel.Event) error {
	if evt.SessionID == "" {
		return fmt.Errorf("decision event %s has no session", evt.ID)
	}
	d, err := DecisionFromPayload(evt.Payload)
	if err != nil {
		return fmt.Errorf("decision event %s: %w", evt.ID, err)
	}
	if err := a.decisions.Append(ctx, evt.SessionID, d); err != nil {
		return err
	}
	logger.Debug(ctx, "decision archived", "seq", d.Seq, "outcome", d.Outcome)
	return nil
}

// DecisionFromPayload 从事件载荷还原决定
func DecisionFromPayload(payload map[string]any) (entity.Decision, error) {
	var d entity.Decision
	raw, ok := payload["decision"]
	if !ok {
		return d, fmt.Errorf("payload has no decision")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return d, err
	}
	if d.Seq < 1 || !d.Outcome.Valid() || d.Candidate == nil {
		return d, fmt.Errorf("payload decision is incomplete")
	}
	return d, nil
}
