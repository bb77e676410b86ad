package postgres

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm/clause"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/domain/repository"
)

// DecisionLog 决定日志实现
type DecisionLog struct {
	client *Client
}

var _ repository.DecisionLog = (*DecisionLog)(nil)

// NewDecisionLog 创建决定日志
func NewDecisionLog(client *Client) *DecisionLog {
	return &DecisionLog{client: client}
}

// Append 追加一条决定；(session_id, seq) 已存在时忽略
func (l *DecisionLog) Append(ctx context.Context, sessionID string, d entity.Decision) error {
	ctx, span := tracer.Start(ctx, "postgres.DecisionLog.Append",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("decision.seq", d.Seq),
		))
	defer span.End()

	if err := l.client.session(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "seq"}},
			DoNothing: true,
		}).
		Create(DecisionToModel(sessionID, d)).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append decision: %w", err)
	}
	return nil
}

// List 按 seq 升序返回会话的全部决定
func (l *DecisionLog) List(ctx context.Context, sessionID string) ([]entity.Decision, error) {
	ctx, span := tracer.Start(ctx, "postgres.DecisionLog.List",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	var rows []DecisionModel
	err := l.client.session(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}

	out := make([]entity.Decision, len(rows))
	for i := range rows {
		out[i] = rows[i].Entity()
	}
	return out, nil
}
