package repository

import (
	"context"

	"story-loop-api/internal/domain/entity"
)

// DecisionLog 决定历史仓储，按会话追加
type DecisionLog interface {
	// Append 追加一条决定
	Append(ctx context.Context, sessionID string, d entity.Decision) error

	// List 按 Seq 升序返回会话的全部决定
	List(ctx context.Context, sessionID string) ([]entity.Decision, error)
}
