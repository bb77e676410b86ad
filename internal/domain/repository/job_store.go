// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"story-loop-api/internal/domain/entity"
)

// JobStore 任务注册表
// Get 对未知 ID 返回 nil, nil；实现必须存取快照，调用方持有的 *Job 不与存储共享。
type JobStore interface {
	// Get 根据 ID 获取任务快照
	Get(ctx context.Context, id string) (*entity.Job, error)

	// Put 写入任务快照（创建或覆盖）
	Put(ctx context.Context, job *entity.Job) error

	// Delete 删除任务
	Delete(ctx context.Context, id string) error
}
