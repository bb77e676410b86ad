package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/domain/repository"
)

// JobStore 任务存储实现
type JobStore struct {
	client *Client
}

var _ repository.JobStore = (*JobStore)(nil)

// NewJobStore 创建任务存储
func NewJobStore(client *Client) *JobStore {
	return &JobStore{client: client}
}

// Get 根据 ID 获取任务，不存在时返回 nil
func (s *JobStore) Get(ctx context.Context, id string) (*entity.Job, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobStore.Get",
		trace.WithAttributes(attribute.String("job.id", id)))
	defer span.End()

	var m JobModel
	if err := s.client.session(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return m.Entity(), nil
}

// Put 插入或覆盖任务快照
func (s *JobStore) Put(ctx context.Context, job *entity.Job) error {
	ctx, span := tracer.Start(ctx, "postgres.JobStore.Put",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.state", string(job.State)),
		))
	defer span.End()

	err := s.client.session(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(JobToModel(job)).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// Delete 删除任务
func (s *JobStore) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobStore.Delete")
	defer span.End()

	if err := s.client.session(ctx).Delete(&JobModel{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}
