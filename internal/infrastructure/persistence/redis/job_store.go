package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/domain/repository"
)

const defaultJobKeyPrefix = "story:job:"

// JobStore 以 JSON 形式保存任务快照，终态任务按 TTL 过期
type JobStore struct {
	client *Client
	prefix string
	ttl    time.Duration
}

var _ repository.JobStore = (*JobStore)(nil)

// NewJobStore 创建 Redis 任务存储
func NewJobStore(client *Client, prefix string, ttl time.Duration) *JobStore {
	if prefix == "" {
		prefix = defaultJobKeyPrefix
	}
	return &JobStore{client: client, prefix: prefix, ttl: ttl}
}

// Get 读取任务，不存在时返回 nil
func (s *JobStore) Get(ctx context.Context, id string) (*entity.Job, error) {
	raw, err := s.client.GetBytes(ctx, s.Key(id))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return DecodeJob(raw)
}

// Put 写入任务快照；非终态任务不过期
func (s *JobStore) Put(ctx context.Context, job *entity.Job) error {
	ctx, span := tracer.Start(ctx, "redis.JobStore.Put",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.state", string(job.State)),
		))
	defer span.End()

	b, err := json.Marshal(job)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return s.client.SetBytes(ctx, s.Key(job.ID), b, s.expiration(job))
}

// Delete 删除任务
func (s *JobStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.Key(id))
}

// Key 任务键
func (s *JobStore) Key(id string) string {
	return s.prefix + id
}

func (s *JobStore) expiration(job *entity.Job) time.Duration {
	if job.State.Terminal() {
		return s.ttl
	}
	return 0
}

// DecodeJob 解析任务快照
func DecodeJob(b []byte) (*entity.Job, error) {
	var job entity.Job
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
