// Package memory 提供进程内存储实现
package memory

import (
	"context"
	"sync"

	"story-loop-api/internal/domain/entity"
)

// JobStore 进程内任务注册表，存取均为副本
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*entity.Job
}

// NewJobStore 创建进程内任务注册表
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*entity.Job)}
}

// Get 获取任务快照，不存在返回 nil
func (s *JobStore) Get(_ context.Context, id string) (*entity.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return job.Clone(), nil
}

// Put 写入任务快照
func (s *JobStore) Put(_ context.Context, job *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Delete 删除任务
func (s *JobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

// Len 任务数
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
