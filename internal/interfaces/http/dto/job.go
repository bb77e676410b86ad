package dto

import (
	"time"

	"story-loop-api/internal/domain/entity"
)

// StartJobRequest 直接由结构启动生成
type StartJobRequest struct {
	Structure *entity.Structure `json:"structure" binding:"required"`
	SessionID string            `json:"session_id,omitempty"`
	Style     string            `json:"style,omitempty"`
	Emphasis  []string          `json:"emphasis,omitempty"`
}

// StartJobResponse 启动任务响应
type StartJobResponse struct {
	JobID string `json:"job_id"`
}

// JobResponse 任务状态响应
type JobResponse struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id,omitempty"`
	State         string     `json:"state"`
	Progress      int        `json:"progress"`
	ChaptersDone  int        `json:"chapters_done"`
	ChaptersTotal int        `json:"chapters_total"`
	PageCount     int        `json:"page_count"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	DurationMs    int        `json:"duration_ms,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// CancelJobResponse 取消任务响应
type CancelJobResponse struct {
	ID              string `json:"id"`
	CancelRequested bool   `json:"cancel_requested"`
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.Job) *JobResponse {
	if j == nil {
		return nil
	}
	return &JobResponse{
		ID:            j.ID,
		SessionID:     j.SessionID,
		State:         string(j.State),
		Progress:      j.Progress,
		ChaptersDone:  j.ChaptersDone,
		ChaptersTotal: j.ChaptersTotal,
		PageCount:     j.PageCount(),
		ErrorMessage:  j.ErrorMessage,
		DurationMs:    j.DurationMs,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
	}
}

// PageSlice 按分页参数截取页面
func PageSlice(pages []entity.Page, req PageRequest) []entity.Page {
	start, end := req.Window(len(pages))
	if start == end {
		return []entity.Page{}
	}
	return pages[start:end]
}
