package model

import "time"

// 事件类型
const (
	EventJobStarted          = "job.started"
	EventJobChapterCompleted = "job.chapter_completed"
	EventJobCompleted        = "job.completed"
	EventJobFailed           = "job.failed"
	EventJobCancelled        = "job.cancelled"
	EventDecisionRecorded    = "preference.decision_recorded"
)

// Event 领域事件
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	JobID     string         `json:"job_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
