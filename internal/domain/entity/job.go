package entity

import (
	"time"
)

// JobState 任务状态
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateGenerating JobState = "generating"
	JobStateComplete   JobState = "complete"
	JobStateFailed     JobState = "failed"
	JobStateCancelled  JobState = "cancelled"
)

// Terminal 是否为终态
func (s JobState) Terminal() bool {
	switch s {
	case JobStateComplete, JobStateFailed, JobStateCancelled:
		return true
	default:
		return false
	}
}

// Page 分页后的正文片段，页码跨章节连续
type Page struct {
	Number  int    `json:"number"`
	Chapter int    `json:"chapter"`
	Text    string `json:"text"`
}

// Job 整书生成任务
type Job struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id,omitempty"`
	State         JobState   `json:"state"`
	Progress      int        `json:"progress"` // 任务进度 (0-100)
	ChaptersDone  int        `json:"chapters_done"`
	ChaptersTotal int        `json:"chapters_total"`
	Pages         []Page     `json:"pages"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	DurationMs    int        `json:"duration_ms,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewJob 创建新任务
func NewJob(id, sessionID string, chapters int) *Job {
	now := time.Now()
	return &Job{
		ID:            id,
		SessionID:     sessionID,
		State:         JobStatePending,
		ChaptersTotal: chapters,
		Pages:         []Page{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Start 开始执行任务
func (j *Job) Start() {
	now := time.Now()
	j.State = JobStateGenerating
	j.StartedAt = &now
	j.UpdatedAt = now
}

// AppendChapter 追加一章的页面并推进进度
func (j *Job) AppendChapter(pages []Page) {
	j.Pages = append(j.Pages, pages...)
	j.ChaptersDone++
	if j.ChaptersTotal > 0 {
		j.UpdateProgress(j.ChaptersDone * 100 / j.ChaptersTotal)
	}
	j.UpdatedAt = time.Now()
}

// Complete 完成任务
func (j *Job) Complete() {
	j.finish(JobStateComplete)
	j.Progress = 100
}

// Fail 任务失败，已生成页面保留
func (j *Job) Fail(errMsg string) {
	j.finish(JobStateFailed)
	j.ErrorMessage = errMsg
}

// Cancel 取消任务，已生成页面保留
func (j *Job) Cancel() {
	j.finish(JobStateCancelled)
}

func (j *Job) finish(state JobState) {
	now := time.Now()
	j.State = state
	j.CompletedAt = &now
	j.UpdatedAt = now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// UpdateProgress 更新任务进度
func (j *Job) UpdateProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
}

// PageCount 已生成页数
func (j *Job) PageCount() int {
	return len(j.Pages)
}

// NextPage 下一页页码
func (j *Job) NextPage() int {
	if len(j.Pages) == 0 {
		return 1
	}
	return j.Pages[len(j.Pages)-1].Number + 1
}

// Clone 返回快照副本，读者不会观察到后台任务的后续修改
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Pages = make([]Page, len(j.Pages))
	copy(cp.Pages, j.Pages)
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
