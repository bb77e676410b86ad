package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"story-loop-api/internal/domain/entity"
)

// JobModel 生成任务表
type JobModel struct {
	ID            string        `gorm:"primaryKey;type:varchar(64)"`
	SessionID     string        `gorm:"type:varchar(64);index"`
	State         string        `gorm:"type:varchar(16);index;not null"`
	Progress      int           `gorm:"not null;default:0"`
	ChaptersDone  int           `gorm:"not null;default:0"`
	ChaptersTotal int           `gorm:"not null;default:0"`
	Pages         []entity.Page `gorm:"serializer:json;type:jsonb"`
	ErrorMessage  string        `gorm:"type:text"`
	DurationMs    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// TableName 表名
func (JobModel) TableName() string { return "story_jobs" }

// DecisionModel pitch 决定记录表，(session_id, seq) 唯一
type DecisionModel struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"`
	SessionID    string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_decision_session_seq"`
	Seq          int            `gorm:"not null;uniqueIndex:idx_decision_session_seq"`
	Outcome      string         `gorm:"type:varchar(16);not null"`
	CandidateID  string         `gorm:"type:varchar(64)"`
	Title        string         `gorm:"type:text"`
	Synopsis     string         `gorm:"type:text"`
	Keywords     pq.StringArray `gorm:"type:text[]"`
	Demographics pq.StringArray `gorm:"type:text[]"`
	Core         pq.StringArray `gorm:"type:text[]"`
	Match        int
	DecidedAt    time.Time `gorm:"not null"`
}

// TableName 表名
func (DecisionModel) TableName() string { return "pitch_decisions" }

// AutoMigrate 创建或更新表结构
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&JobModel{}, &DecisionModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// JobToModel 领域任务 → 表记录
func JobToModel(j *entity.Job) *JobModel {
	return &JobModel{
		ID:            j.ID,
		SessionID:     j.SessionID,
		State:         string(j.State),
		Progress:      j.Progress,
		ChaptersDone:  j.ChaptersDone,
		ChaptersTotal: j.ChaptersTotal,
		Pages:         j.Pages,
		ErrorMessage:  j.ErrorMessage,
		DurationMs:    j.DurationMs,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
	}
}

// Entity 表记录 → 领域任务
func (m *JobModel) Entity() *entity.Job {
	return &entity.Job{
		ID:            m.ID,
		SessionID:     m.SessionID,
		State:         entity.JobState(m.State),
		Progress:      m.Progress,
		ChaptersDone:  m.ChaptersDone,
		ChaptersTotal: m.ChaptersTotal,
		Pages:         m.Pages,
		ErrorMessage:  m.ErrorMessage,
		DurationMs:    m.DurationMs,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
	}
}

// DecisionToModel 领域决定 → 表记录
func DecisionToModel(sessionID string, d entity.Decision) *DecisionModel {
	m := &DecisionModel{
		SessionID: sessionID,
		Seq:       d.Seq,
		Outcome:   string(d.Outcome),
		DecidedAt: d.DecidedAt,
	}
	if c := d.Candidate; c != nil {
		m.CandidateID = c.ID
		m.Title = c.Title
		m.Synopsis = c.Synopsis
		m.Keywords = pq.StringArray(c.Keywords)
		m.Demographics = pq.StringArray(c.Demographics)
		m.Core = pq.StringArray(c.Core)
		m.Match = c.Match
	}
	return m
}

// Entity 表记录 → 领域决定
func (m *DecisionModel) Entity() entity.Decision {
	return entity.Decision{
		Seq:     m.Seq,
		Outcome: entity.Outcome(m.Outcome),
		Candidate: &entity.Candidate{
			ID:           m.CandidateID,
			Title:        m.Title,
			Synopsis:     m.Synopsis,
			Keywords:     []string(m.Keywords),
			Demographics: []string(m.Demographics),
			Core:         []string(m.Core),
			Match:        m.Match,
		},
		DecidedAt: m.DecidedAt,
	}
}
