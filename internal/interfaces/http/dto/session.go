package dto

import (
	"time"

	"story-loop-api/internal/domain/entity"
)

// SelectCoverRequest 选择封面
type SelectCoverRequest struct {
	CoverID int `json:"cover_id" binding:"required,min=1"`
}

// SubmitIntentRequest 提交意图
type SubmitIntentRequest struct {
	Intent string `json:"intent" binding:"required"`
}

// VoteRequest 对 pitch 投票
type VoteRequest struct {
	PitchID string `json:"pitch_id" binding:"required"`
	Outcome string `json:"outcome" binding:"required,oneof=approved denied"`
}

// SessionResponse 会话快照
type SessionResponse struct {
	ID           string              `json:"id"`
	Step         string              `json:"step"`
	Cover        *entity.CoverOption `json:"cover,omitempty"`
	Intent       string              `json:"intent,omitempty"`
	Profile      *entity.Profile     `json:"profile,omitempty"`
	Tracks       []*entity.Candidate `json:"tracks,omitempty"`
	Pitches      []*entity.Candidate `json:"pitches"`
	Approvals    int                 `json:"approvals"`
	MinApprovals int                 `json:"min_approvals"`
	CanProceed   bool                `json:"can_proceed"`
	WordCloud    []entity.TermWeight `json:"word_cloud"`
	Structure    *entity.Structure   `json:"structure,omitempty"`
	JobID        string              `json:"job_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// VoteResponse 投票结果；替补失败时 ReplacementError 非空，决定依然生效
type VoteResponse struct {
	Decision         entity.Decision   `json:"decision"`
	Replacement      *entity.Candidate `json:"replacement,omitempty"`
	ReplacementError string            `json:"replacement_error,omitempty"`
	Session          *SessionResponse  `json:"session"`
}

// DecisionListResponse 决定历史
type DecisionListResponse struct {
	Decisions []entity.Decision `json:"decisions"`
}

// CoverListResponse 封面目录
type CoverListResponse struct {
	Covers []entity.CoverOption `json:"covers"`
}

// ToSessionResponse 将会话转换为响应 DTO
func ToSessionResponse(s *entity.Session, minApprovals int) *SessionResponse {
	if s == nil {
		return nil
	}
	resp := &SessionResponse{
		ID:           s.ID,
		Step:         string(s.Step),
		Cover:        s.Cover,
		Intent:       s.Intent,
		Pitches:      s.Pitches,
		Approvals:    s.Approvals(),
		MinApprovals: minApprovals,
		WordCloud:    s.Weights.Ranked(),
		Structure:    s.Structure,
		JobID:        s.JobID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	resp.CanProceed = s.Step == entity.StepPitching && resp.Approvals >= minApprovals
	if s.Genome != nil {
		resp.Profile = &s.Genome.Profile
		resp.Tracks = s.Genome.Tracks
	}
	return resp
}
