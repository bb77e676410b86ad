package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"story-loop-api/internal/application/workflow"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/interfaces/http/dto"
	apperrors "story-loop-api/pkg/errors"
)

// SessionService 工作流会话操作
type SessionService interface {
	Policy() workflow.Policy
	Covers() []entity.CoverOption
	Create(ctx context.Context, ownerID string) (*entity.Session, error)
	Get(ctx context.Context, sessionID, ownerID string) (*entity.Session, error)
	Delete(ctx context.Context, sessionID, ownerID string) error
	SelectCover(ctx context.Context, sessionID, ownerID string, coverID int) (*entity.Session, error)
	SubmitIntent(ctx context.Context, sessionID, ownerID, text string) (*entity.Session, error)
	GenerateProfile(ctx context.Context, sessionID, ownerID string) (*entity.Session, error)
	Vote(ctx context.Context, sessionID, ownerID, candidateID string, outcome entity.Outcome) (*workflow.VoteResult, *entity.Session, error)
	ReplenishPitches(ctx context.Context, sessionID, ownerID string) (*entity.Session, error)
	ApproveStructure(ctx context.Context, sessionID, ownerID string) (*entity.Session, error)
	StartGeneration(ctx context.Context, sessionID, ownerID string) (*entity.Session, error)
	History(ctx context.Context, sessionID, ownerID string) ([]entity.Decision, error)
}

var _ SessionService = (*workflow.Service)(nil)

// SessionHandler 工作流会话处理器
type SessionHandler struct {
	svc SessionService
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// ListCovers 封面目录
// @Summary 封面目录
// @Tags Workflow
// @Produce json
// @Success 200 {object} dto.Response[dto.CoverListResponse]
// @Router /v1/covers [get]
func (h *SessionHandler) ListCovers(c *gin.Context) {
	dto.Success(c, &dto.CoverListResponse{Covers: h.svc.Covers()})
}

// CreateSession 创建会话，从 cover 步骤开始
// @Summary 创建会话
// @Tags Workflow
// @Produce json
// @Success 201 {object} dto.Response[dto.SessionResponse]
// @Router /v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := h.svc.Create(c.Request.Context(), dto.BindUserID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, h.toResponse(session))
}

// GetSession 获取会话快照
// @Summary 获取会话
// @Tags Workflow
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c))
	h.respond(c, session, err)
}

// DeleteSession 删除会话
// @Summary 删除会话
// @Tags Workflow
// @Param sid path string true "会话 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c)); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.NoContent(c)
}

// SelectCover cover → intent
// @Summary 选择封面
// @Tags Workflow
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.SelectCoverRequest true "封面"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/cover [post]
func (h *SessionHandler) SelectCover(c *gin.Context) {
	var req dto.SelectCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	session, err := h.svc.SelectCover(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c), req.CoverID)
	h.respond(c, session, err)
}

// SubmitIntent intent → profile
// @Summary 提交意图
// @Tags Workflow
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.SubmitIntentRequest true "意图"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/intent [post]
func (h *SessionHandler) SubmitIntent(c *gin.Context) {
	var req dto.SubmitIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	session, err := h.svc.SubmitIntent(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c), req.Intent)
	h.respond(c, session, err)
}

// GenerateProfile profile → pitching：生成 Genome 与初始 pitch 池
// @Summary 生成画像
// @Tags Workflow
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/profile [post]
func (h *SessionHandler) GenerateProfile(c *gin.Context) {
	session, err := h.svc.GenerateProfile(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c))
	h.respond(c, session, err)
}

// Vote 对 pitch 投票
// 替补生成失败不回滚决定，以 200 返回并携带 replacement_error。
// @Summary 投票
// @Tags Workflow
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.VoteRequest true "决定"
// @Success 200 {object} dto.Response[dto.VoteResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/votes [post]
func (h *SessionHandler) Vote(c *gin.Context) {
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	result, session, err := h.svc.Vote(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c), req.PitchID, entity.Outcome(req.Outcome))
	if err != nil && (result == nil || !apperrors.IsGeneration(err)) {
		dto.Fail(c, err)
		return
	}

	resp := &dto.VoteResponse{
		Decision:    result.Decision,
		Replacement: result.Replacement,
		Session:     h.toResponse(session),
	}
	if err != nil {
		resp.ReplacementError = err.Error()
	}
	dto.Success(c, resp)
}

// ReplenishPitches 补足 pitch 池
// @Summary 补足 pitch
// @Tags Workflow
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/pitches/replenish [post]
func (h *SessionHandler) ReplenishPitches(c *gin.Context) {
	session, err := h.svc.ReplenishPitches(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c))
	h.respond(c, session, err)
}

// ApproveStructure pitching → structure
// @Summary 生成结构
// @Tags Workflow
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 400 {object} dto.ErrorResponse "通过数不足"
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/structure [post]
func (h *SessionHandler) ApproveStructure(c *gin.Context) {
	session, err := h.svc.ApproveStructure(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c))
	h.respond(c, session, err)
}

// StartGeneration structure → generating
// @Summary 启动生成
// @Tags Workflow
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 202 {object} dto.Response[dto.SessionResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/generation [post]
func (h *SessionHandler) StartGeneration(c *gin.Context) {
	session, err := h.svc.StartGeneration(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Accepted(c, h.toResponse(session))
}

// ListDecisions 决定历史
// @Summary 决定历史
// @Tags Workflow
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.DecisionListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/decisions [get]
func (h *SessionHandler) ListDecisions(c *gin.Context) {
	decisions, err := h.svc.History(c.Request.Context(), dto.BindSessionID(c), dto.BindUserID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, &dto.DecisionListResponse{Decisions: decisions})
}

func (h *SessionHandler) respond(c *gin.Context, session *entity.Session, err error) {
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, h.toResponse(session))
}

func (h *SessionHandler) toResponse(s *entity.Session) *dto.SessionResponse {
	return dto.ToSessionResponse(s, h.svc.Policy().MinApprovals)
}
