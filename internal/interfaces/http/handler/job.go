package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"story-loop-api/internal/application/generation"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/interfaces/http/dto"
)

// JobService 生成任务管理
type JobService interface {
	StartJob(ctx context.Context, structure *entity.Structure, opts generation.Options) (string, error)
	GetStatus(ctx context.Context, jobID string) (*entity.Job, error)
	Cancel(ctx context.Context, jobID string) error
}

// JobHandler 任务处理器
type JobHandler struct {
	jobs JobService
}

// NewJobHandler 创建任务处理器
func NewJobHandler(jobs JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// StartJob 由结构直接启动整书生成
// @Summary 启动生成任务
// @Tags Jobs
// @Accept json
// @Produce json
// @Param body body dto.StartJobRequest true "章节结构"
// @Success 202 {object} dto.Response[dto.StartJobResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/jobs [post]
func (h *JobHandler) StartJob(c *gin.Context) {
	var req dto.StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	jobID, err := h.jobs.StartJob(c.Request.Context(), req.Structure, generation.Options{
		SessionID: req.SessionID,
		Style:     req.Style,
		Emphasis:  req.Emphasis,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Accepted(c, &dto.StartJobResponse{JobID: jobID})
}

// GetJob 获取任务状态
// @Summary 获取任务状态
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetStatus(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}

// ListPages 分页返回已生成的页面
// @Summary 获取任务页面
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]entity.Page]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid}/pages [get]
func (h *JobHandler) ListPages(c *gin.Context) {
	job, err := h.jobs.GetStatus(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	page := dto.BindPage(c)
	dto.SuccessWithPage(c, dto.PageSlice(job.Pages, page), dto.NewPageMeta(page.Page, page.PageSize, len(job.Pages)))
}

// CancelJob 请求在下一个章节边界取消任务
// @Summary 取消任务
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 202 {object} dto.Response[dto.CancelJobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "任务已结束"
// @Router /v1/jobs/{jid} [delete]
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID := dto.BindJobID(c)
	if err := h.jobs.Cancel(c.Request.Context(), jobID); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Accepted(c, &dto.CancelJobResponse{ID: jobID, CancelRequested: true})
}
