package router

import (
	"github.com/gin-gonic/gin"

	"story-loop-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, sessionHandler *handler.SessionHandler, jobHandler *handler.JobHandler) {
	v1.GET("/covers", sessionHandler.ListCovers)

	// 工作流会话
	sessions := v1.Group("/sessions")
	{
		sessions.POST("", sessionHandler.CreateSession)
		sessions.GET("/:sid", sessionHandler.GetSession)
		sessions.DELETE("/:sid", sessionHandler.DeleteSession)
		sessions.GET("/:sid/decisions", sessionHandler.ListDecisions)

		sessions.POST("/:sid/cover", sessionHandler.SelectCover)
		sessions.POST("/:sid/intent", sessionHandler.SubmitIntent)
		sessions.POST("/:sid/profile", sessionHandler.GenerateProfile)
		sessions.POST("/:sid/votes", sessionHandler.Vote)
		sessions.POST("/:sid/pitches/replenish", sessionHandler.ReplenishPitches)
		sessions.POST("/:sid/structure", sessionHandler.ApproveStructure)
		sessions.POST("/:sid/generation", sessionHandler.StartGeneration)
	}

	// 生成任务
	jobs := v1.Group("/jobs")
	{
		jobs.POST("", jobHandler.StartJob)
		jobs.GET("/:jid", jobHandler.GetJob)
		jobs.GET("/:jid/pages", jobHandler.ListPages)
		jobs.DELETE("/:jid", jobHandler.CancelJob)
	}
}
