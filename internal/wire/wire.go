//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"story-loop-api/internal/application/generation"
	"story-loop-api/internal/application/workflow"
	"story-loop-api/internal/config"
	"story-loop-api/internal/infrastructure/persistence/postgres"
	"story-loop-api/internal/interfaces/http/handler"
	"story-loop-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 API 进程（路由器 + 任务管理器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		StorageSet,
		WorkflowSet,
		RouterSet,
		NewApp,
	)
	return nil, nil, nil
}

// InitializeMigrator 仅初始化 PostgreSQL（用于 bootstrap）
func InitializeMigrator(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	wire.Build(ProvideMigrationClient)
	return nil, nil, nil
}

// StorageSet 存储与消息提供者集合
var StorageSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideRedisClient,
	ProvideJobStore,
	ProvideDecisionLog,
	ProvideEventPublisher,
)

// WorkflowSet 工作流与生成提供者集合
var WorkflowSet = wire.NewSet(
	ProvideChatModelFactory,
	ProvideContentGenerator,
	ProvideLLMOptions,
	ProvideGenerationManager,
	ProvideWorkflowService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideRateLimiter,
	ProvideHealthHandler,
	handler.NewSessionHandler,
	handler.NewJobHandler,
	wire.Bind(new(handler.SessionService), new(*workflow.Service)),
	wire.Bind(new(handler.JobService), new(*generation.Manager)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
