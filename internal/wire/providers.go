// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"strings"

	"story-loop-api/internal/application/generation"
	"story-loop-api/internal/application/preference"
	"story-loop-api/internal/application/workflow"
	"story-loop-api/internal/config"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/domain/repository"
	"story-loop-api/internal/infrastructure/llm"
	"story-loop-api/internal/infrastructure/messaging"
	"story-loop-api/internal/infrastructure/persistence/memory"
	"story-loop-api/internal/infrastructure/persistence/postgres"
	"story-loop-api/internal/infrastructure/persistence/redis"
	"story-loop-api/internal/interfaces/http/handler"
	"story-loop-api/internal/interfaces/http/middleware"
	"story-loop-api/internal/interfaces/http/router"
	"story-loop-api/internal/workflow/generator"
	wfmodel "story-loop-api/internal/workflow/model"
	"story-loop-api/internal/workflow/port"
	"story-loop-api/pkg/logger"
)

// 存储后端
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// App API 进程的根对象
type App struct {
	Router *router.Router
	Jobs   *generation.Manager
}

// NewApp 组装 App
func NewApp(r *router.Router, jobs *generation.Manager) *App {
	return &App{Router: r, Jobs: jobs}
}

// needsPostgres 任务存储或决定日志选择了 postgres
func needsPostgres(cfg *config.Config) bool {
	return backend(cfg.Jobs.Store) == StorePostgres || backend(cfg.Jobs.DecisionLog) == StorePostgres
}

// needsRedis Redis 为必需依赖的场景；仅用于 Genome 缓存时可降级
func needsRedis(cfg *config.Config) bool {
	return backend(cfg.Jobs.Store) == StoreRedis ||
		cfg.Messaging.RedisStream.Enabled ||
		cfg.Security.RateLimit.Enabled
}

func backend(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StoreMemory
	}
	return s
}

// ProvidePostgresClient 按需提供 PostgreSQL 客户端，未使用时为 nil
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	if !needsPostgres(cfg) {
		return nil, func() {}, nil
	}
	return ProvideMigrationClient(cfg)
}

// ProvideMigrationClient 无条件提供 PostgreSQL 客户端
func ProvideMigrationClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端；非必需时连接失败降级为 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		if needsRedis(cfg) {
			return nil, nil, err
		}
		logger.Warn(ctx, "redis not available, genome cache disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideJobStore 按 jobs.store 选择任务存储
func ProvideJobStore(cfg *config.Config, pg *postgres.Client, rc *redis.Client) (repository.JobStore, error) {
	switch backend(cfg.Jobs.Store) {
	case StoreMemory:
		return memory.NewJobStore(), nil
	case StoreRedis:
		if rc == nil {
			return nil, fmt.Errorf("jobs.store=redis requires a redis connection")
		}
		return redis.NewJobStore(rc, cfg.Jobs.KeyPrefix, cfg.Jobs.RedisTTL), nil
	case StorePostgres:
		if pg == nil {
			return nil, fmt.Errorf("jobs.store=postgres requires a postgres connection")
		}
		return postgres.NewJobStore(pg), nil
	default:
		return nil, fmt.Errorf("unknown jobs.store %q", cfg.Jobs.Store)
	}
}

// ProvideDecisionLog 按 jobs.decision_log 选择决定日志
func ProvideDecisionLog(cfg *config.Config, pg *postgres.Client) (repository.DecisionLog, error) {
	switch backend(cfg.Jobs.DecisionLog) {
	case StoreMemory:
		return memory.NewDecisionLog(), nil
	case StorePostgres:
		if pg == nil {
			return nil, fmt.Errorf("jobs.decision_log=postgres requires a postgres connection")
		}
		return postgres.NewDecisionLog(pg), nil
	default:
		return nil, fmt.Errorf("unknown jobs.decision_log %q", cfg.Jobs.DecisionLog)
	}
}

// ProvideEventPublisher 启用 Redis Stream 时提供事件发布者，否则为 nil
func ProvideEventPublisher(cfg *config.Config, rc *redis.Client) port.EventPublisher {
	streamCfg := cfg.Messaging.RedisStream
	if !streamCfg.Enabled || rc == nil {
		return nil
	}
	return messaging.NewProducer(rc.Redis(), messaging.Stream(streamCfg.Stream), int64(streamCfg.MaxLen))
}

// ProvideChatModelFactory 提供 Eino ChatModel 工厂
func ProvideChatModelFactory(cfg *config.Config) port.ChatModelFactory {
	return llm.NewEinoFactory(&cfg.LLM)
}

// ProvideContentGenerator 提供内容生成器；Redis 可用时为意图分析加缓存
func ProvideContentGenerator(cfg *config.Config, factory port.ChatModelFactory, rc *redis.Client) port.ContentGenerator {
	var gen port.ContentGenerator = generator.NewLLMGenerator(factory, generator.Config{
		TrackCount: cfg.Workflow.TrackCount,
	})
	if rc != nil && cfg.Workflow.GenomeCacheTTL > 0 {
		gen = generator.NewCachedGenerator(gen, redis.NewCache(rc), cfg.Workflow.GenomeCacheTTL)
	}
	return gen
}

// ProvideLLMOptions 工作流调用参数
func ProvideLLMOptions(cfg *config.Config) wfmodel.LLMOptions {
	wl := cfg.Workflow.LLM
	opts := wfmodel.LLMOptions{
		Provider: strings.TrimSpace(wl.Provider),
		Model:    strings.TrimSpace(wl.Model),
	}
	if wl.Temperature > 0 {
		t := float32(wl.Temperature)
		opts.Temperature = &t
	}
	return opts
}

// ProvidePolicy 工作流策略
func ProvidePolicy(cfg *config.Config) workflow.Policy {
	w := cfg.Workflow.Weights
	return workflow.Policy{
		MinApprovals:  cfg.Workflow.MinApprovals,
		PitchPoolSize: cfg.Workflow.PitchPoolSize,
		MaxPages:      cfg.Workflow.MaxPages,
		Weights: preference.Weights{
			ApproveKeyword:     w.ApproveKeyword,
			ApproveDemographic: w.ApproveDemographic,
			DenyKeyword:        w.DenyKeyword,
			DenyDemographic:    w.DenyDemographic,
		},
	}
}

// ProvideCovers 封面目录，未配置时使用内置目录
func ProvideCovers(cfg *config.Config) []entity.CoverOption {
	if len(cfg.Workflow.Covers) == 0 {
		return entity.DefaultCovers()
	}
	out := make([]entity.CoverOption, len(cfg.Workflow.Covers))
	for i, c := range cfg.Workflow.Covers {
		out[i] = entity.CoverOption{
			ID:      c.ID,
			Name:    c.Name,
			Style:   c.Style,
			Mood:    c.Mood,
			Palette: append([]string(nil), c.Palette...),
		}
	}
	return out
}

// ProvideGenerationManager 提供生成任务管理器
func ProvideGenerationManager(cfg *config.Config, store repository.JobStore, gen port.ContentGenerator, events port.EventPublisher, opts wfmodel.LLMOptions) *generation.Manager {
	return generation.NewManager(store, gen, events, generation.Config{
		MaxPages:     cfg.Workflow.MaxPages,
		WordsPerPage: cfg.Workflow.WordsPerPage,
		LLM:          opts,
	})
}

// ProvideWorkflowService 提供工作流服务
func ProvideWorkflowService(cfg *config.Config, gen port.ContentGenerator, jobs *generation.Manager, decisions repository.DecisionLog, events port.EventPublisher, opts wfmodel.LLMOptions) *workflow.Service {
	return workflow.NewService(workflow.ServiceDeps{
		Policy:    ProvidePolicy(cfg),
		Covers:    ProvideCovers(cfg),
		Generator: gen,
		Jobs:      jobs,
		Decisions: decisions,
		Events:    events,
		LLM:       opts,
	})
}

// ProvideRateLimiter 启用限流时提供 Redis 限流器，否则为 nil
func ProvideRateLimiter(cfg *config.Config, rc *redis.Client) middleware.RateLimiter {
	if !cfg.Security.RateLimit.Enabled || rc == nil {
		return nil
	}
	return redis.NewRateLimiter(rc)
}

// ProvideHealthHandler 只检查实际建立的连接
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rc *redis.Client) *handler.HealthHandler {
	checks := make(map[string]handler.HealthChecker)
	if pg != nil {
		checks["postgres"] = pg
	}
	if rc != nil {
		checks["redis"] = rc
	}
	return handler.NewHealthHandler(cfg.App.Version, checks)
}
