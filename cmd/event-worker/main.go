// Package main 事件归档进程入口（event-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"story-loop-api/internal/application/archive"
	"story-loop-api/internal/config"
	"story-loop-api/internal/infrastructure/messaging"
	"story-loop-api/internal/infrastructure/persistence/postgres"
	"story-loop-api/internal/infrastructure/persistence/redis"
	wfmodel "story-loop-api/internal/workflow/model"
	"story-loop-api/pkg/logger"
	"story-loop-api/pkg/tracer"
)

const dlqAlertThreshold = 100

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logCfg := cfg.Observability.Logging
	if err := logger.Init(logCfg.Level, logCfg.Format, logCfg.Output); err != nil {
		logger.Warn(ctx, "log output unavailable, falling back to stdout", "error", err.Error())
	}

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "event-worker",
		Version:     cfg.App.Version,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	archiver := archive.NewArchiver(postgres.NewDecisionLog(pgClient))

	streamCfg := cfg.Messaging.RedisStream
	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.Stream(streamCfg.Stream),
		Group:        consumerGroup(streamCfg.ConsumerGroupPrefix),
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: streamCfg.BlockTimeout,
		RetryLimit:   streamCfg.RetryLimit,
	})

	handle := func(ctx context.Context, msg *messaging.Message) error {
		evt, err := msg.Event()
		if err != nil {
			return err
		}
		return archiver.Handle(ctx, evt)
	}
	consumer.RegisterHandler(wfmodel.EventDecisionRecorded, handle)
	consumer.RegisterFallback(handle)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	go consumer.MonitorDLQ(ctx, dlqAlertThreshold)

	logger.Info(ctx, "event-worker started", "stream", streamCfg.Stream)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "event-worker shutting down")
	consumer.Stop()
}

func consumerGroup(prefix string) messaging.ConsumerGroup {
	if prefix == "" {
		return messaging.ConsumerGroupArchiver
	}
	return messaging.ConsumerGroup(prefix + "archiver")
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
