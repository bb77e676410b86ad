// Package redis 提供 Redis 缓存、任务存储与限流实现
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"story-loop-api/internal/config"
)

const defaultConnectTimeout = 5 * time.Second

var tracer = otel.Tracer("redis")

// Client 带追踪的 Redis 连接，供任务存储、Genome 缓存、限流与事件流共用
type Client struct {
	rdb *redis.Client
}

// NewClient 建立连接并 PING 校验
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", rdb.Options().Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Redis 底层客户端（Streams 生产/消费使用）
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 就绪探针
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := startSpan(ctx, "redis.HealthCheck")
	defer span.End()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis health check: %w", err)
	}
	return nil
}

// GetBytes 读取原始值，键不存在时返回 redis.Nil
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	ctx, span := startSpan(ctx, "redis.Get", attribute.String("redis.key", key))
	defer span.End()

	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil && !IsNil(err) {
		span.RecordError(err)
	}
	return b, err
}

// SetBytes 写入原始值，ttl 为 0 表示不过期
func (c *Client) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := startSpan(ctx, "redis.Set",
		attribute.String("redis.key", key),
		attribute.Int64("redis.ttl_ms", ttl.Milliseconds()),
	)
	defer span.End()

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) error {
	ctx, span := startSpan(ctx, "redis.Del", attribute.Int("redis.key_count", len(keys)))
	defer span.End()

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", "redis"))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// IsNil 是否为键不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
