package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"story-loop-api/pkg/logger"
)

// Cache Read-Through JSON 缓存，同一键的并发加载只执行一次
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// GetOrLoadSafe 命中时直接返回；未命中时由 loader 加载并按 ttl 回写。
// 回写失败只记录告警，加载结果照常返回。
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := startSpan(ctx, "cache.GetOrLoadSafe", attribute.String("cache.key", key))
	defer span.End()

	if b, hit, err := c.lookup(ctx, key); err != nil {
		span.RecordError(err)
		return nil, err
	} else if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return b, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// 等待期间可能已被其他实例填充
		if b, hit, err := c.lookup(ctx, key); err == nil && hit {
			return b, nil
		}

		data, err := loader()
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode cache value %s: %w", key, err)
		}
		if err := c.client.SetBytes(ctx, key, b, ttl); err != nil {
			logger.Warn(ctx, "cache write failed", "key", key, "error", err.Error())
		}
		return b, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.GetBytes(ctx, key)
	switch {
	case err == nil:
		return b, true, nil
	case IsNil(err):
		return nil, false, nil
	default:
		return nil, false, err
	}
}
