package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"story-loop-api/internal/domain/entity"
	wfmodel "story-loop-api/internal/workflow/model"
	workflowport "story-loop-api/internal/workflow/port"
	"story-loop-api/pkg/logger"
	"story-loop-api/pkg/metrics"
)

const genomeKeyPrefix = "genome:"

// Cache Read-Through 缓存，redis.Cache 满足该接口
type Cache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// CachedGenerator 对相同封面与意图复用 Genome，其余调用直接透传
type CachedGenerator struct {
	workflowport.ContentGenerator
	cache Cache
	ttl   time.Duration
}

// NewCachedGenerator 包装生成器
func NewCachedGenerator(inner workflowport.ContentGenerator, cache Cache, ttl time.Duration) *CachedGenerator {
	return &CachedGenerator{ContentGenerator: inner, cache: cache, ttl: ttl}
}

// AnalyzeIntent 命中缓存时不调用模型；缓存不可用时回退到直接生成
func (g *CachedGenerator) AnalyzeIntent(ctx context.Context, in *wfmodel.IntentInput) (*entity.Genome, error) {
	if g.cache == nil || in == nil {
		return g.ContentGenerator.AnalyzeIntent(ctx, in)
	}

	key := GenomeKey(in)
	loaded := false
	raw, err := g.cache.GetOrLoadSafe(ctx, key, g.ttl, func() (interface{}, error) {
		loaded = true
		return g.ContentGenerator.AnalyzeIntent(ctx, in)
	})
	if err != nil {
		if loaded {
			return nil, err
		}
		logger.Warn(ctx, "genome cache unavailable, generating directly", "key", key, "error", err.Error())
		return g.ContentGenerator.AnalyzeIntent(ctx, in)
	}
	if loaded {
		metrics.CacheMissesTotal.WithLabelValues("genome").Inc()
	} else {
		metrics.CacheHitsTotal.WithLabelValues("genome").Inc()
	}

	var genome entity.Genome
	if err := json.Unmarshal(raw, &genome); err != nil {
		return nil, fmt.Errorf("decode cached genome: %w", err)
	}
	return &genome, nil
}

// GenomeKey 由封面、意图与模型参数派生缓存键
func GenomeKey(in *wfmodel.IntentInput) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s",
		in.Cover.ID, strings.TrimSpace(in.Intent), in.Provider, in.Model)))
	return genomeKeyPrefix + hex.EncodeToString(sum[:16])
}
