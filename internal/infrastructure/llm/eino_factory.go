// Package llm 提供基于 Eino 的 ChatModel 工厂
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"story-loop-api/internal/config"
	workflowport "story-loop-api/internal/workflow/port"
	"story-loop-api/pkg/logger"
)

// EinoFactory 按 provider 名称惰性创建并复用 ChatModel
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

var _ workflowport.ChatModelFactory = (*EinoFactory)(nil)

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.LLMConfig) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		models: make(map[string]model.BaseChatModel),
	}
}

// Resolve 解析 provider 名称；未配置时依次尝试 fallback_chain
func (f *EinoFactory) Resolve(name string) (string, config.ProviderConfig, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}
	if cfg, ok := f.config.Providers[name]; ok {
		return name, cfg, nil
	}
	for _, alt := range f.config.FallbackChain {
		if cfg, ok := f.config.Providers[alt]; ok {
			return alt, cfg, nil
		}
	}
	return "", config.ProviderConfig{}, fmt.Errorf("provider %q not found in LLM config", name)
}

// Get 获取指定名称的 ChatModel，name 为空时使用默认 provider
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	resolved, providerCfg, err := f.Resolve(name)
	if err != nil {
		return nil, err
	}
	if name != "" && resolved != name {
		logger.Warn(ctx, "llm provider not configured, using fallback", "requested", name, "provider", resolved)
	}

	f.mu.RLock()
	m, ok := f.models[resolved]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok = f.models[resolved]; ok {
		return m, nil
	}

	chatCfg := &openai.ChatModelConfig{
		APIKey:  providerCfg.APIKey,
		BaseURL: providerCfg.BaseURL,
		Model:   providerCfg.Model,
		Timeout: providerCfg.Timeout,
	}
	if providerCfg.MaxTokens > 0 {
		chatCfg.MaxTokens = ptr(providerCfg.MaxTokens)
	}
	if providerCfg.Temperature > 0 {
		chatCfg.Temperature = ptr(float32(providerCfg.Temperature))
	}

	chatModel, err := openai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", resolved, err)
	}

	f.models[resolved] = chatModel
	return chatModel, nil
}

func ptr[T any](v T) *T {
	return &v
}
