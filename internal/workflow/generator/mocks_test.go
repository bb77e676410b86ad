package generator_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"story-loop-api/internal/domain/entity"
	wfmodel "story-loop-api/internal/workflow/model"
)

// scriptedModel 按调用顺序返回预设内容
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	calls   [][]model.Option
	prompts []string
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.calls)
	m.calls = append(m.calls, opts)
	m.prompts = append(m.prompts, input[len(input)-1].Content)
	if idx >= len(m.replies) {
		return nil, errors.New("no scripted reply")
	}
	return schema.AssistantMessage(m.replies[idx], nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type staticFactory struct {
	model model.BaseChatModel
}

func (f *staticFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	return f.model, nil
}

// memoryCache 进程内 Read-Through 缓存
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) GetOrLoadSafe(_ context.Context, key string, _ time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	data, err := loader()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	c.items[key] = b
	return b, nil
}

// countingGenerator 只实现 AnalyzeIntent，其余方法不应被调用
type countingGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *countingGenerator) AnalyzeIntent(context.Context, *wfmodel.IntentInput) (*entity.Genome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &entity.Genome{Profile: entity.Profile{Primary: []string{"hopeful"}}}, nil
}

func (g *countingGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *countingGenerator) GeneratePitches(context.Context, *wfmodel.PitchInput) ([]*entity.Candidate, error) {
	return nil, errors.New("unexpected call")
}

func (g *countingGenerator) RefinePitch(context.Context, *wfmodel.RefineInput) (*entity.Candidate, error) {
	return nil, errors.New("unexpected call")
}

func (g *countingGenerator) CreateStructure(context.Context, *wfmodel.StructureInput) (*entity.Structure, error) {
	return nil, errors.New("unexpected call")
}

func (g *countingGenerator) WriteChapter(context.Context, *wfmodel.ChapterInput) (string, error) {
	return "", errors.New("unexpected call")
}
