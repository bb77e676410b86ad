package chain_test

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type generateCall struct {
	messages []*schema.Message
	opts     []model.Option
}

type fakeChatModel struct {
	mu      sync.Mutex
	calls   []generateCall
	replies []func() (*schema.Message, error)
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, generateCall{messages: input, opts: opts})
	idx := len(m.calls) - 1
	if idx < len(m.replies) {
		return m.replies[idx]()
	}
	return schema.AssistantMessage("ok", nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *fakeChatModel) Calls() []generateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generateCall(nil), m.calls...)
}

type fakeFactory struct {
	model    model.BaseChatModel
	err      error
	provider string
}

func (f *fakeFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	f.provider = name
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}
