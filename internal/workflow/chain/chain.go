// Package chain 基于 Eino compose 的 prompt → LLM 调用链
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	einoobs "story-loop-api/internal/observability/eino"
	wfmodel "story-loop-api/internal/workflow/model"
	wfnode "story-loop-api/internal/workflow/node"
	workflowport "story-loop-api/internal/workflow/port"
	workflowprompt "story-loop-api/internal/workflow/prompt"
	"story-loop-api/pkg/logger"
)

// Spec 一条调用链的静态描述
type Spec struct {
	// Workflow 用于指标与追踪的节点名
	Workflow string
	Prompt   workflowprompt.PromptID
	// SchemaName/Schema 为空时不附加 response_format
	SchemaName string
	Schema     map[string]any
}

// Request 单次调用
type Request struct {
	Vars map[string]any
	wfmodel.LLMOptions
}

// PromptChain 模板渲染 → ChatModel.Generate
type PromptChain struct {
	factory  workflowport.ChatModelFactory
	registry *workflowprompt.Registry
	spec     Spec

	chainOnce sync.Once
	chain     compose.Runnable[*Request, *schema.Message]
	chainErr  error
}

// NewPromptChain 创建调用链
func NewPromptChain(factory workflowport.ChatModelFactory, registry *workflowprompt.Registry, spec Spec) *PromptChain {
	if registry == nil {
		registry = workflowprompt.NewRegistry()
	}
	return &PromptChain{factory: factory, registry: registry, spec: spec}
}

// Spec 返回调用链描述
func (c *PromptChain) Spec() Spec {
	return c.spec
}

// Invoke 执行调用链，返回模型原始消息
func (c *PromptChain) Invoke(ctx context.Context, req *Request) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if req == nil {
		return nil, fmt.Errorf("input is nil")
	}
	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, req)
}

type chainState struct {
	Req      *Request
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *PromptChain) getChain() (compose.Runnable[*Request, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *PromptChain) buildChain(ctx context.Context) (compose.Runnable[*Request, *schema.Message], error) {
	name := c.spec.Workflow
	chain := compose.NewChain[*Request, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, req *Request) (*chainState, error) {
			if req == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &chainState{Req: req}, nil
		}),
		compose.WithNodeName(name+".init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *chainState) (*chainState, error) {
			tpl, err := c.registry.ChatTemplate(c.spec.Prompt)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, st.Req.Vars)
			if err != nil {
				return nil, fmt.Errorf("format prompt %s: %w", c.spec.Prompt, err)
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName(name+".template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *chainState) (*chainState, error) {
			provider := strings.TrimSpace(st.Req.Provider)
			ctx = einoobs.WithWorkflowProvider(ctx, name, provider)
			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			withSchema := c.spec.Schema != nil
			outMsg, err := chatModel.Generate(ctx, st.Messages, c.modelOptions(st.Req, withSchema)...)
			if err != nil && withSchema && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"workflow", name,
					"provider", provider,
					"model", strings.TrimSpace(st.Req.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, c.modelOptions(st.Req, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName(name+".llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *chainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName(name+".finalize"),
	)

	return chain.Compile(ctx)
}

func (c *PromptChain) modelOptions(req *Request, withSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*req.MaxTokens))
	}
	if m := strings.TrimSpace(req.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	if withSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   c.spec.SchemaName,
					"strict": false,
					"schema": c.spec.Schema,
				},
			},
		}))
	}
	return opts
}
