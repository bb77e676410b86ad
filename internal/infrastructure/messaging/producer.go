// Package messaging 基于 Redis Streams 的领域事件发布与消费
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	wfmodel "story-loop-api/internal/workflow/model"
	workflowport "story-loop-api/internal/workflow/port"
	"story-loop-api/pkg/logger"
	"story-loop-api/pkg/tracer"
)

var otelTracer = otel.Tracer("messaging")

// Producer 消息生产者，实现 port.EventPublisher
type Producer struct {
	client *redis.Client
	stream Stream
	maxLen int64
}

var _ workflowport.EventPublisher = (*Producer)(nil)

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, stream Stream, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	if stream == "" {
		stream = StreamStoryEvents
	}
	return &Producer{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish 发布领域事件
func (p *Producer) Publish(ctx context.Context, evt *wfmodel.Event) error {
	msg, err := NewMessage(evt)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok && reqID != "" {
		msg.SetMetadata("request_id", reqID)
	}
	if traceID := tracer.TraceID(ctx); traceID != "" {
		msg.SetMetadata("trace_id", traceID)
	}
	_, err = p.PublishMessage(ctx, msg)
	return err
}

// PublishMessage 写入消息信封，返回流内 ID
func (p *Producer) PublishMessage(ctx context.Context, msg *Message) (string, error) {
	ctx, span := otelTracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(p.stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(p.stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}
