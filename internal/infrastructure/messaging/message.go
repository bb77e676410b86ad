package messaging

import (
	"encoding/json"
	"time"

	wfmodel "story-loop-api/internal/workflow/model"
)

// Message 流中的消息信封
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	SessionID string            `json:"session_id,omitempty"`
	JobID     string            `json:"job_id,omitempty"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 由领域事件创建消息
func NewMessage(evt *wfmodel.Event) (*Message, error) {
	var payload json.RawMessage
	if len(evt.Payload) > 0 {
		b, err := json.Marshal(evt.Payload)
		if err != nil {
			return nil, err
		}
		payload = b
	}
	createdAt := evt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &Message{
		ID:        evt.ID,
		Type:      evt.Type,
		SessionID: evt.SessionID,
		JobID:     evt.JobID,
		Payload:   payload,
		Metadata:  make(map[string]string),
		CreatedAt: createdAt,
	}, nil
}

// Event 还原领域事件
func (m *Message) Event() (*wfmodel.Event, error) {
	evt := &wfmodel.Event{
		ID:        m.ID,
		Type:      m.Type,
		SessionID: m.SessionID,
		JobID:     m.JobID,
		CreatedAt: m.CreatedAt,
	}
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &evt.Payload); err != nil {
			return nil, err
		}
	}
	return evt, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// GetMetadata 获取元数据
func (m *Message) GetMetadata(key string) string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[key]
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// Stream 流定义
type Stream string

const (
	StreamStoryEvents Stream = "stream:story:events"
)

// DLQStream 获取对应的死信队列流名称
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组定义
type ConsumerGroup string

const (
	ConsumerGroupArchiver ConsumerGroup = "cg-story-archiver"
)

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 默认退避配置
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// CalculateBackoff 计算退避时间
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	backoff := c.Initial
	for i := 0; i < retryCount; i++ {
		backoff = time.Duration(float64(backoff) * c.Multiplier)
		if backoff > c.Max {
			backoff = c.Max
			break
		}
	}
	return backoff
}
