package mq

import (
	"context"
)

/* ========================================================================
 * MQ 抽象接口
 * ========================================================================
 * 职责: 定义消息生产者接口，用于审计事件外发
 * 支持: Kafka / none (丢弃)
 * ======================================================================== */

// Producer 消息生产者接口
type Producer interface {
	// SendSync 同步发送消息
	SendSync(ctx context.Context, msg *Message) (*SendResult, error)

	// SendAsync 异步发送消息，结果经 callback 返回
	SendAsync(ctx context.Context, msg *Message, callback SendCallback) error

	// Close 关闭生产者
	Close() error
}

// =============================================================================
// 消息模型
// =============================================================================

// Message 消息结构（MQ 无关）
type Message struct {
	Topic      string            // 主题
	Body       []byte            // 消息体
	Key        string            // 消息键（同一文档的事件落在同一分区）
	Properties map[string]string // 自定义属性（Kafka header）
}

// NewMessage 创建消息
func NewMessage(topic string, body []byte) *Message {
	return &Message{
		Topic:      topic,
		Body:       body,
		Properties: make(map[string]string),
	}
}

// WithKey 设置消息键
func (m *Message) WithKey(key string) *Message {
	m.Key = key
	return m
}

// WithProperty 设置属性
func (m *Message) WithProperty(key, value string) *Message {
	if m.Properties == nil {
		m.Properties = make(map[string]string)
	}
	m.Properties[key] = value
	return m
}

// =============================================================================
// 回调与结果
// =============================================================================

// SendResult 发送结果
type SendResult struct {
	MsgID     string // 消息 ID
	Topic     string // 主题
	Partition int32  // 分区
	Offset    int64  // 偏移量
}

// SendCallback 异步发送回调
type SendCallback func(result *SendResult, err error)

// =============================================================================
// MQ 类型
// =============================================================================

// Type MQ 类型
type Type string

const (
	TypeNone  Type = "none"
	TypeKafka Type = "kafka"
)
