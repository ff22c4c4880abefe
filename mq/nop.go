package mq

import (
	"context"

	"go.uber.org/zap"
)

func init() {
	RegisterProducerFactory(TypeNone, func(*Config, *zap.Logger) (Producer, error) {
		return NopProducer{}, nil
	})
}

// NopProducer 丢弃所有消息
type NopProducer struct{}

func (NopProducer) SendSync(_ context.Context, msg *Message) (*SendResult, error) {
	return &SendResult{Topic: msg.Topic}, nil
}

func (NopProducer) SendAsync(_ context.Context, msg *Message, callback SendCallback) error {
	if callback != nil {
		callback(&SendResult{Topic: msg.Topic}, nil)
	}
	return nil
}

func (NopProducer) Close() error { return nil }
