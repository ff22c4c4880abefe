package mq

import (
	"context"

	"github.com/aisgo/ais-edu/logger"

	"go.uber.org/fx"
)

// Module Fx 模块：按配置提供 Producer，停止时关闭
var Module = fx.Module("mq",
	fx.Provide(ProvideProducer),
)

// ProducerParams Producer 依赖参数
type ProducerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *Config
	Logger *logger.Logger
}

// ProvideProducer 提供 Producer（用于 Fx）
func ProvideProducer(p ProducerParams) (Producer, error) {
	producer, err := NewProducer(p.Config, p.Logger.Logger)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}
