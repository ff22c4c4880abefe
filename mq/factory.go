package mq

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

/* ========================================================================
 * MQ 工厂 - 根据配置创建对应实现
 * ========================================================================
 * 职责: 实现包在 init 中注册工厂，NewProducer 按 Type 选择
 * ======================================================================== */

// ProducerFactory 生产者工厂函数类型
type ProducerFactory func(cfg *Config, logger *zap.Logger) (Producer, error)

var (
	producerFactories = make(map[Type]ProducerFactory)
	factoryMu         sync.RWMutex
)

// RegisterProducerFactory 注册生产者工厂
func RegisterProducerFactory(mqType Type, factory ProducerFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	producerFactories[mqType] = factory
}

// NewProducer 创建生产者；Type 为空时视为 none
func NewProducer(cfg *Config, logger *zap.Logger) (Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mq config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mqType := cfg.Type
	if mqType == "" {
		mqType = TypeNone
	}

	factoryMu.RLock()
	factory, ok := producerFactories[mqType]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported MQ type: %s, available: %v", mqType, AvailableTypes())
	}

	logger.Info("creating MQ producer", zap.String("type", string(mqType)))
	return factory(cfg, logger)
}

// AvailableTypes 返回已注册的 MQ 类型（有序）
func AvailableTypes() []Type {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	types := make([]Type, 0, len(producerFactories))
	for t := range producerFactories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
