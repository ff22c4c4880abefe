package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/aisgo/ais-edu/mq"
)

/* ========================================================================
 * Kafka Producer - 审计事件生产者
 * ========================================================================
 * 职责: 实现 mq.Producer，审计 Recorder 经此外发变更事件
 * 技术: IBM/sarama
 * ======================================================================== */

func init() {
	mq.RegisterProducerFactory(mq.TypeKafka, NewProducer)
}

// Producer Kafka 生产者，同时持有同步与异步两条通道
type Producer struct {
	sync   sarama.SyncProducer
	async  sarama.AsyncProducer
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewProducer 按配置连接 broker 创建生产者
func NewProducer(cfg *mq.Config, logger *zap.Logger) (mq.Producer, error) {
	if cfg == nil || cfg.Kafka == nil {
		return nil, fmt.Errorf("kafka config is required")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	saramaCfg, err := buildSaramaConfig(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("build sarama config: %w", err)
	}

	syncProducer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka sync producer: %w", err)
	}
	asyncProducer, err := sarama.NewAsyncProducer(cfg.Kafka.Brokers, saramaCfg)
	if err != nil {
		_ = syncProducer.Close()
		return nil, fmt.Errorf("create kafka async producer: %w", err)
	}

	logger.Info("kafka producer started", zap.Strings("brokers", cfg.Kafka.Brokers))
	return newProducer(syncProducer, asyncProducer, logger), nil
}

func newProducer(syncProducer sarama.SyncProducer, asyncProducer sarama.AsyncProducer, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Producer{
		sync:   syncProducer,
		async:  asyncProducer,
		logger: logger,
	}
	p.wg.Add(2)
	go p.drainSuccesses()
	go p.drainErrors()
	return p
}

// 两个 channel 在 AsyncProducer.Close 后关闭，goroutine 随之退出
func (p *Producer) drainSuccesses() {
	defer p.wg.Done()
	for msg := range p.async.Successes() {
		if cb, ok := msg.Metadata.(mq.SendCallback); ok && cb != nil {
			cb(resultOf(msg.Topic, msg.Partition, msg.Offset), nil)
			continue
		}
		p.logger.Debug("audit event delivered",
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
	}
}

func (p *Producer) drainErrors() {
	defer p.wg.Done()
	for perr := range p.async.Errors() {
		if cb, ok := perr.Msg.Metadata.(mq.SendCallback); ok && cb != nil {
			cb(nil, perr.Err)
			continue
		}
		p.logger.Error("audit event delivery failed",
			zap.String("topic", perr.Msg.Topic),
			zap.Error(perr.Err),
		)
	}
}

func (p *Producer) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// SendSync 同步发送，等待 broker 确认
func (p *Producer) SendSync(ctx context.Context, msg *mq.Message) (*mq.SendResult, error) {
	if p.isClosed() {
		return nil, fmt.Errorf("producer is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	partition, offset, err := p.sync.SendMessage(toProducerMessage(msg))
	if err != nil {
		return nil, fmt.Errorf("send to %s: %w", msg.Topic, err)
	}
	return resultOf(msg.Topic, partition, offset), nil
}

// SendAsync 异步发送；callback 经 Metadata 关联到投递结果
func (p *Producer) SendAsync(ctx context.Context, msg *mq.Message, callback mq.SendCallback) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("producer is closed")
	}

	pm := toProducerMessage(msg)
	pm.Metadata = callback

	select {
	case p.async.Input() <- pm:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 关闭生产者并等待回调 goroutine 退出
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	if err := p.async.Close(); err != nil {
		firstErr = fmt.Errorf("close async producer: %w", err)
	}
	if err := p.sync.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close sync producer: %w", err)
	}
	p.wg.Wait()

	if firstErr != nil {
		p.logger.Error("kafka producer close failed", zap.Error(firstErr))
		return firstErr
	}
	p.logger.Info("kafka producer closed")
	return nil
}

// =============================================================================
// 辅助函数
// =============================================================================

func resultOf(topic string, partition int32, offset int64) *mq.SendResult {
	return &mq.SendResult{
		MsgID:     fmt.Sprintf("%s-%d-%d", topic, partition, offset),
		Topic:     topic,
		Partition: partition,
		Offset:    offset,
	}
}

func toProducerMessage(msg *mq.Message) *sarama.ProducerMessage {
	pm := &sarama.ProducerMessage{
		Topic:     msg.Topic,
		Value:     sarama.ByteEncoder(msg.Body),
		Timestamp: time.Now(),
	}
	if msg.Key != "" {
		pm.Key = sarama.StringEncoder(msg.Key)
	}

	// header 顺序固定，便于下游按字节比对
	if len(msg.Properties) > 0 {
		keys := make([]string, 0, len(msg.Properties))
		for k := range msg.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pm.Headers = make([]sarama.RecordHeader, 0, len(keys))
		for _, k := range keys {
			pm.Headers = append(pm.Headers, sarama.RecordHeader{
				Key:   []byte(k),
				Value: []byte(msg.Properties[k]),
			})
		}
	}
	return pm
}

var requiredAcks = map[string]sarama.RequiredAcks{
	"none":   sarama.NoResponse,
	"leader": sarama.WaitForLocal,
	"all":    sarama.WaitForAll,
}

var compressions = map[string]sarama.CompressionCodec{
	"none":   sarama.CompressionNone,
	"gzip":   sarama.CompressionGZIP,
	"snappy": sarama.CompressionSnappy,
	"lz4":    sarama.CompressionLZ4,
	"zstd":   sarama.CompressionZSTD,
}

func buildSaramaConfig(cfg *mq.KafkaConfig) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version: %w", err)
		}
		sc.Version = version
	}

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = cfg.Producer.RetryMax
	if cfg.Producer.Timeout > 0 {
		sc.Producer.Timeout = cfg.Producer.Timeout
	}
	if cfg.Producer.MaxMessageBytes > 0 {
		sc.Producer.MaxMessageBytes = cfg.Producer.MaxMessageBytes
	}

	sc.Producer.RequiredAcks = sarama.WaitForLocal
	if cfg.Producer.RequiredAcks != "" {
		acks, ok := requiredAcks[cfg.Producer.RequiredAcks]
		if !ok {
			return nil, fmt.Errorf("invalid required_acks %q", cfg.Producer.RequiredAcks)
		}
		sc.Producer.RequiredAcks = acks
	}
	if cfg.Producer.Compression != "" {
		codec, ok := compressions[cfg.Producer.Compression]
		if !ok {
			return nil, fmt.Errorf("invalid compression %q", cfg.Producer.Compression)
		}
		sc.Producer.Compression = codec
	}

	// 幂等要求 acks=all 且单连接串行
	if cfg.Producer.Idempotent {
		sc.Producer.Idempotent = true
		sc.Producer.RequiredAcks = sarama.WaitForAll
		sc.Net.MaxOpenRequests = 1
	}

	if cfg.SASL.Enable {
		if err := applySASL(sc, cfg.SASL); err != nil {
			return nil, err
		}
	}
	if cfg.TLS.Enable {
		tlsConfig, err := buildTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("build tls config: %w", err)
		}
		sc.Net.TLS.Enable = true
		sc.Net.TLS.Config = tlsConfig
	}
	return sc, nil
}

func applySASL(sc *sarama.Config, cfg mq.KafkaSASLConfig) error {
	sc.Net.SASL.Enable = true
	sc.Net.SASL.User = cfg.Username
	sc.Net.SASL.Password = cfg.Password

	switch cfg.Mechanism {
	case "", sarama.SASLTypePlaintext:
		sc.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	case sarama.SASLTypeSCRAMSHA256:
		sc.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		sc.Net.SASL.SCRAMClientGeneratorFunc = scramClientFor(sarama.SASLTypeSCRAMSHA256)
	case sarama.SASLTypeSCRAMSHA512:
		sc.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		sc.Net.SASL.SCRAMClientGeneratorFunc = scramClientFor(sarama.SASLTypeSCRAMSHA512)
	default:
		return fmt.Errorf("unsupported sasl mechanism %q", cfg.Mechanism)
	}
	return nil
}

func buildTLSConfig(cfg mq.KafkaTLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.Insecure, //nolint:gosec // 仅测试环境开启
	}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load cert/key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}
