package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aisgo/ais-edu/entity"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/metrics"
	"github.com/aisgo/ais-edu/mq"
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/resource"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ========================================================================
 * Audit Recorder - 变更审计
 * ========================================================================
 * 职责: 接收控制器的变更事件，写入 histories 集合，可选外发到 Kafka
 * 约束: 记录失败只写日志与指标，不影响已完成的操作
 * ======================================================================== */

// Config 审计配置
type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
	Publish bool          `mapstructure:"publish"`
	Topic   string        `mapstructure:"topic"`
}

// DefaultConfig 默认开启持久化，不外发
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Timeout: 3 * time.Second,
		Topic:   "edu.audit.history",
	}
}

// Recorder 审计记录器，实现 resource.MutationSink
type Recorder struct {
	cfg      Config
	repo     repository.WriteRepository[entity.History]
	producer mq.Producer
	logger   *logger.Logger
}

var _ resource.MutationSink = (*Recorder)(nil)

// NewRecorder 创建审计记录器；producer 为 nil 时不外发
func NewRecorder(db *gorm.DB, producer mq.Producer, cfg Config, log *logger.Logger) *Recorder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultConfig().Topic
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Recorder{
		cfg:      cfg,
		repo:     repository.NewRepository[entity.History](db),
		producer: producer,
		logger:   log,
	}
}

// Record 写入一条 History；请求取消不会中断写入
func (r *Recorder) Record(ctx context.Context, m resource.Mutation) {
	if !r.cfg.Enabled {
		return
	}
	log := r.logger.WithContext(ctx).With(
		zap.String("collection", m.Collection),
		zap.String("document_id", m.DocumentID),
		zap.String("operation", m.Operation),
	)

	row, err := BuildHistory(m)
	if err != nil {
		metrics.AuditRecordTotal.WithLabelValues(m.Collection, "failed").Inc()
		log.Error("build audit history", zap.Error(err))
		return
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
	defer cancel()

	if err := r.repo.Create(wctx, row); err != nil {
		metrics.AuditRecordTotal.WithLabelValues(m.Collection, "failed").Inc()
		log.Error("store audit history", zap.Error(err))
		return
	}
	metrics.AuditRecordTotal.WithLabelValues(m.Collection, "stored").Inc()

	if r.cfg.Publish && r.producer != nil {
		r.publish(wctx, log, row)
	}
}

func (r *Recorder) publish(ctx context.Context, log *zap.Logger, row *entity.History) {
	body, err := json.Marshal(row)
	if err != nil {
		metrics.AuditRecordTotal.WithLabelValues(row.CollectionName, "publish_failed").Inc()
		log.Error("encode audit event", zap.Error(err))
		return
	}

	msg := mq.NewMessage(r.cfg.Topic, body).
		WithKey(row.CollectionName+"/"+row.DocumentID).
		WithProperty("collection", row.CollectionName).
		WithProperty("operation", row.Operation)

	collection := row.CollectionName
	err = r.producer.SendAsync(ctx, msg, func(_ *mq.SendResult, err error) {
		if err != nil {
			metrics.AuditRecordTotal.WithLabelValues(collection, "publish_failed").Inc()
			log.Warn("publish audit event", zap.Error(err))
			return
		}
		metrics.AuditRecordTotal.WithLabelValues(collection, "published").Inc()
	})
	if err != nil {
		metrics.AuditRecordTotal.WithLabelValues(collection, "publish_failed").Inc()
		log.Warn("enqueue audit event", zap.Error(err))
	}
}

// BuildHistory 将变更事件转换为 History 文档
func BuildHistory(m resource.Mutation) (*entity.History, error) {
	row := &entity.History{
		CollectionName: m.Collection,
		DocumentID:     m.DocumentID,
		Operation:      m.Operation,
		Diff:           Diff(m.Before, m.After),
	}
	row.ActorID = m.Actor.Ref()

	var err error
	if row.FullDocumentBefore, err = snapshot(m.Before); err != nil {
		return nil, err
	}
	if row.FullDocumentAfter, err = snapshot(m.After); err != nil {
		return nil, err
	}
	if err := row.Validate(); err != nil {
		return nil, err
	}
	return row, nil
}

func snapshot(doc map[string]any) (datatypes.JSON, error) {
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
