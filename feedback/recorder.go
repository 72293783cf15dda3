// Package feedback 记录卖家对需求的行为，作为训练的真实标签来源。
package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/pkg/logger"
)

// Publisher 把已写入日志的行为转发给下游（如数据仓库）。转发失败不影响记录结果。
type Publisher interface {
	Publish(ctx context.Context, rec *core.InteractionRecord) error
}

// Recorder 把行为追加到 InteractionLog。记录之间互不依赖，可并发调用。
type Recorder struct {
	log       core.InteractionLog
	publisher Publisher
	logger    logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option 配置 Recorder。
type Option func(*Recorder)

func WithLogger(l logger.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithPublisher 设置下游转发。
func WithPublisher(p Publisher) Option {
	return func(r *Recorder) { r.publisher = p }
}

// WithClock 设置时间源（测试用）。
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(log core.InteractionLog, opts ...Option) *Recorder {
	r := &Recorder{log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrNop(r.logger)
	return r
}

// Record 追加一条行为记录，成功返回 true。
// features 可以为 nil（训练时跳过该记录）；未知的行为类型原样保存。
// 任何失败只记日志并返回 false，不向调用方抛错。
func (r *Recorder) Record(
	ctx context.Context,
	sellerID, requestID string,
	typ core.InteractionType,
	features *core.FeatureVector,
) bool {
	log := r.logger.With(map[string]interface{}{
		"seller_id":  sellerID,
		"request_id": requestID,
		"type":       string(typ),
	})
	if r.log == nil {
		log.Error("interaction log not configured", nil)
		r.metrics.IncInteraction(string(typ), false)
		return false
	}
	if !typ.Known() {
		log.Debug("recording unknown interaction type", nil)
	}

	rec := &core.InteractionRecord{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		RequestID: requestID,
		Type:      typ,
		Timestamp: r.now().UTC(),
	}
	if features != nil {
		fv := *features
		rec.Features = &fv
	}

	if err := r.log.Append(ctx, rec); err != nil {
		log.WithError(err).Error("failed to record interaction", nil)
		r.metrics.IncInteraction(string(typ), false)
		return false
	}
	r.metrics.IncInteraction(string(typ), true)
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, rec); err != nil {
			log.WithError(err).Warn("failed to publish interaction", nil)
		}
	}
	return true
}
