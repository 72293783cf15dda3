package engine

import (
	"context"
	"fmt"

	"github.com/rushteam/leadrank/config"
	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/feature"
	"github.com/rushteam/leadrank/feedback"
	"github.com/rushteam/leadrank/filter"
	"github.com/rushteam/leadrank/history"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/recall"
	"github.com/rushteam/leadrank/train"
)

// Stores 是引擎用到的存储后端。Cache 为空时不缓存历史、不启用屏蔽买家名单；
// InteractionLog 或 Artifacts 为空时不创建训练器。
type Stores struct {
	Sellers        core.SellerStore
	Requests       core.RequestStore
	Transactions   core.TransactionStore
	Cache          core.Store
	InteractionLog core.InteractionLog
	Artifacts      model.ArtifactStore
}

// Build 按配置装配引擎：历史聚合、特征、打分上下文、pipeline、召回、行为记录与训练器，
// 并尝试加载已持久化的最新模型（失败时继续使用加权打分）。
// 配置了 Kafka 时 Build 创建的发布器由 Engine.Close 关闭；stores 由调用方负责关闭。
func Build(ctx context.Context, cfg *config.Config, stores Stores, l logger.Logger, m *metrics.Metrics) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	l = logger.OrNop(l)

	histOpts := []history.Option{
		history.WithWindows(cfg.History.Windows()),
		history.WithLogger(l),
	}
	if stores.Cache != nil && cfg.History.CacheTTL > 0 {
		histOpts = append(histOpts, history.WithCache(stores.Cache, cfg.History.CacheTTL))
	}
	agg := history.NewAggregator(stores.Transactions, histOpts...)

	scoring := model.NewScoringContext(model.NewWeightedScorer(cfg.Weights))
	deps := config.Dependencies{
		Extractor: feature.NewExtractor(agg,
			feature.WithThresholds(cfg.Thresholds),
			feature.WithExtractorLogger(l),
		),
		Scorers:     scoring,
		Concurrency: cfg.Engine.ExtractConcurrency,
		Logger:      l,
		Metrics:     m,
	}
	if stores.Cache != nil {
		deps.BlockStore = filter.NewStoreAdapter(stores.Cache, "")
	}

	factory := config.NewFactory(deps)
	if err := config.ValidatePipelineConfig(&cfg.Pipeline, factory); err != nil {
		return nil, err
	}
	p, err := cfg.Pipeline.BuildPipeline(factory)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	var trainer *train.Trainer
	if stores.InteractionLog != nil && stores.Artifacts != nil {
		trainer = train.NewTrainer(stores.InteractionLog, stores.Artifacts, scoring,
			train.WithConfig(cfg.Training.Config),
			train.WithLogger(l),
			train.WithMetrics(m),
		)
	}

	var fanout *recall.Fanout
	if stores.Requests != nil {
		fanout = recall.NewStoreFanout(stores.Requests, cfg.Engine.CandidateLimit, cfg.Engine.RecallTimeout)
		fanout.Logger = l
	}

	recOpts := []feedback.Option{feedback.WithLogger(l), feedback.WithMetrics(m)}
	var closers []func(context.Context) error
	if kc := cfg.Storage.Kafka; len(kc.Brokers) > 0 {
		pub, err := feedback.NewKafkaPublisher(feedback.KafkaPublisherConfig{
			Brokers:       kc.Brokers,
			Topic:         kc.Topic,
			BatchSize:     kc.BatchSize,
			FlushInterval: kc.FlushInterval,
			Compression:   kc.Compression,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		recOpts = append(recOpts, feedback.WithPublisher(pub))
		closers = append(closers, pub.Close)
	}

	e := New(Dependencies{
		Sellers:   stores.Sellers,
		Requests:  stores.Requests,
		History:   agg,
		Scoring:   scoring,
		Artifacts: stores.Artifacts,
		Recorder:  feedback.NewRecorder(stores.InteractionLog, recOpts...),
		Trainer:   trainer,
		Recall:    fanout,
		Pipeline:  p,
	},
		WithLogger(l),
		WithMetrics(m),
		WithTimeout(cfg.Engine.RankTimeout),
		WithDefaultLimit(cfg.Engine.DefaultLimit),
		WithCandidateLimit(cfg.Engine.CandidateLimit),
	)
	e.closers = closers

	if stores.Artifacts != nil {
		if err := e.ReloadModel(ctx); err != nil {
			l.WithError(err).Warn("failed to load model artifact, using weighted scorer", nil)
		}
	}
	return e, nil
}
