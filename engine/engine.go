// Package engine 是排序引擎的对外入口：为卖家排序候选需求、记录行为、训练与查询模型。
//
// 排序是体验增强而不是需求可见性的前提：卖家不存在、链路出错或超时时，
// 引擎返回按输入顺序截断的未排序结果，从不向调用方返回错误。
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/feature"
	"github.com/rushteam/leadrank/feedback"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pipeline"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/pkg/utils"
	"github.com/rushteam/leadrank/rank"
	"github.com/rushteam/leadrank/recall"
	"github.com/rushteam/leadrank/rerank"
	"github.com/rushteam/leadrank/train"
)

var (
	// ErrTrainerUnavailable 表示引擎未配置训练器。
	ErrTrainerUnavailable = core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "engine: trainer not configured")

	// ErrRequestStoreUnavailable 表示引擎未配置需求库。
	ErrRequestStoreUnavailable = core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "engine: request store not configured")

	// ErrRecallUnavailable 表示引擎未配置召回。
	ErrRecallUnavailable = core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "engine: recall not configured")

	// ErrArtifactStoreUnavailable 表示引擎未配置模型产物存储。
	ErrArtifactStoreUnavailable = core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "engine: artifact store not configured")
)

// HistorySource 提供卖家历史以及特征计算需要的买家信用、市场价格。
// history.Aggregator 实现此接口。
type HistorySource interface {
	feature.HistorySource
	SellerHistory(ctx context.Context, sellerID string) core.SellerHistory
}

// Dependencies 是引擎的协作方。Sellers 与 Scoring 之外都可以为空。
type Dependencies struct {
	Sellers   core.SellerStore
	Requests  core.RequestStore
	History   HistorySource
	Scoring   *model.ScoringContext
	Artifacts model.ArtifactStore
	Recorder  *feedback.Recorder
	Trainer   *train.Trainer
	Recall    *recall.Fanout

	// Pipeline 为空时使用默认链路：特征 → 打分 → 截断。
	Pipeline *pipeline.Pipeline
}

// Engine 是并发安全的排序引擎。排序调用之间不共享可变状态，
// 唯一的共享状态是 ScoringContext 中原子替换的模型指针。
type Engine struct {
	deps           Dependencies
	logger         logger.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
	timeout        time.Duration
	defaultLimit   int
	candidateLimit int
	closers        []func(context.Context) error
}

type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock 设置时间源（测试用）。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTimeout 设置单次排序调用的整体超时，<= 0 表示不设超时。
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithDefaultLimit 设置 limit < 0 时使用的默认结果数。
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithCandidateLimit 设置 RankCandidatesForSeller 从需求库拉取的候选上限。
func WithCandidateLimit(n int) Option {
	return func(e *Engine) { e.candidateLimit = n }
}

// New 创建引擎。
func New(deps Dependencies, opts ...Option) *Engine {
	e := &Engine{
		deps:           deps,
		now:            time.Now,
		timeout:        core.DefaultRankTimeout,
		defaultLimit:   core.DefaultRankLimit,
		candidateLimit: 2000,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrNop(e.logger)
	if e.deps.Scoring == nil {
		e.deps.Scoring = model.NewScoringContext(nil)
	}
	if e.deps.Pipeline == nil {
		e.deps.Pipeline = DefaultPipeline(e.deps.History, e.deps.Scoring, e.logger, e.metrics)
	}
	return e
}

// DefaultPipeline 构建默认排序链路。
func DefaultPipeline(h feature.HistorySource, scorers rank.ScorerSource, l logger.Logger, m *metrics.Metrics) *pipeline.Pipeline {
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&feature.ExtractNode{
			Extractor: feature.NewExtractor(h, feature.WithExtractorLogger(l)),
			Logger:    l,
			Metrics:   m,
		},
		&rank.ScoreNode{Scorers: scorers, Logger: l, Metrics: m},
		&rerank.TopNNode{},
	}}
}

// Scoring 返回引擎使用的打分上下文。
func (e *Engine) Scoring() *model.ScoringContext {
	return e.deps.Scoring
}

// RankRequestsForSeller 为卖家排序候选需求，返回最多 limit 条结果。
// limit < 0 使用默认值，limit == 0 返回空列表。
// 特征计算失败的候选被跳过；其余任何失败都降级为按输入顺序截断的未排序结果。
func (e *Engine) RankRequestsForSeller(
	ctx context.Context,
	sellerID string,
	requests []*core.BuyRequest,
	limit int,
) []core.RankedRequest {
	start := time.Now()
	if limit < 0 {
		limit = e.defaultLimit
	}
	if limit == 0 {
		return []core.RankedRequest{}
	}
	log := e.logger.With(map[string]interface{}{
		"seller_id":  sellerID,
		"candidates": len(requests),
		"limit":      limit,
	})

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	seller, err := e.getSeller(ctx, sellerID)
	if err != nil {
		if core.IsNotFound(err) {
			log.Debug("seller not found, returning unranked requests", nil)
		} else {
			log.WithError(err).Warn("seller lookup failed, returning unranked requests", nil)
		}
		e.metrics.ObserveRank(metrics.OutcomeUnranked, time.Since(start))
		return unranked(requests, limit)
	}

	rctx := &core.RankContext{
		SellerID: sellerID,
		Seller:   seller,
		History:  e.sellerHistory(ctx, sellerID),
		Now:      e.now(),
		Limit:    limit,
	}

	candidates := make([]*core.Candidate, 0, len(requests))
	for i, req := range requests {
		if req == nil {
			continue
		}
		candidates = append(candidates, core.NewCandidate(i, req))
	}

	out, err := e.deps.Pipeline.Run(ctx, rctx, candidates)
	if err != nil {
		log.WithError(err).Warn("ranking pipeline failed, returning unranked requests", nil)
		e.metrics.ObserveRank(metrics.OutcomeUnranked, time.Since(start))
		return unranked(requests, limit)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	results := make([]core.RankedRequest, 0, len(out))
	for _, c := range out {
		results = append(results, core.RankedRequest{
			Request:  c.Request,
			Score:    c.Score,
			Features: c.Features,
			Labels:   c.Labels,
		})
	}

	outcome := metrics.OutcomeRanked
	if usedFallback(out) {
		outcome = metrics.OutcomeFallback
	}
	e.metrics.ObserveRank(outcome, time.Since(start))
	return results
}

// RankCandidatesForSeller 先按 filter 从需求库拉取候选，再排序。
// filter.Limit 为 0 时使用候选上限，filter.OpenAt 为零值时只拉取当前仍未过期的需求。
func (e *Engine) RankCandidatesForSeller(
	ctx context.Context,
	sellerID string,
	filter core.CandidateFilter,
	limit int,
) ([]core.RankedRequest, error) {
	if e.deps.Requests == nil {
		return nil, ErrRequestStoreUnavailable
	}
	if filter.Limit <= 0 {
		filter.Limit = e.candidateLimit
	}
	if filter.OpenAt.IsZero() {
		filter.OpenAt = e.now()
	}
	requests, err := e.deps.Requests.ListCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}
	return e.RankRequestsForSeller(ctx, sellerID, requests, limit), nil
}

// RankInboxForSeller 通过召回源为卖家拉取候选需求（专营品类、服务省份）再排序。
// 卖家不存在时返回错误：没有卖家画像就无法召回。
func (e *Engine) RankInboxForSeller(ctx context.Context, sellerID string, limit int) ([]core.RankedRequest, error) {
	if e.deps.Recall == nil {
		return nil, ErrRecallUnavailable
	}
	seller, err := e.getSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	requests, err := e.deps.Recall.Recall(ctx, &core.RankContext{
		SellerID: sellerID,
		Seller:   seller,
		Now:      e.now(),
	})
	if err != nil {
		return nil, err
	}
	return e.RankRequestsForSeller(ctx, sellerID, requests, limit), nil
}

// RecordInteraction 记录卖家行为，失败返回 false。
func (e *Engine) RecordInteraction(
	ctx context.Context,
	sellerID, requestID string,
	typ core.InteractionType,
	features *core.FeatureVector,
) bool {
	if e.deps.Recorder == nil {
		e.logger.Error("interaction recorder not configured", map[string]interface{}{
			"seller_id":  sellerID,
			"request_id": requestID,
		})
		return false
	}
	return e.deps.Recorder.Record(ctx, sellerID, requestID, typ, features)
}

// TrainModel 运行一次训练，minSamples <= 0 时使用训练器配置。
func (e *Engine) TrainModel(ctx context.Context, minSamples int) (*train.Report, error) {
	if e.deps.Trainer == nil {
		return nil, ErrTrainerUnavailable
	}
	return e.deps.Trainer.Train(ctx, minSamples)
}

// ModelPerformance 返回当前模型的训练指标，没有训练模型时返回 core.ErrModelUnavailable。
func (e *Engine) ModelPerformance() (*model.Metadata, error) {
	return e.deps.Scoring.Metadata()
}

// ReloadModel 从产物存储加载最新模型；没有产物时保持加权打分。
func (e *Engine) ReloadModel(ctx context.Context) error {
	if e.deps.Artifacts == nil {
		return ErrArtifactStoreUnavailable
	}
	return e.deps.Scoring.Load(ctx, e.deps.Artifacts)
}

// Close 释放引擎自己创建的资源。
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	for _, c := range e.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) getSeller(ctx context.Context, sellerID string) (*core.SellerProfile, error) {
	if e.deps.Sellers == nil || sellerID == "" {
		return nil, core.ErrSellerNotFound
	}
	seller, err := e.deps.Sellers.GetSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, core.ErrSellerNotFound
	}
	return seller, nil
}

func (e *Engine) sellerHistory(ctx context.Context, sellerID string) core.SellerHistory {
	if e.deps.History == nil {
		return core.DefaultSellerHistory()
	}
	return e.deps.History.SellerHistory(ctx, sellerID)
}

// unranked 按输入顺序返回前 limit 条需求，不带分数与特征。
func unranked(requests []*core.BuyRequest, limit int) []core.RankedRequest {
	out := make([]core.RankedRequest, 0, min(len(requests), limit))
	for _, req := range requests {
		if len(out) == limit {
			break
		}
		if req == nil {
			continue
		}
		out = append(out, core.RankedRequest{
			Request: req,
			Labels:  map[string]utils.Label{"ranked": {Value: "false", Source: utils.SourceRank}},
		})
	}
	return out
}

func usedFallback(out []*core.Candidate) bool {
	for _, c := range out {
		if _, ok := c.Labels["fallback"]; ok {
			return true
		}
	}
	return false
}
