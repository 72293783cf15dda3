// Package feature 把 (需求, 卖家) 对转换成定长的 8 维特征向量。
//
// 每个特征独立计算、独立容错：某一项出错（panic、NaN、下游不可用）
// 只会让这一项取中性默认值，不影响其余特征，也不会中断整批排序。
package feature

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/geo"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/pkg/stats"
)

// HistorySource 提供特征计算需要的历史查询，history.Aggregator 实现此接口。
// 实现必须自行降级：查询失败时返回默认值而不是错误。
type HistorySource interface {
	BuyerReliability(ctx context.Context, buyerID string) core.BuyerReliability
	MarketPrice(ctx context.Context, species string) (float64, bool)
}

// Extractor 计算特征向量。并发安全。
type Extractor struct {
	geo        geo.Estimator
	history    HistorySource
	thresholds Thresholds
	logger     logger.Logger
}

// ExtractorOption 配置 Extractor。
type ExtractorOption func(*Extractor)

// WithThresholds 覆盖默认阈值（非零项生效）。
func WithThresholds(t Thresholds) ExtractorOption {
	return func(e *Extractor) {
		e.thresholds = e.thresholds.Merge(t)
	}
}

// WithExtractorLogger 设置日志。
func WithExtractorLogger(l logger.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = l
	}
}

// NewExtractor 创建特征抽取器；history 为 nil 时买家信用与价格取中性值。
func NewExtractor(history HistorySource, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		history:    history,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrNop(e.logger)
	return e
}

// Thresholds 返回生效的阈值。
func (e *Extractor) Thresholds() Thresholds {
	return e.thresholds
}

// Extract 计算 req 相对 rctx 中卖家的特征向量。
// 只有请求本身无效（nil 或缺少 ID）时返回错误，调用方应跳过该候选。
func (e *Extractor) Extract(ctx context.Context, rctx *core.RankContext, req *core.BuyRequest) (*core.FeatureVector, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: nil request")
	}
	if req.ID == "" {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: request without id")
	}
	if rctx == nil {
		rctx = &core.RankContext{}
	}
	now := rctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	seller := rctx.Seller
	hist := rctx.History
	th := e.thresholds
	log := e.logger.With(map[string]interface{}{"request_id": req.ID})

	fv := &core.FeatureVector{
		DistanceKM: e.safe(log, core.FeatureDistanceKM, geo.FallbackKM, func() float64 {
			return e.geo.Between(seller, req.Location)
		}),
		SpeciesMatch: e.safe(log, core.FeatureSpeciesMatch, th.SpeciesUnknown, func() float64 {
			return SpeciesMatchScore(th, seller, req.Species)
		}),
		QuantityFit: e.safe(log, core.FeatureQuantityFit, th.QuantityWithinMax, func() float64 {
			return QuantityFitScore(th, req.Quantity, hist)
		}),
		PriceCompetitiveness: e.safe(log, core.FeaturePriceCompetitiveness, th.PriceNeutral, func() float64 {
			return e.priceScore(ctx, req)
		}),
		SellerHistory: e.safe(log, core.FeatureSellerHistory, 0.5, func() float64 {
			return SellerHistoryScore(th, hist)
		}),
		BuyerReliability: e.safe(log, core.FeatureBuyerReliability, 0.5, func() float64 {
			if req.BuyerID == "" || e.history == nil {
				return 0.5
			}
			return stats.Clamp01(e.history.BuyerReliability(ctx, req.BuyerID).Score)
		}),
		Freshness: e.safe(log, core.FeatureFreshness, th.FreshnessUnknown, func() float64 {
			return FreshnessScore(th, req.CreatedAt, now)
		}),
		DeadlineUrgency: e.safe(log, core.FeatureDeadlineUrgency, th.DeadlineNone, func() float64 {
			return DeadlineScore(th, req.ExpiresAt, now)
		}),
	}
	return fv, nil
}

func (e *Extractor) priceScore(ctx context.Context, req *core.BuyRequest) float64 {
	if req.TargetPrice == nil || e.history == nil {
		return e.thresholds.PriceNeutral
	}
	market, ok := e.history.MarketPrice(ctx, req.Species)
	if !ok {
		return e.thresholds.PriceNeutral
	}
	return PriceScore(e.thresholds, *req.TargetPrice, market)
}

// safe 执行单个特征计算，panic 或非有限值时返回 neutral。
func (e *Extractor) safe(log logger.Logger, name string, neutral float64, fn func() float64) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("feature computation panicked", map[string]interface{}{
				"feature": name,
				"panic":   fmt.Sprint(r),
			})
			v = neutral
		}
	}()
	v = fn()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		log.Warn("feature computation produced non-finite value", map[string]interface{}{"feature": name})
		return neutral
	}
	return v
}

// SpeciesMatchScore 计算品类匹配分：完全匹配 > 同家族 > 不相关；卖家未声明专营时取中性值。
func SpeciesMatchScore(th Thresholds, seller *core.SellerProfile, species string) float64 {
	if seller == nil || len(seller.Specialties) == 0 {
		return th.SpeciesUnknown
	}
	want := normalizeSpecies(species)
	related := false
	for _, s := range seller.Specialties {
		have := normalizeSpecies(s)
		if have == want && want != "" {
			return th.SpeciesExact
		}
		if RelatedSpecies(have, want) {
			related = true
		}
	}
	if related {
		return th.SpeciesRelated
	}
	return th.SpeciesUnrelated
}

// QuantityFitScore 比较需求数量与卖家历史均量/最大量。
func QuantityFitScore(th Thresholds, qty int, hist core.SellerHistory) float64 {
	q := float64(qty)
	switch {
	case q <= 0:
		return th.QuantityZero
	case q <= hist.AvgQuantity:
		return th.QuantityWithinAvg
	case q <= hist.MaxQuantity:
		return th.QuantityWithinMax
	case q <= 2*hist.MaxQuantity:
		return th.QuantityWithin2x
	default:
		return th.QuantityOver
	}
}

// PriceScore 按目标价与市场价之比分档。
func PriceScore(th Thresholds, target, market float64) float64 {
	if market <= 0 || target <= 0 {
		return th.PriceNeutral
	}
	return stepAtLeast(target/market, th.PriceSteps, th.PriceBelow)
}

// SellerHistoryScore = 0.3·接受率 + 0.3·评分/5 + 0.2·min(销量/饱和值, 1) + 0.2·(1−纠纷率)。
func SellerHistoryScore(th Thresholds, h core.SellerHistory) float64 {
	saturation := th.SalesSaturation
	if saturation <= 0 {
		saturation = 100
	}
	sales := math.Min(float64(h.TotalSales)/saturation, 1)
	return stats.Clamp01(0.3*h.AcceptanceRate + 0.3*(h.AvgRating/5) + 0.2*sales + 0.2*(1-h.DisputeRate))
}

// FreshnessScore 按需求发布时长分档；未知发布时间取中性值。
func FreshnessScore(th Thresholds, createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return th.FreshnessUnknown
	}
	age := now.Sub(createdAt).Hours()
	return stepUpTo(age, th.FreshnessSteps, th.FreshnessStale)
}

// DeadlineScore 按距截止时间分档；已过期得 DeadlineExpired，未设置截止取中性值。
func DeadlineScore(th Thresholds, expiresAt, now time.Time) float64 {
	if expiresAt.IsZero() {
		return th.DeadlineNone
	}
	left := expiresAt.Sub(now).Hours()
	if left <= 0 {
		return th.DeadlineExpired
	}
	return stepUpTo(left, th.DeadlineSteps, th.DeadlineFar)
}
