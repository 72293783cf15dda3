// Package history 从交易记录聚合卖家历史表现、买家信用与市场价格。
//
// 所有查询失败都降级为文档约定的默认值，从不向调用方返回错误：
// 某个子系统不可用时，排序只是变得不那么精准，而不会中断。
package history

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/pkg/stats"
)

// Windows 是聚合使用的最近 N 条记录上限。
type Windows struct {
	Offers      int
	Orders      int
	BuyerOrders int
	Market      time.Duration
}

// DefaultWindows 返回默认窗口：100 报价 / 50 订单 / 20 买家订单 / 30 天市场价。
func DefaultWindows() Windows {
	return Windows{
		Offers:      core.DefaultOfferWindow,
		Orders:      core.DefaultOrderWindow,
		BuyerOrders: core.DefaultBuyerOrderWindow,
		Market:      core.DefaultMarketWindow,
	}
}

// Aggregator 计算 SellerHistory / BuyerReliability / 市场价格。
// 可选 Cache 为结果加短 TTL 缓存（memory 或 redis）。
type Aggregator struct {
	tx       core.TransactionStore
	cache    core.Store
	cacheTTL time.Duration
	windows  Windows
	logger   logger.Logger
	now      func() time.Time
}

// Option 配置 Aggregator。
type Option func(*Aggregator)

// WithCache 设置结果缓存与 TTL。
func WithCache(cache core.Store, ttl time.Duration) Option {
	return func(a *Aggregator) {
		a.cache = cache
		a.cacheTTL = ttl
	}
}

// WithWindows 设置统计窗口。
func WithWindows(w Windows) Option {
	return func(a *Aggregator) {
		if w.Offers > 0 {
			a.windows.Offers = w.Offers
		}
		if w.Orders > 0 {
			a.windows.Orders = w.Orders
		}
		if w.BuyerOrders > 0 {
			a.windows.BuyerOrders = w.BuyerOrders
		}
		if w.Market > 0 {
			a.windows.Market = w.Market
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// WithClock 设置时间源（测试用）。
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator 创建聚合器；tx 为 nil 时所有查询返回默认值。
func NewAggregator(tx core.TransactionStore, opts ...Option) *Aggregator {
	a := &Aggregator{
		tx:      tx,
		windows: DefaultWindows(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrNop(a.logger)
	return a
}

// SellerHistory 计算卖家历史。报价与订单并发拉取，任一失败时对应统计使用默认值。
func (a *Aggregator) SellerHistory(ctx context.Context, sellerID string) core.SellerHistory {
	if sellerID == "" || a.tx == nil {
		return core.DefaultSellerHistory()
	}
	key := "leadrank:seller_history:" + sellerID
	var cached core.SellerHistory
	if a.getCached(ctx, key, &cached) {
		return cached
	}

	var (
		offers   []core.Offer
		orders   []core.Order
		offerErr error
		orderErr error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		offers, offerErr = a.tx.OffersBySeller(egCtx, sellerID, a.windows.Offers)
		return nil
	})
	eg.Go(func() error {
		orders, orderErr = a.tx.OrdersBySeller(egCtx, sellerID, a.windows.Orders)
		return nil
	})
	_ = eg.Wait()

	log := a.logger.With(map[string]interface{}{"seller_id": sellerID})
	if offerErr != nil {
		log.Warn("offer history unavailable, using defaults", map[string]interface{}{"error": offerErr.Error()})
		offers = nil
	}
	if orderErr != nil {
		log.Warn("order history unavailable, using defaults", map[string]interface{}{"error": orderErr.Error()})
		orders = nil
	}

	h := ComputeSellerHistory(truncOffers(offers, a.windows.Offers), truncOrders(orders, a.windows.Orders))
	if offerErr == nil && orderErr == nil {
		a.setCached(ctx, key, h)
	}
	return h
}

// BuyerReliability 计算买家信用；buyerID 为空时返回 0.5 的中性默认值。
func (a *Aggregator) BuyerReliability(ctx context.Context, buyerID string) core.BuyerReliability {
	if buyerID == "" || a.tx == nil {
		return core.DefaultBuyerReliability()
	}
	key := "leadrank:buyer_reliability:" + buyerID
	var cached core.BuyerReliability
	if a.getCached(ctx, key, &cached) {
		return cached
	}

	orders, err := a.tx.OrdersByBuyer(ctx, buyerID, a.windows.BuyerOrders)
	if err != nil {
		a.logger.Warn("buyer history unavailable, using defaults", map[string]interface{}{
			"buyer_id": buyerID,
			"error":    err.Error(),
		})
		return core.DefaultBuyerReliability()
	}
	r := ComputeBuyerReliability(truncOrders(orders, a.windows.BuyerOrders))
	a.setCached(ctx, key, r)
	return r
}

// MarketPrice 返回该物种近 30 天已完成订单的单价中位数；无数据时 ok=false。
func (a *Aggregator) MarketPrice(ctx context.Context, species string) (float64, bool) {
	if species == "" || a.tx == nil {
		return 0, false
	}
	key := "leadrank:market_price:" + strings.ToLower(species)
	var cached float64
	if a.getCached(ctx, key, &cached) {
		return cached, cached > 0
	}

	orders, err := a.tx.CompletedOrdersBySpecies(ctx, species, a.now().Add(-a.windows.Market))
	if err != nil {
		a.logger.Warn("market price unavailable", map[string]interface{}{
			"species": species,
			"error":   err.Error(),
		})
		return 0, false
	}
	price, ok := MedianUnitPrice(orders)
	if !ok {
		return 0, false
	}
	a.setCached(ctx, key, price)
	return price, true
}

func (a *Aggregator) getCached(ctx context.Context, key string, dst interface{}) bool {
	if a.cache == nil || a.cacheTTL <= 0 {
		return false
	}
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (a *Aggregator) setCached(ctx context.Context, key string, v interface{}) {
	if a.cache == nil || a.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	ttl := int(a.cacheTTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	if err := a.cache.Set(ctx, key, data, ttl); err != nil {
		a.logger.Debug("history cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// ComputeSellerHistory 从报价与订单计算卖家历史，空输入的统计项使用默认值。
func ComputeSellerHistory(offers []core.Offer, orders []core.Order) core.SellerHistory {
	h := core.DefaultSellerHistory()

	if len(offers) > 0 {
		accepted := 0
		for _, o := range offers {
			if o.Status == core.OfferAccepted {
				accepted++
			}
		}
		h.AcceptanceRate = float64(accepted) / float64(len(offers))
	}

	if len(orders) > 0 {
		var (
			quantities []float64
			ratings    []float64
			completed  int
			disputed   int
			maxQty     float64
		)
		for _, o := range orders {
			q := float64(o.Quantity)
			if q > 0 {
				quantities = append(quantities, q)
				if q > maxQty {
					maxQty = q
				}
			}
			switch o.Status {
			case core.OrderCompleted:
				completed++
			case core.OrderDisputed:
				disputed++
			}
			if o.Rating != nil {
				ratings = append(ratings, *o.Rating)
			}
		}
		if len(quantities) > 0 {
			h.AvgQuantity = stats.Mean(quantities)
			h.MaxQuantity = maxQty
		}
		if len(ratings) > 0 {
			h.AvgRating = stats.Mean(ratings)
		}
		h.TotalSales = completed
		h.DisputeRate = float64(disputed) / float64(len(orders))
	}
	return h
}

// ComputeBuyerReliability 计算买家信用：0.5·付款率 + 0.3·(1−取消率) + 0.2·付款速度。
func ComputeBuyerReliability(orders []core.Order) core.BuyerReliability {
	if len(orders) == 0 {
		return core.DefaultBuyerReliability()
	}
	var paid, cancelled int
	var speeds []float64
	for _, o := range orders {
		switch o.Status {
		case core.OrderPaid, core.OrderCompleted:
			paid++
		case core.OrderCancelled:
			cancelled++
		}
		if o.PaidAt != nil && !o.CreatedAt.IsZero() {
			speeds = append(speeds, paymentSpeed(o.PaidAt.Sub(o.CreatedAt)))
		}
	}
	total := float64(len(orders))
	r := core.BuyerReliability{
		PaymentRate:      float64(paid) / total,
		CancellationRate: float64(cancelled) / total,
		PaymentSpeed:     0.5,
	}
	if len(speeds) > 0 {
		r.PaymentSpeed = stats.Mean(speeds)
	}
	r.Score = stats.Clamp01(0.5*r.PaymentRate + 0.3*(1-r.CancellationRate) + 0.2*r.PaymentSpeed)
	return r
}

func paymentSpeed(d time.Duration) float64 {
	hours := d.Hours()
	switch {
	case hours <= 24:
		return 1.0
	case hours <= 72:
		return 0.7
	default:
		return 0.4
	}
}

// MedianUnitPrice 返回正单价的中位数。
func MedianUnitPrice(orders []core.Order) (float64, bool) {
	prices := make([]float64, 0, len(orders))
	for _, o := range orders {
		if o.UnitPrice > 0 {
			prices = append(prices, o.UnitPrice)
		}
	}
	if len(prices) == 0 {
		return 0, false
	}
	sort.Float64s(prices)
	return stats.Percentile(prices, 0.5), true
}

func truncOffers(offers []core.Offer, n int) []core.Offer {
	if n > 0 && len(offers) > n {
		return offers[:n]
	}
	return offers
}

func truncOrders(orders []core.Order, n int) []core.Order {
	if n > 0 && len(orders) > n {
		return orders[:n]
	}
	return orders
}
