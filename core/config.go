package core

import "time"

// 排序与历史聚合的默认值。
const (
	// DefaultRankLimit 默认返回的排序结果数
	DefaultRankLimit = 20

	// DefaultOfferWindow 卖家历史统计使用的最近报价数
	DefaultOfferWindow = 100

	// DefaultOrderWindow 卖家历史统计使用的最近订单数
	DefaultOrderWindow = 50

	// DefaultBuyerOrderWindow 买家信用统计使用的最近订单数
	DefaultBuyerOrderWindow = 20

	// DefaultMarketWindow 市场价格统计的时间窗口
	DefaultMarketWindow = 30 * 24 * time.Hour

	// DefaultRankTimeout 单次排序调用的整体超时
	DefaultRankTimeout = 2 * time.Second
)
