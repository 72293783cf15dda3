package filter

import (
	"context"

	"github.com/rushteam/leadrank/core"
)

// BlockedBuyerStore 是卖家拉黑列表的存储接口。
type BlockedBuyerStore interface {
	GetBlockedBuyers(ctx context.Context, sellerID string) ([]string, error)
}

// BlacklistFilter 过滤掉被拉黑买家发布的需求。
// BuyerIDs 对所有卖家生效；Store 提供按卖家维护的拉黑列表（可选）。
type BlacklistFilter struct {
	BuyerIDs []string
	Store    BlockedBuyerStore
}

// NewBlacklistFilter 创建黑名单过滤器；storeAdapter 可为 nil。
func NewBlacklistFilter(buyerIDs []string, storeAdapter *StoreAdapter) *BlacklistFilter {
	f := &BlacklistFilter{BuyerIDs: buyerIDs}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RankContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil || c.Request == nil {
		return true, nil
	}
	buyer := c.Request.BuyerID
	if buyer == "" {
		return false, nil
	}

	for _, id := range f.BuyerIDs {
		if id == buyer {
			return true, nil
		}
	}

	if f.Store != nil && rctx != nil && rctx.SellerID != "" {
		blocked, err := f.Store.GetBlockedBuyers(ctx, rctx.SellerID)
		if err != nil {
			return false, err
		}
		for _, id := range blocked {
			if id == buyer {
				return true, nil
			}
		}
	}
	return false, nil
}
