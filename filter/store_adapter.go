package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/leadrank/core"
)

// DefaultBlockKeyPrefix 是卖家拉黑买家列表在 Store 中的 key 前缀。
const DefaultBlockKeyPrefix = "leadrank:blocked_buyers"

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 拉黑列表以 JSON 字符串数组存储在 {keyPrefix}:{sellerID}。
type StoreAdapter struct {
	store     core.Store
	keyPrefix string
}

// NewStoreAdapter 创建一个 core.Store 适配器；keyPrefix 为空时使用默认前缀。
func NewStoreAdapter(s core.Store, keyPrefix string) *StoreAdapter {
	if keyPrefix == "" {
		keyPrefix = DefaultBlockKeyPrefix
	}
	return &StoreAdapter{store: s, keyPrefix: keyPrefix}
}

// GetBlockedBuyers 读取卖家拉黑的买家 ID；没有记录时返回空列表。
func (a *StoreAdapter) GetBlockedBuyers(ctx context.Context, sellerID string) ([]string, error) {
	data, err := a.store.Get(ctx, a.keyPrefix+":"+sellerID)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetBlockedBuyers 覆盖写入卖家的拉黑列表。
func (a *StoreAdapter) SetBlockedBuyers(ctx context.Context, sellerID string, buyerIDs []string) error {
	data, err := json.Marshal(buyerIDs)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.keyPrefix+":"+sellerID, data)
}
