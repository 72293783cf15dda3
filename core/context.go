package core

import (
	"time"

	"github.com/rushteam/leadrank/pkg/utils"
)

// RankContext 承载卖家/历史/时间等信息，贯穿整个 Pipeline 透传。
// 每次排序调用独立构造，节点之间不共享可变状态。
type RankContext struct {
	SellerID string

	// Seller 是强类型卖家画像
	Seller *SellerProfile

	// History 是本次调用计算一次的卖家历史
	History SellerHistory

	// Now 是本次调用的时间快照，保证同一次调用内特征计算一致
	Now time.Time

	// Limit 是本次调用的结果数上限
	Limit int

	// Labels 是调用级标签，例如 scorer=weighted、fallback=true
	Labels map[string]utils.Label

	// Params 请求级参数，CEL 表达式可通过 rctx.params 访问
	Params map[string]any
}

// PutLabel 写入调用级 Label。
func (rctx *RankContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取调用级 Label。
func (rctx *RankContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
