package recall

import (
	"context"

	"github.com/rushteam/leadrank/core"
)

// Source 表示一个候选需求召回源（专营品类 / 服务省份 / ...）。
// 可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RankContext) ([]*core.BuyRequest, error)
}
