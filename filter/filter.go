package filter

import (
	"context"

	"github.com/rushteam/leadrank/core"
)

// Filter 判断一个候选需求是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 candidate 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RankContext, c *core.Candidate) (bool, error)
}
