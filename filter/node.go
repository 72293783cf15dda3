package filter

import (
	"context"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/pipeline"
	"github.com/rushteam/leadrank/pkg/logger"
)

// FilterNode 组合多个过滤器；任何一个过滤器返回 true，该候选就会被移除。
// 过滤器出错时保留候选（过滤是排序前的优化，不能导致需求不可见）。
type FilterNode struct {
	Filters []Filter
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(candidates) == 0 {
		return candidates, nil
	}
	log := logger.OrNop(n.Logger)

	out := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}

		drop := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, c)
			if err != nil {
				log.Warn("filter error, keeping candidate", map[string]interface{}{
					"filter":     f.Name(),
					"request_id": requestID(c),
					"error":      err.Error(),
				})
				continue
			}
			if ok {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, c)
		}
	}
	n.Metrics.AddFiltered(len(candidates) - len(out))
	return out, nil
}

func requestID(c *core.Candidate) string {
	if c == nil || c.Request == nil {
		return ""
	}
	return c.Request.ID
}
