// Package recall 为卖家召回候选需求：多个召回源并发执行，按源顺序合并去重。
package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/logger"
)

// Fanout 并发执行多个召回源并合并结果。
//   - 单个召回源超时或出错时跳过，不影响其他召回源
//   - 合并按 Sources 顺序进行，同一需求只保留第一次出现，结果确定
//   - Limit > 0 时截断合并结果
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	Limit         int
	Logger        logger.Logger
}

// NewStoreFanout 返回基于需求库的默认召回：专营品类优先，其次服务省份。
func NewStoreFanout(store core.RequestStore, limit int, timeout time.Duration) *Fanout {
	return &Fanout{
		Sources: []Source{
			&SpecialtySource{Store: store, Limit: limit},
			&ProvinceSource{Store: store, Limit: limit},
		},
		Timeout: timeout,
		Limit:   limit,
	}
}

func (n *Fanout) Name() string { return "recall.fanout" }

// Recall 执行所有召回源。只有 ctx 已取消时返回错误。
func (n *Fanout) Recall(ctx context.Context, rctx *core.RankContext) ([]*core.BuyRequest, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}
	log := logger.OrNop(n.Logger)

	results := make([][]*core.BuyRequest, len(n.Sources))
	var eg errgroup.Group
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}
	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}
			reqs, err := src.Recall(recallCtx, rctx)
			if err != nil {
				log.WithError(err).Warn("recall source failed", map[string]interface{}{"source": src.Name()})
				return nil
			}
			results[i] = reqs
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return n.merge(results), nil
}

func (n *Fanout) merge(results [][]*core.BuyRequest) []*core.BuyRequest {
	seen := make(map[string]bool)
	var out []*core.BuyRequest
	for _, reqs := range results {
		for _, r := range reqs {
			if r == nil || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
			if n.Limit > 0 && len(out) == n.Limit {
				return out
			}
		}
	}
	return out
}
