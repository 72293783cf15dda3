package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/leadrank/core"
)

// Pipeline 把排序逻辑拆成可组合的 Node 链：Filter → Feature → Rank → ReRank。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各 Node；任一 Node 返回错误即中止，ctx 取消时也中止。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RankContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := candidates
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
