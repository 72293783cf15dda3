package rerank

import (
	"context"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pipeline"
)

// TopNNode 是 Top-N 截断节点，放在打分排序之后。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &feature.ExtractNode{...},
//	        &rank.ScoreNode{...},
//	        &rerank.TopNNode{},       // 截取到 rctx.Limit
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量
	// 如果 N <= 0，则使用 rctx.Limit；两者都 <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 || len(candidates) <= limit {
		return candidates, nil
	}
	return candidates[:limit], nil
}
