package pipeline

import (
	"context"

	"github.com/rushteam/leadrank/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter  Kind = "filter"  // 过滤阶段：按表达式剔除候选
	KindFeature Kind = "feature" // 特征阶段：为候选计算特征向量
	KindRank    Kind = "rank"    // 排序阶段：打分并稳定排序
	KindReRank  Kind = "rerank"  // 重排阶段：截断等
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 candidates -> 输出 candidates”的形态。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RankContext,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}
