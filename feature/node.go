package feature

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/pipeline"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/pkg/utils"
)

// DefaultConcurrency 是 ExtractNode 默认并发度。
const DefaultConcurrency = 8

// ExtractNode 为每个候选计算特征向量。
// 抽取失败的候选被记录日志后跳过，其余候选保持输入顺序。
type ExtractNode struct {
	Extractor   *Extractor
	Concurrency int
	Logger      logger.Logger
	Metrics     *metrics.Metrics
}

func (n *ExtractNode) Name() string {
	return "feature.extract"
}

func (n *ExtractNode) Kind() pipeline.Kind {
	return pipeline.KindFeature
}

func (n *ExtractNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	log := logger.OrNop(n.Logger)
	limit := n.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// 每个 goroutine 只写自己的下标
	ok := make([]bool, len(candidates))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, c := range candidates {
		if c == nil {
			continue
		}
		eg.Go(func() error {
			fv, err := n.Extractor.Extract(egCtx, rctx, c.Request)
			if err != nil {
				log.Warn("feature extraction failed, skipping candidate", map[string]interface{}{
					"index": c.Index,
					"error": err.Error(),
				})
				return nil
			}
			c.Features = fv
			ok[i] = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if ok[i] {
			c.PutLabel("features", utils.Label{Value: "extracted", Source: utils.SourceFeature})
			out = append(out, c)
		}
	}
	n.Metrics.AddExtractionFailures(len(candidates) - len(out))
	return out, nil
}
