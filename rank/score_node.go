package rank

import (
	"context"
	"sort"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pipeline"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/pkg/utils"
)

// ScorerSource 提供当前打分器与兜底的加权打分器，model.ScoringContext 实现此接口。
type ScorerSource interface {
	Current() model.Scorer
	Fallback() *model.WeightedScorer
}

// ScoreNode 为候选打分并按分数稳定降序排序，同分按输入顺序。
//   - 写入 labels：rank_model
//   - 当前模型对任一候选打分失败时，整批改用加权打分并写入 fallback 标签，
//     结果与直接使用加权打分完全一致
type ScoreNode struct {
	Scorers ScorerSource
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

func (n *ScoreNode) Name() string        { return "rank.score" }
func (n *ScoreNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ScoreNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	items := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && c.Features != nil {
			items = append(items, c)
		}
	}
	if len(items) == 0 {
		return items, nil
	}

	scorer := n.Scorers.Current()
	scores, err := scoreAll(scorer, items)
	fallback := false
	if err != nil {
		fb := n.Scorers.Fallback()
		if model.Scorer(fb) == scorer {
			return nil, err
		}
		logger.OrNop(n.Logger).Warn("scorer failed, falling back to weighted scorer", map[string]interface{}{
			"scorer":    scorer.Name(),
			"seller_id": sellerID(rctx),
			"error":     err.Error(),
		})
		n.Metrics.IncScorerFallback()
		scorer, fallback = fb, true
		if scores, err = scoreAll(fb, items); err != nil {
			return nil, err
		}
	}

	for i, c := range items {
		c.Score = scores[i]
		c.PutLabel("rank_model", utils.Label{Value: scorer.Name(), Source: utils.SourceRank})
		if fallback {
			c.PutLabel("fallback", utils.Label{Value: "true", Source: utils.SourceRank})
		}
	}
	if rctx != nil {
		rctx.PutLabel("scorer", utils.Label{Value: scorer.Name(), Source: utils.SourceRank})
	}

	SortByScore(items)
	return items, nil
}

func scoreAll(s model.Scorer, items []*core.Candidate) ([]float64, error) {
	scores := make([]float64, len(items))
	for i, c := range items {
		v, err := s.Score(*c.Features)
		if err != nil {
			return nil, err
		}
		scores[i] = v
	}
	return scores, nil
}

// SortByScore 按分数降序稳定排序，同分时输入位置靠前者在前。
func SortByScore(items []*core.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Index < items[j].Index
	})
}

func sellerID(rctx *core.RankContext) string {
	if rctx == nil {
		return ""
	}
	return rctx.SellerID
}
