package config

import (
	"fmt"

	"github.com/rushteam/leadrank/feature"
	"github.com/rushteam/leadrank/filter"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/pipeline"
	"github.com/rushteam/leadrank/pkg/conv"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/rank"
	"github.com/rushteam/leadrank/rerank"
)

// Dependencies 是内置 Node 构建时需要的运行期依赖。
type Dependencies struct {
	Extractor   *feature.Extractor
	Scorers     rank.ScorerSource
	BlockStore  *filter.StoreAdapter // 可选
	Concurrency int
	Logger      logger.Logger
	Metrics     *metrics.Metrics
}

// NewFactory 返回包含所有内置 Node 以及通过 Register 注册的自定义 Node 的工厂。
func NewFactory(deps Dependencies) *pipeline.NodeFactory {
	f := DefaultFactory()
	f.Register("filter.expr", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildExprFilterNode(deps, cfg)
	})
	f.Register("filter.blacklist", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildBlacklistNode(deps, cfg)
	})
	f.Register("feature.extract", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildExtractNode(deps, cfg)
	})
	f.Register("rank.score", func(cfg map[string]interface{}) (pipeline.Node, error) {
		if deps.Scorers == nil {
			return nil, fmt.Errorf("rank.score requires a scorer source")
		}
		return &rank.ScoreNode{Scorers: deps.Scorers, Logger: deps.Logger, Metrics: deps.Metrics}, nil
	})
	f.Register("rerank.topn", buildTopNNode)
	return f
}

func buildExprFilterNode(deps Dependencies, cfg map[string]interface{}) (pipeline.Node, error) {
	exprs := conv.SliceAnyToString(cfg["exprs"])
	if e := conv.ConfigGet(cfg, "expr", ""); e != "" {
		exprs = append(exprs, e)
	}
	if len(exprs) == 0 {
		return nil, fmt.Errorf("filter.expr: expr not found")
	}
	filters := make([]filter.Filter, 0, len(exprs))
	for _, e := range exprs {
		f, err := filter.NewExprFilter(e)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters, Logger: deps.Logger, Metrics: deps.Metrics}, nil
}

func buildBlacklistNode(deps Dependencies, cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["buyer_ids"])
	return &filter.FilterNode{
		Filters: []filter.Filter{filter.NewBlacklistFilter(ids, deps.BlockStore)},
		Logger:  deps.Logger,
		Metrics: deps.Metrics,
	}, nil
}

func buildExtractNode(deps Dependencies, cfg map[string]interface{}) (pipeline.Node, error) {
	if deps.Extractor == nil {
		return nil, fmt.Errorf("feature.extract requires an extractor")
	}
	concurrency := int(conv.ConfigGetInt64(cfg, "concurrency", int64(deps.Concurrency)))
	return &feature.ExtractNode{
		Extractor:   deps.Extractor,
		Concurrency: concurrency,
		Logger:      deps.Logger,
		Metrics:     deps.Metrics,
	}, nil
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must not be negative")
	}
	return &rerank.TopNNode{N: int(n)}, nil
}
