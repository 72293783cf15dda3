// Package leadrank 为卖家排序买家采购需求（Request-to-Seller Ranking）。
//
// 设计要点：
// - Pipeline-first: 排序逻辑通过 Node 串联（Filter → Feature → Rank → ReRank）
// - 降级优先: 缺失数据取中性默认值，任何失败都退回未排序结果，排序从不阻断需求可见性
// - 模型可替换: 加权打分无需训练，训练模型通过 ScoringContext 原子替换上线
package leadrank

import (
	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/engine"
	"github.com/rushteam/leadrank/pipeline"
)

// 轻量 facade：便于用户直接 import "leadrank" 使用核心抽象。
type Engine = engine.Engine
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

type BuyRequest = core.BuyRequest
type SellerProfile = core.SellerProfile
type FeatureVector = core.FeatureVector
type RankedRequest = core.RankedRequest

const (
	KindFilter  = pipeline.KindFilter
	KindFeature = pipeline.KindFeature
	KindRank    = pipeline.KindRank
	KindReRank  = pipeline.KindReRank
)
