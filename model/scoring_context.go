package model

import (
	"context"
	"sync/atomic"

	"github.com/rushteam/leadrank/core"
)

type scoringState struct {
	artifact *Artifact
	scorer   *TrainedScorer
}

// ScoringContext 持有当前生效的训练产物。
// 读操作无锁；Swap 是唯一的修改入口，整体替换指针，排序调用看到的要么是旧模型要么是新模型。
type ScoringContext struct {
	fallback *WeightedScorer
	state    atomic.Pointer[scoringState]
}

// NewScoringContext 创建上下文；fallback 为 nil 时使用默认系数。
func NewScoringContext(fallback *WeightedScorer) *ScoringContext {
	if fallback == nil {
		fallback = NewWeightedScorer(DefaultWeights())
	}
	return &ScoringContext{fallback: fallback}
}

// Current 返回已加载的训练模型，没有时返回加权打分。
func (c *ScoringContext) Current() Scorer {
	if st := c.state.Load(); st != nil {
		return st.scorer
	}
	return c.fallback
}

// Fallback 返回加权打分器。
func (c *ScoringContext) Fallback() *WeightedScorer {
	return c.fallback
}

// Artifact 返回当前产物，没有时返回 nil。
func (c *ScoringContext) Artifact() *Artifact {
	if st := c.state.Load(); st != nil {
		return st.artifact
	}
	return nil
}

// Metadata 返回当前模型的训练元数据；没有训练模型时返回 core.ErrModelUnavailable。
func (c *ScoringContext) Metadata() (*Metadata, error) {
	a := c.Artifact()
	if a == nil {
		return nil, core.ErrModelUnavailable
	}
	md := a.Metadata
	return &md, nil
}

// Swap 校验并发布新产物。
func (c *ScoringContext) Swap(a *Artifact) error {
	scorer, err := NewTrainedScorer(a)
	if err != nil {
		return err
	}
	c.state.Store(&scoringState{artifact: a, scorer: scorer})
	return nil
}

// Load 从持久化存储加载最新产物。
// 没有产物时返回 nil 并继续使用加权打分；产物损坏时返回错误，当前状态不变。
func (c *ScoringContext) Load(ctx context.Context, store ArtifactStore) error {
	a, err := store.Latest(ctx)
	if core.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.Swap(a)
}
