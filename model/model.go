// Package model 定义打分策略：默认的加权线性打分，以及训练产出的
// 标准化 + 回归树集成打分，并通过 ScoringContext 原子切换当前模型。
package model

import "github.com/rushteam/leadrank/core"

// Scorer 是排序阶段的最小抽象：输入特征向量，输出一个可比较的分数，越大越好。
// 实现必须是纯函数且并发安全。
type Scorer interface {
	Name() string
	Score(fv core.FeatureVector) (float64, error)
}
