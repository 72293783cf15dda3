package core

import "github.com/rushteam/leadrank/pkg/utils"

// Candidate 是排序链路中的统一承载结构：需求、特征、分数、标签。
// Index 是候选在调用方输入中的位置，用于稳定排序时的平局裁决。
type Candidate struct {
	Index    int
	Request  *BuyRequest
	Features *FeatureVector
	Score    float64
	Labels   map[string]utils.Label
}

func NewCandidate(index int, req *BuyRequest) *Candidate {
	return &Candidate{
		Index:   index,
		Request: req,
		Labels:  make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// RankedRequest 是排序结果：需求、分数以及用于透明化/调试的特征向量。
// 降级为未排序结果时 Features 为 nil。
type RankedRequest struct {
	Request  *BuyRequest            `json:"request"`
	Score    float64                `json:"score"`
	Features *FeatureVector         `json:"features,omitempty"`
	Labels   map[string]utils.Label `json:"labels,omitempty"`
}
