package core

import "time"

// InteractionType 是卖家对需求的行为类型。
type InteractionType string

const (
	InteractionView          InteractionType = "view"
	InteractionOfferSent     InteractionType = "offer_sent"
	InteractionOfferAccepted InteractionType = "offer_accepted"
	InteractionSkipped       InteractionType = "skipped"
)

// Known 判断是否为已知行为类型。
func (t InteractionType) Known() bool {
	switch t {
	case InteractionView, InteractionOfferSent, InteractionOfferAccepted, InteractionSkipped:
		return true
	}
	return false
}

// InteractionRecord 是一次行为观测，训练的真实标签来源。
// 创建后不可变；保留/清理由外部负责。
type InteractionRecord struct {
	ID        string          `json:"id"`
	SellerID  string          `json:"seller_id"`
	RequestID string          `json:"request_id"`
	Type      InteractionType `json:"type"`
	Features  *FeatureVector  `json:"features,omitempty"` // 行为发生时的特征快照
	Timestamp time.Time       `json:"timestamp"`
}
