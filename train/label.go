package train

import "github.com/rushteam/leadrank/core"

// 行为类型到训练标签的映射
var labels = map[core.InteractionType]float64{
	core.InteractionOfferAccepted: 1.0,
	core.InteractionOfferSent:     0.8,
	core.InteractionView:          0.3,
	core.InteractionSkipped:       0.1,
}

// DefaultLabel 是未知行为类型的标签。
const DefaultLabel = 0.3

// Label 返回行为类型对应的标签值。
func Label(t core.InteractionType) float64 {
	if v, ok := labels[t]; ok {
		return v
	}
	return DefaultLabel
}
