package core

import "math"

// 特征名，与 FeatureVector.Slice 的顺序一致。
const (
	FeatureDistanceKM           = "distance_km"
	FeatureSpeciesMatch         = "species_match_score"
	FeatureQuantityFit          = "quantity_fit_score"
	FeaturePriceCompetitiveness = "price_competitiveness"
	FeatureSellerHistory        = "seller_history_score"
	FeatureBuyerReliability     = "buyer_reliability_score"
	FeatureFreshness            = "freshness_score"
	FeatureDeadlineUrgency      = "deadline_urgency"
)

// FeatureNames 是特征向量的固定顺序，训练与线上打分共用。
var FeatureNames = []string{
	FeatureDistanceKM,
	FeatureSpeciesMatch,
	FeatureQuantityFit,
	FeaturePriceCompetitiveness,
	FeatureSellerHistory,
	FeatureBuyerReliability,
	FeatureFreshness,
	FeatureDeadlineUrgency,
}

// FeatureDim 是特征向量维度。
const FeatureDim = 8

// FeatureVector 是 (需求, 卖家) 对的定长数值摘要。
// 除 DistanceKM（原始公里数，保留用于可解释）外，其余分量均在 [0,1]。
type FeatureVector struct {
	DistanceKM           float64 `json:"distance_km"`
	SpeciesMatch         float64 `json:"species_match_score"`
	QuantityFit          float64 `json:"quantity_fit_score"`
	PriceCompetitiveness float64 `json:"price_competitiveness"`
	SellerHistory        float64 `json:"seller_history_score"`
	BuyerReliability     float64 `json:"buyer_reliability_score"`
	Freshness            float64 `json:"freshness_score"`
	DeadlineUrgency      float64 `json:"deadline_urgency"`
}

// Slice 按 FeatureNames 顺序返回特征值。
func (f FeatureVector) Slice() []float64 {
	return []float64{
		f.DistanceKM,
		f.SpeciesMatch,
		f.QuantityFit,
		f.PriceCompetitiveness,
		f.SellerHistory,
		f.BuyerReliability,
		f.Freshness,
		f.DeadlineUrgency,
	}
}

// Map 返回 name -> value 形式，便于日志与 CEL 表达式。
func (f FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureDim)
	for i, v := range f.Slice() {
		out[FeatureNames[i]] = v
	}
	return out
}

// Valid 判断所有分量是否为有限值。
func (f FeatureVector) Valid() bool {
	for _, v := range f.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FeatureVectorFromSlice 从定长 slice 还原特征向量。
func FeatureVectorFromSlice(values []float64) (FeatureVector, error) {
	if len(values) != FeatureDim {
		return FeatureVector{}, NewDomainError(ModuleFeature, ErrorCodeInvalidInput, "feature: vector must have 8 components")
	}
	return FeatureVector{
		DistanceKM:           values[0],
		SpeciesMatch:         values[1],
		QuantityFit:          values[2],
		PriceCompetitiveness: values[3],
		SellerHistory:        values[4],
		BuyerReliability:     values[5],
		Freshness:            values[6],
		DeadlineUrgency:      values[7],
	}, nil
}
