package model

import (
	"math"

	"github.com/rushteam/leadrank/core"
)

// Weights 是加权打分的系数。Distance 作用于归一化的距离惩罚 min(d/DistanceScale, 1)，
// 因此取负值时越近得分越高。
type Weights struct {
	Distance         float64 `yaml:"distance" json:"distance"`
	SpeciesMatch     float64 `yaml:"species_match" json:"species_match"`
	QuantityFit      float64 `yaml:"quantity_fit" json:"quantity_fit"`
	Price            float64 `yaml:"price" json:"price"`
	SellerHistory    float64 `yaml:"seller_history" json:"seller_history"`
	BuyerReliability float64 `yaml:"buyer_reliability" json:"buyer_reliability"`
	Freshness        float64 `yaml:"freshness" json:"freshness"`
	Deadline         float64 `yaml:"deadline" json:"deadline"`
	DistanceScale    float64 `yaml:"distance_scale" json:"distance_scale"`
}

// DefaultWeights 返回默认系数。
func DefaultWeights() Weights {
	return Weights{
		Distance:         -0.2,
		SpeciesMatch:     0.25,
		QuantityFit:      0.15,
		Price:            0.20,
		SellerHistory:    0.15,
		BuyerReliability: 0.10,
		Freshness:        0.10,
		Deadline:         0.05,
		DistanceScale:    500,
	}
}

// WeightedScorer 是无需训练的线性打分，结果下限为 0。
type WeightedScorer struct {
	Weights Weights
}

func NewWeightedScorer(w Weights) *WeightedScorer {
	if w.DistanceScale <= 0 {
		w.DistanceScale = DefaultWeights().DistanceScale
	}
	return &WeightedScorer{Weights: w}
}

func (s *WeightedScorer) Name() string { return "weighted" }

func (s *WeightedScorer) Score(fv core.FeatureVector) (float64, error) {
	w := s.Weights
	scale := w.DistanceScale
	if scale <= 0 {
		scale = 500
	}
	penalty := math.Min(math.Max(fv.DistanceKM, 0)/scale, 1)
	score := w.Distance*penalty +
		w.SpeciesMatch*fv.SpeciesMatch +
		w.QuantityFit*fv.QuantityFit +
		w.Price*fv.PriceCompetitiveness +
		w.SellerHistory*fv.SellerHistory +
		w.BuyerReliability*fv.BuyerReliability +
		w.Freshness*fv.Freshness +
		w.Deadline*fv.DeadlineUrgency
	if math.IsNaN(score) || score < 0 {
		return 0, nil
	}
	return score, nil
}
