package recall

import (
	"context"
	"strings"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/feature"
)

// SpecialtySource 召回卖家专营品类及其同家族品类的未过期需求。
// 卖家未声明专营品类时不召回。
type SpecialtySource struct {
	Store core.RequestStore
	Limit int
}

func (s *SpecialtySource) Name() string { return "recall.specialty" }

func (s *SpecialtySource) Recall(ctx context.Context, rctx *core.RankContext) ([]*core.BuyRequest, error) {
	if rctx == nil || rctx.Seller == nil {
		return nil, nil
	}
	var species []string
	seen := make(map[string]bool)
	for _, sp := range rctx.Seller.Specialties {
		for _, m := range feature.FamilyMembers(sp) {
			if m != "" && !seen[m] {
				seen[m] = true
				species = append(species, m)
			}
		}
	}
	if len(species) == 0 {
		return nil, nil
	}
	return s.Store.ListCandidates(ctx, core.CandidateFilter{
		Species: species,
		OpenAt:  rctx.Now,
		Limit:   s.Limit,
	})
}

// ProvinceSource 召回卖家所在省份与服务省份内的未过期需求。
type ProvinceSource struct {
	Store core.RequestStore
	Limit int
}

func (s *ProvinceSource) Name() string { return "recall.province" }

func (s *ProvinceSource) Recall(ctx context.Context, rctx *core.RankContext) ([]*core.BuyRequest, error) {
	if rctx == nil || rctx.Seller == nil {
		return nil, nil
	}
	var provinces []string
	seen := make(map[string]bool)
	for _, p := range append([]string{rctx.Seller.Location.Province}, rctx.Seller.ServiceProvinces...) {
		key := strings.ToLower(strings.TrimSpace(p))
		if key != "" && !seen[key] {
			seen[key] = true
			provinces = append(provinces, p)
		}
	}
	if len(provinces) == 0 {
		return nil, nil
	}
	return s.Store.ListCandidates(ctx, core.CandidateFilter{
		Provinces: provinces,
		OpenAt:    rctx.Now,
		Limit:     s.Limit,
	})
}
