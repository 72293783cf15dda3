package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/leadrank/core"
)

func TestHaversine(t *testing.T) {
	// 北京 -> 上海 约 1067km，截断到 1000
	assert.Equal(t, MaxDistanceKM, Haversine(39.9042, 116.4074, 31.2304, 121.4737))

	// 北京 -> 天津 约 110km
	d := Haversine(39.9042, 116.4074, 39.3434, 117.3616)
	assert.InDelta(t, 110, d, 10)

	assert.Equal(t, 0.0, Haversine(10, 10, 10, 10))
	assert.Equal(t, FallbackKM, Haversine(math.NaN(), 0, 0, 0))
	assert.Equal(t, FallbackKM, Haversine(91, 0, 0, 0))
}

func TestEstimator_Between(t *testing.T) {
	var est Estimator
	tests := []struct {
		name   string
		seller *core.SellerProfile
		buyer  core.Location
		want   float64
	}{
		{
			name:   "nil seller",
			seller: nil,
			buyer:  core.Location{Province: "Ontario"},
			want:   FallbackKM,
		},
		{
			name:   "same province",
			seller: &core.SellerProfile{Location: core.Location{Province: "ontario"}},
			buyer:  core.Location{Province: "Ontario"},
			want:   SameProvinceKM,
		},
		{
			name: "service province",
			seller: &core.SellerProfile{
				Location:         core.Location{Province: "Quebec"},
				ServiceProvinces: []string{"Ontario"},
			},
			buyer: core.Location{Province: "Ontario"},
			want:  SameProvinceKM,
		},
		{
			name:   "different province",
			seller: &core.SellerProfile{Location: core.Location{Province: "Quebec"}},
			buyer:  core.Location{Province: "Ontario"},
			want:   OtherProvinceKM,
		},
		{
			name:   "coordinates missing on one side",
			seller: &core.SellerProfile{Location: core.NewPoint(45, -75)},
			buyer:  core.Location{Province: "Ontario"},
			want:   OtherProvinceKM,
		},
		{
			name:   "both coordinates",
			seller: &core.SellerProfile{Location: core.NewPoint(45, -75)},
			buyer:  core.NewPoint(45, -75),
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, est.Between(tt.seller, tt.buyer), 1e-9)
		})
	}
}

func TestEstimator_Distance(t *testing.T) {
	var est Estimator
	assert.Equal(t, SameProvinceKM, est.Distance(core.Location{Province: "A"}, core.Location{Province: "a"}))
	assert.Equal(t, OtherProvinceKM, est.Distance(core.Location{Province: "A"}, core.Location{Province: "B"}))
	assert.Equal(t, OtherProvinceKM, est.Distance(core.Location{}, core.Location{}))
}
