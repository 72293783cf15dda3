// Package geo 估算卖家与买家之间的距离（公里）。
package geo

import (
	"math"
	"strings"

	"github.com/rushteam/leadrank/core"
)

const (
	earthRadiusKM = 6371.0

	// MaxDistanceKM 是经纬度距离的上限，避免错误地理编码导致的极端分数
	MaxDistanceKM = 1000.0

	// SameProvinceKM 同省（或在服务范围内）时的估计距离
	SameProvinceKM = 50.0

	// OtherProvinceKM 不同省时的估计距离
	OtherProvinceKM = 300.0

	// FallbackKM 计算出错时的保守默认值
	FallbackKM = 500.0
)

// Estimator 是距离估算器。零值可用。
type Estimator struct{}

// Between 估算卖家到需求位置的距离，从不失败。
//
// 规则：
//   - 双方都有经纬度：球面距离（haversine），上限 1000km
//   - 否则按省份：同省或在卖家服务省份内 → 50km，否则 → 300km
//   - 任何计算异常 → 500km
func (Estimator) Between(seller *core.SellerProfile, buyer core.Location) (km float64) {
	defer func() {
		if r := recover(); r != nil {
			km = FallbackKM
		}
	}()
	if seller == nil {
		return FallbackKM
	}
	if seller.Location.HasCoordinates() && buyer.HasCoordinates() {
		return Haversine(*seller.Location.Lat, *seller.Location.Lng, *buyer.Lat, *buyer.Lng)
	}
	if buyer.Province != "" && seller.ServesProvince(buyer.Province) {
		return SameProvinceKM
	}
	return OtherProvinceKM
}

// Distance 估算两个位置描述之间的距离，规则同 Between（不考虑服务省份）。
func (Estimator) Distance(a, b core.Location) (km float64) {
	defer func() {
		if r := recover(); r != nil {
			km = FallbackKM
		}
	}()
	if a.HasCoordinates() && b.HasCoordinates() {
		return Haversine(*a.Lat, *a.Lng, *b.Lat, *b.Lng)
	}
	if a.Province != "" && strings.EqualFold(a.Province, b.Province) {
		return SameProvinceKM
	}
	return OtherProvinceKM
}

// Haversine 计算球面距离（公里），截断到 MaxDistanceKM；非法坐标返回 FallbackKM。
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	if !validCoord(lat1, lng1) || !validCoord(lat2, lng2) {
		return FallbackKM
	}
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLng := (lng2 - lng1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	d := earthRadiusKM * c
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return FallbackKM
	}
	return math.Min(d, MaxDistanceKM)
}

func validCoord(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
