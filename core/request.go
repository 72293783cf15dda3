package core

import (
	"strings"
	"time"
)

// Location 是位置描述：经纬度或省份二选一（也可同时提供）。
// 经纬度缺失时，距离估算退化为省份粗略估计。
type Location struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	Province string   `json:"province,omitempty"`
}

// HasCoordinates 判断是否携带完整经纬度。
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// NewPoint 用经纬度构造 Location。
func NewPoint(lat, lng float64) Location {
	return Location{Lat: &lat, Lng: &lng}
}

// BuyRequest 是买家发布的采购需求（需求侧）。
// 进入排序后视为不可变，只由外部的需求生命周期修改。
type BuyRequest struct {
	ID          string    `json:"id"`
	Species     string    `json:"species"`
	Quantity    int       `json:"quantity"`
	TargetPrice *float64  `json:"target_price,omitempty"` // 单价，可选
	BuyerID     string    `json:"buyer_id,omitempty"`
	Location    Location  `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"` // 零值表示未设置截止时间
}

// SellerProfile 是卖家画像，对引擎只读。
type SellerProfile struct {
	ID               string   `json:"id"`
	Specialties      []string `json:"specialties"`
	Location         Location `json:"location"`
	ServiceProvinces []string `json:"service_provinces"`
}

// ServesProvince 判断卖家所在省份或服务省份是否覆盖 province（忽略大小写）。
func (s *SellerProfile) ServesProvince(province string) bool {
	if s == nil || province == "" {
		return false
	}
	if strings.EqualFold(s.Location.Province, province) {
		return true
	}
	for _, p := range s.ServiceProvinces {
		if strings.EqualFold(p, province) {
			return true
		}
	}
	return false
}

// SellerHistory 是卖家历史表现（派生数据，不单独持久化）。
type SellerHistory struct {
	AcceptanceRate float64 `json:"acceptance_rate"`
	AvgRating      float64 `json:"avg_rating"` // 0-5 星
	TotalSales     int     `json:"total_sales"`
	AvgQuantity    float64 `json:"avg_quantity"`
	MaxQuantity    float64 `json:"max_quantity"`
	DisputeRate    float64 `json:"dispute_rate"`
}

// DefaultSellerHistory 返回无历史时的默认值。
func DefaultSellerHistory() SellerHistory {
	return SellerHistory{
		AcceptanceRate: 0.5,
		AvgRating:      2.5,
		TotalSales:     0,
		AvgQuantity:    50,
		MaxQuantity:    100,
		DisputeRate:    0.1,
	}
}

// BuyerReliability 是买家信用（派生数据）。Score 为加权后的综合分。
type BuyerReliability struct {
	PaymentRate      float64 `json:"payment_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
	PaymentSpeed     float64 `json:"payment_speed"`
	Score            float64 `json:"score"`
}

// DefaultBuyerReliability 返回无历史时的默认值（中性 0.5）。
func DefaultBuyerReliability() BuyerReliability {
	return BuyerReliability{
		PaymentRate:      0.5,
		CancellationRate: 0.5,
		PaymentSpeed:     0.5,
		Score:            0.5,
	}
}

// OfferStatus 报价状态。
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Offer 是卖家对某个需求的报价记录。
type Offer struct {
	ID        string      `json:"id"`
	SellerID  string      `json:"seller_id"`
	RequestID string      `json:"request_id"`
	Status    OfferStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderStatus 订单状态。
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderDisputed  OrderStatus = "disputed"
)

// Order 是成交订单，同时用于卖家统计、买家信用和市场价格。
type Order struct {
	ID        string      `json:"id"`
	SellerID  string      `json:"seller_id"`
	BuyerID   string      `json:"buyer_id"`
	Species   string      `json:"species"`
	Quantity  int         `json:"quantity"`
	UnitPrice float64     `json:"unit_price"`
	Status    OrderStatus `json:"status"`
	Rating    *float64    `json:"rating,omitempty"` // 买家评分 0-5，可选
	CreatedAt time.Time   `json:"created_at"`
	PaidAt    *time.Time  `json:"paid_at,omitempty"`
}
