package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rushteam/leadrank/core"
)

// MemoryDataStore 是外部协作方（需求库、卖家库、交易历史库）的内存实现。
// Err 非 nil 时所有读取都返回该错误，用于模拟下游不可用。
type MemoryDataStore struct {
	mu       sync.RWMutex
	requests map[string]*core.BuyRequest
	sellers  map[string]*core.SellerProfile
	offers   []core.Offer
	orders   []core.Order

	Err error
}

func NewMemoryDataStore() *MemoryDataStore {
	return &MemoryDataStore{
		requests: make(map[string]*core.BuyRequest),
		sellers:  make(map[string]*core.SellerProfile),
	}
}

func (m *MemoryDataStore) PutSeller(s *core.SellerProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sellers[s.ID] = s
}

func (m *MemoryDataStore) PutRequest(r *core.BuyRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
}

func (m *MemoryDataStore) AddOffers(offers ...core.Offer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers = append(m.offers, offers...)
}

func (m *MemoryDataStore) AddOrders(orders ...core.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, orders...)
}

func (m *MemoryDataStore) GetSeller(ctx context.Context, id string) (*core.SellerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.sellers[id]
	if !ok {
		return nil, core.ErrSellerNotFound
	}
	return s, nil
}

func (m *MemoryDataStore) GetRequest(ctx context.Context, id string) (*core.BuyRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, core.ErrRequestNotFound
	}
	return r, nil
}

// ListCandidates 按创建时间倒序返回满足过滤条件的需求。
func (m *MemoryDataStore) ListCandidates(ctx context.Context, filter core.CandidateFilter) ([]*core.BuyRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*core.BuyRequest, 0, len(m.requests))
	for _, r := range m.requests {
		if len(filter.Species) > 0 && !containsFold(filter.Species, r.Species) {
			continue
		}
		if len(filter.Provinces) > 0 && !containsFold(filter.Provinces, r.Location.Province) {
			continue
		}
		if !filter.OpenAt.IsZero() && !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(filter.OpenAt) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryDataStore) OffersBySeller(ctx context.Context, sellerID string, limit int) ([]core.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []core.Offer
	for _, o := range m.offers {
		if o.SellerID == sellerID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryDataStore) OrdersBySeller(ctx context.Context, sellerID string, limit int) ([]core.Order, error) {
	return m.filterOrders(limit, func(o core.Order) bool { return o.SellerID == sellerID })
}

func (m *MemoryDataStore) OrdersByBuyer(ctx context.Context, buyerID string, limit int) ([]core.Order, error) {
	return m.filterOrders(limit, func(o core.Order) bool { return o.BuyerID == buyerID })
}

func (m *MemoryDataStore) CompletedOrdersBySpecies(ctx context.Context, species string, since time.Time) ([]core.Order, error) {
	return m.filterOrders(0, func(o core.Order) bool {
		return o.Status == core.OrderCompleted &&
			strings.EqualFold(o.Species, species) &&
			!o.CreatedAt.Before(since)
	})
}

func (m *MemoryDataStore) filterOrders(limit int, keep func(core.Order) bool) ([]core.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []core.Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

var (
	_ core.RequestStore     = (*MemoryDataStore)(nil)
	_ core.SellerStore      = (*MemoryDataStore)(nil)
	_ core.TransactionStore = (*MemoryDataStore)(nil)
)
