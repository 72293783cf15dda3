package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
)

func TestMemoryDataStore_ListCandidates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryDataStore()
	m.PutRequest(&core.BuyRequest{ID: "old", Species: "cattle", CreatedAt: now.Add(-2 * time.Hour)})
	m.PutRequest(&core.BuyRequest{ID: "new", Species: "Cattle", CreatedAt: now.Add(-time.Hour)})
	m.PutRequest(&core.BuyRequest{ID: "expired", Species: "cattle", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)})
	m.PutRequest(&core.BuyRequest{ID: "goat", Species: "goat", CreatedAt: now})

	got, err := m.ListCandidates(ctx, core.CandidateFilter{Species: []string{"cattle"}, OpenAt: now})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)

	got, err = m.ListCandidates(ctx, core.CandidateFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryDataStore_Orders(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemoryDataStore()
	m.AddOrders(
		core.Order{ID: "1", SellerID: "s", BuyerID: "b", Species: "cattle", Status: core.OrderCompleted, CreatedAt: now.Add(-time.Hour)},
		core.Order{ID: "2", SellerID: "s", BuyerID: "b", Species: "cattle", Status: core.OrderPaid, CreatedAt: now},
		core.Order{ID: "3", SellerID: "x", BuyerID: "b", Species: "cattle", Status: core.OrderCompleted, CreatedAt: now.Add(-48 * time.Hour)},
	)

	bySeller, err := m.OrdersBySeller(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, bySeller, 2)
	assert.Equal(t, "2", bySeller[0].ID)

	byBuyer, err := m.OrdersByBuyer(ctx, "b", 2)
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	completed, err := m.CompletedOrdersBySpecies(ctx, "CATTLE", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "1", completed[0].ID)
}

func TestMemoryDataStore_Errors(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDataStore()

	_, err := m.GetSeller(ctx, "missing")
	assert.True(t, core.IsNotFound(err))

	m.Err = errors.New("db down")
	_, err = m.OffersBySeller(ctx, "s", 10)
	assert.EqualError(t, err, "db down")
}
