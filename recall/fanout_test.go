package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/store"
)

var now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func putRequest(data *store.MemoryDataStore, id, species, province string, age time.Duration) {
	data.PutRequest(&core.BuyRequest{
		ID:        id,
		Species:   species,
		Quantity:  10,
		Location:  core.Location{Province: province},
		CreatedAt: now.Add(-age),
		ExpiresAt: now.Add(24 * time.Hour),
	})
}

func sellerContext() *core.RankContext {
	return &core.RankContext{
		SellerID: "s1",
		Seller: &core.SellerProfile{
			ID:               "s1",
			Specialties:      []string{"cattle"},
			Location:         core.Location{Province: "Nakuru"},
			ServiceProvinces: []string{"Kericho", "nakuru"},
		},
		Now: now,
	}
}

func requestIDs(reqs []*core.BuyRequest) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}

func TestStoreFanout_MergesInSourceOrder(t *testing.T) {
	data := store.NewMemoryDataStore()
	putRequest(data, "beef-far", "beef", "Mombasa", time.Hour)
	putRequest(data, "cattle-near", "cattle", "Nakuru", 2*time.Hour)
	putRequest(data, "goat-near", "goat", "Kericho", 3*time.Hour)
	putRequest(data, "pig-far", "pig", "Mombasa", 4*time.Hour)

	f := NewStoreFanout(data, 0, time.Second)
	reqs, err := f.Recall(context.Background(), sellerContext())
	require.NoError(t, err)
	// 专营品类（含同家族）在前，按创建时间倒序；服务省份补充其余
	assert.Equal(t, []string{"beef-far", "cattle-near", "goat-near"}, requestIDs(reqs))

	f.Limit = 2
	reqs, err = f.Recall(context.Background(), sellerContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"beef-far", "cattle-near"}, requestIDs(reqs))
}

type stubSource struct {
	name  string
	reqs  []*core.BuyRequest
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Recall(ctx context.Context, _ *core.RankContext) ([]*core.BuyRequest, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.reqs, s.err
}

func TestFanout_SkipsFailingSources(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&stubSource{name: "broken", err: errors.New("db down")},
			&stubSource{name: "slow", delay: time.Second, reqs: []*core.BuyRequest{{ID: "slow"}}},
			&stubSource{name: "ok", reqs: []*core.BuyRequest{{ID: "a"}, nil, {ID: "b"}, {ID: "a"}}},
		},
		Timeout:       20 * time.Millisecond,
		MaxConcurrent: 2,
		Logger:        logger.NewTestLogger(t),
	}
	reqs, err := f.Recall(context.Background(), sellerContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, requestIDs(reqs))
}

func TestFanout_Edges(t *testing.T) {
	reqs, err := (&Fanout{}).Recall(context.Background(), sellerContext())
	require.NoError(t, err)
	assert.Empty(t, reqs)

	data := store.NewMemoryDataStore()
	putRequest(data, "x", "cattle", "Nakuru", time.Hour)
	reqs, err = NewStoreFanout(data, 0, 0).Recall(context.Background(), &core.RankContext{Seller: &core.SellerProfile{ID: "s2"}})
	require.NoError(t, err)
	assert.Empty(t, reqs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewStoreFanout(data, 0, 0).Recall(ctx, sellerContext())
	assert.ErrorIs(t, err, context.Canceled)
}
