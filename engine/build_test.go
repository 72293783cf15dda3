package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/config"
	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pipeline"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/store"
	"github.com/rushteam/leadrank/train"
)

func seedLog(t *testing.T, log core.InteractionLog, n int) {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	ts := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		fv := &core.FeatureVector{
			DistanceKM:           rng.Float64() * 600,
			SpeciesMatch:         rng.Float64(),
			QuantityFit:          rng.Float64(),
			PriceCompetitiveness: rng.Float64(),
			SellerHistory:        rng.Float64(),
			BuyerReliability:     rng.Float64(),
			Freshness:            rng.Float64(),
			DeadlineUrgency:      rng.Float64(),
		}
		typ := core.InteractionSkipped
		if fv.SpeciesMatch > 0.5 {
			typ = core.InteractionOfferAccepted
		}
		require.NoError(t, log.Append(context.Background(), &core.InteractionRecord{
			ID:        fmt.Sprintf("rec-%04d", i),
			SellerID:  "s1",
			RequestID: fmt.Sprintf("r%d", i),
			Type:      typ,
			Features:  fv,
			Timestamp: ts.Add(time.Duration(i) * time.Second),
		}))
	}
}

func testStores(t *testing.T) (Stores, *store.MemoryDataStore) {
	t.Helper()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	data := store.NewMemoryDataStore()
	data.PutSeller(&core.SellerProfile{ID: "s1", Specialties: []string{"cattle"}})
	return Stores{
		Sellers:        data,
		Requests:       data,
		Transactions:   data,
		Cache:          kv,
		InteractionLog: store.NewKVInteractionLog(kv, ""),
		Artifacts:      model.NewKVArtifactStore(kv, ""),
	}, data
}

func smallTrainingConfig() *config.Config {
	cfg := config.Default()
	cfg.Training.MinSamples = 200
	cfg.Training.Forest.Trees = 5
	cfg.Training.Forest.MaxDepth = 4
	return cfg
}

func TestBuild_TrainAndReload(t *testing.T) {
	ctx := context.Background()
	stores, _ := testStores(t)
	cfg := smallTrainingConfig()

	eng, err := Build(ctx, cfg, stores, logger.NewTestLogger(t), nil)
	require.NoError(t, err)
	_, err = eng.ModelPerformance()
	assert.ErrorIs(t, err, core.ErrModelUnavailable)

	// 样本不足：不产生模型
	seedLog(t, stores.InteractionLog, 100)
	report, err := eng.TrainModel(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, train.StatusInsufficientData, report.Status)
	assert.Equal(t, 100, report.Shortfall)
	_, err = eng.ModelPerformance()
	assert.ErrorIs(t, err, core.ErrModelUnavailable)

	seedLog(t, stores.InteractionLog, 300)
	report, err = eng.TrainModel(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, train.StatusTrained, report.Status)

	md, err := eng.ModelPerformance()
	require.NoError(t, err)
	assert.Equal(t, report.Metadata.Version, md.Version)
	assert.Equal(t, 400, md.SampleCount)

	results := eng.RankRequestsForSeller(ctx, "s1", []*core.BuyRequest{request("a", "cattle", 10)}, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "trained", results[0].Labels["rank_model"].Value)

	// 新进程从产物存储加载同一版本
	restarted, err := Build(ctx, cfg, stores, logger.NewTestLogger(t), nil)
	require.NoError(t, err)
	md2, err := restarted.ModelPerformance()
	require.NoError(t, err)
	assert.Equal(t, md.Version, md2.Version)
}

func TestBuild_ConfiguredPipeline(t *testing.T) {
	ctx := context.Background()
	stores, _ := testStores(t)
	cfg := config.Default()
	cfg.Pipeline = pipeline.Config{Nodes: []pipeline.NodeConfig{
		{Type: "filter.expr", Config: map[string]interface{}{"expr": "request.quantity >= 10"}},
		{Type: "filter.blacklist", Config: map[string]interface{}{"buyer_ids": []interface{}{"b-banned"}}},
		{Type: "feature.extract"},
		{Type: "rank.score"},
		{Type: "rerank.topn", Config: map[string]interface{}{"n": 2}},
	}}

	eng, err := Build(ctx, cfg, stores, logger.NewTestLogger(t), nil)
	require.NoError(t, err)

	reqs := []*core.BuyRequest{
		request("small", "cattle", 5),
		request("banned", "cattle", 40),
		request("goat", "goat", 40),
		request("cattle", "cattle", 40),
		request("pig", "pig", 40),
	}
	results := eng.RankRequestsForSeller(ctx, "s1", reqs, 10)
	assert.Equal(t, []string{"cattle", "goat"}, ids(results))

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "rerank.unknown"})
	_, err = Build(ctx, cfg, stores, nil, nil)
	assert.Error(t, err)
}

func TestBuild_WithoutTrainingStores(t *testing.T) {
	data := store.NewMemoryDataStore()
	eng, err := Build(context.Background(), nil, Stores{Sellers: data, Transactions: data}, nil, nil)
	require.NoError(t, err)

	_, err = eng.TrainModel(context.Background(), 0)
	assert.ErrorIs(t, err, ErrTrainerUnavailable)
	assert.False(t, eng.RecordInteraction(context.Background(), "s1", "r1", core.InteractionView, nil))
}

func TestBuild_KafkaPublisher(t *testing.T) {
	stores, _ := testStores(t)
	cfg := config.Default()
	cfg.Storage.Kafka.Brokers = []string{"127.0.0.1:1"}
	cfg.Storage.Kafka.FlushInterval = time.Hour

	eng, err := Build(context.Background(), cfg, stores, logger.NewTestLogger(t), nil)
	require.NoError(t, err)
	assert.Len(t, eng.closers, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, eng.Close(ctx))
	assert.NoError(t, New(Dependencies{}).Close(ctx))
}
