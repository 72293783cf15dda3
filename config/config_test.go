package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Engine.DefaultLimit)
	assert.Equal(t, 2*time.Second, cfg.Engine.RankTimeout)
	assert.Equal(t, 1000, cfg.Training.MinSamples)
	assert.InDelta(t, -0.2, cfg.Weights.Distance, 1e-12)
	assert.Equal(t, BackendMemory, cfg.Storage.InteractionLog.Backend)
	require.Len(t, cfg.Pipeline.Nodes, 3)
	assert.Equal(t, "feature.extract", cfg.Pipeline.Nodes[0].Type)
}

func TestLoad_FileOverridesAndEnv(t *testing.T) {
	t.Setenv("LEADRANK_REDIS_ADDR", "127.0.0.1:6390")
	path := filepath.Join(t.TempDir(), "leadrank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  default_limit: 50
  rank_timeout: 500ms
weights:
  price: 0.3
training:
  min_samples: 200
  window: 720h
  schedule: "0 3 * * *"
  forest:
    trees: 10
storage:
  redis:
    addr: ${LEADRANK_REDIS_ADDR}
  interaction_log:
    backend: redis
pipeline:
  nodes:
    - type: filter.expr
      config:
        expr: "request.quantity > 0"
    - type: feature.extract
    - type: rank.score
    - type: rerank.topn
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Engine.DefaultLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.RankTimeout)
	assert.InDelta(t, 0.3, cfg.Weights.Price, 1e-12)
	// 未出现的字段保持默认
	assert.InDelta(t, 0.25, cfg.Weights.SpeciesMatch, 1e-12)
	assert.Equal(t, 200, cfg.Training.MinSamples)
	assert.Equal(t, 30*24*time.Hour, cfg.Training.Window)
	assert.Equal(t, 10, cfg.Training.Forest.Trees)
	assert.Equal(t, 8, cfg.Training.Forest.MaxDepth)
	assert.Equal(t, "0 3 * * *", cfg.Training.Schedule)
	assert.Equal(t, "127.0.0.1:6390", cfg.Storage.Redis.Addr)
	require.Len(t, cfg.Pipeline.Nodes, 4)
	assert.Equal(t, "request.quantity > 0", cfg.Pipeline.Nodes[0].Config["expr"])
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  default_limit: -1
training:
  test_fraction: 1.5
storage:
  artifacts:
    backend: redis
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_limit")
	assert.Contains(t, err.Error(), "test_fraction")
	assert.Contains(t, err.Error(), "storage.redis.addr")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	err := Parse([]byte("engine: [1, 2"), Default())
	assert.Error(t, err)
}

func TestHistoryConfig_Windows(t *testing.T) {
	w := Default().History.Windows()
	assert.Equal(t, 100, w.Offers)
	assert.Equal(t, 50, w.Orders)
	assert.Equal(t, 20, w.BuyerOrders)
	assert.Equal(t, 30*24*time.Hour, w.Market)
}
