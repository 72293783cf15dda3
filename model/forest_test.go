package model

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/stats"
)

// syntheticDataset 生成 8 维样本，目标只依赖品类匹配与数量匹配。
func syntheticDataset(n int, seed uint64) ([][]float64, []float64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		row := make([]float64, core.FeatureDim)
		row[0] = rng.Float64() * 1000
		for j := 1; j < core.FeatureDim; j++ {
			row[j] = rng.Float64()
		}
		x[i] = row
		y[i] = 0.7*row[1] + 0.3*row[2]
	}
	return x, y
}

func TestFitForest_LearnsSignal(t *testing.T) {
	x, y := syntheticDataset(600, 7)
	f, err := FitForest(x[:500], y[:500], ForestParams{Trees: 10, MaxDepth: 6, MinLeaf: 5, Seed: 42})
	require.NoError(t, err)
	require.Len(t, f.Trees, 10)

	pred := make([]float64, 100)
	for i := range pred {
		pred[i], err = f.Predict(x[500+i])
		require.NoError(t, err)
	}
	assert.Greater(t, stats.R2(y[500:], pred), 0.8)

	// 有信号的特征重要性最高
	assert.Greater(t, f.Importances[1], f.Importances[0])
	assert.Greater(t, f.Importances[1], f.Importances[2])
	sum := 0.0
	for _, v := range f.Importances {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFitForest_Deterministic(t *testing.T) {
	x, y := syntheticDataset(200, 3)
	params := ForestParams{Trees: 5, MaxDepth: 4, MinLeaf: 3, Seed: 42}
	a, err := FitForest(x, y, params)
	require.NoError(t, err)
	b, err := FitForest(x, y, params)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFitForest_Errors(t *testing.T) {
	_, err := FitForest(nil, nil, DefaultForestParams())
	assert.Error(t, err)
	_, err = FitForest([][]float64{{1, 2}, {1}}, []float64{1, 2}, DefaultForestParams())
	assert.Error(t, err)
}

func TestFitForest_ConstantTarget(t *testing.T) {
	x, _ := syntheticDataset(50, 1)
	y := make([]float64, len(x))
	for i := range y {
		y[i] = 0.3
	}
	f, err := FitForest(x, y, ForestParams{Trees: 3, Seed: 1})
	require.NoError(t, err)
	got, err := f.Predict(x[0])
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got, 1e-9)
	assert.Equal(t, make([]float64, core.FeatureDim), f.Importances)
}

func TestTree_PredictCorrupt(t *testing.T) {
	_, err := (&Tree{}).Predict([]float64{1})
	assert.Error(t, err)

	cyclic := &Tree{Nodes: []treeNode{{Feature: 0, Threshold: 1, Left: 0, Right: 0}}}
	_, err = cyclic.Predict([]float64{0})
	assert.Error(t, err)

	outOfRange := &Tree{Nodes: []treeNode{{Feature: 0, Threshold: 1, Left: 5, Right: 6}}}
	_, err = outOfRange.Predict([]float64{0})
	assert.Error(t, err)
}
