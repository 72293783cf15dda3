package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/feature"
)

func newTestArtifact(t *testing.T, version string) *Artifact {
	t.Helper()
	x, y := syntheticDataset(120, 11)
	scaler, err := feature.FitStandardScaler(x)
	require.NoError(t, err)
	xs, err := scaler.TransformAll(x)
	require.NoError(t, err)
	forest, err := FitForest(xs, y, ForestParams{Trees: 3, MaxDepth: 4, MinLeaf: 3, Seed: 42})
	require.NoError(t, err)
	return &Artifact{
		Scaler: scaler,
		Forest: forest,
		Metadata: Metadata{
			Version:     version,
			TrainedAt:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			SampleCount: len(x),
		},
	}
}
