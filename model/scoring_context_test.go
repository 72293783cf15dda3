package model

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
)

func TestScoringContext_DefaultsToWeighted(t *testing.T) {
	sc := NewScoringContext(nil)
	assert.Equal(t, "weighted", sc.Current().Name())
	assert.Nil(t, sc.Artifact())

	_, err := sc.Metadata()
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}

func TestScoringContext_Swap(t *testing.T) {
	sc := NewScoringContext(nil)
	require.NoError(t, sc.Swap(newTestArtifact(t, "v1")))
	assert.Equal(t, "trained", sc.Current().Name())

	md, err := sc.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "v1", md.Version)

	bad := newTestArtifact(t, "v2")
	bad.Scaler = nil
	assert.Error(t, sc.Swap(bad))
	assert.Equal(t, "v1", sc.Artifact().Metadata.Version)
}

func TestScoringContext_Load(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := NewFileArtifactStore(dir)

	sc := NewScoringContext(nil)
	require.NoError(t, sc.Load(ctx, fs))
	assert.Equal(t, "weighted", sc.Current().Name())

	require.NoError(t, fs.Save(ctx, newTestArtifact(t, "v7")))
	require.NoError(t, sc.Load(ctx, fs))
	assert.Equal(t, "v7", sc.Artifact().Metadata.Version)
}

func TestScoringContext_ConcurrentReadsDuringSwap(t *testing.T) {
	sc := NewScoringContext(nil)
	a1, a2 := newTestArtifact(t, "a"), newTestArtifact(t, "b")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, err := sc.Current().Score(baseVector())
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		a := a1
		if i%2 == 1 {
			a = a2
		}
		require.NoError(t, sc.Swap(a))
	}
	wg.Wait()
}

func TestTrainedScorer_RejectsNonFinite(t *testing.T) {
	s, err := NewTrainedScorer(newTestArtifact(t, "v"))
	require.NoError(t, err)
	fv := baseVector()
	fv.Freshness = math.NaN()
	_, err = s.Score(fv)
	assert.True(t, core.IsInvalidInput(err))
}
