package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pkg/logger"
)

type failingScorer struct{ failOn float64 }

func (f *failingScorer) Name() string { return "broken" }
func (f *failingScorer) Score(fv core.FeatureVector) (float64, error) {
	if fv.SpeciesMatch == f.failOn {
		return 0, errors.New("tree exploded")
	}
	return 1 - fv.SpeciesMatch, nil
}

type fixedSource struct {
	current  model.Scorer
	fallback *model.WeightedScorer
}

func (s *fixedSource) Current() model.Scorer { return s.current }
func (s *fixedSource) Fallback() *model.WeightedScorer { return s.fallback }

func candidate(i int, species float64) *core.Candidate {
	c := core.NewCandidate(i, &core.BuyRequest{ID: string(rune('a' + i))})
	c.Features = &core.FeatureVector{SpeciesMatch: species, DistanceKM: 100}
	return c
}

func TestScoreNode_SortsDescendingWithStableTies(t *testing.T) {
	node := &ScoreNode{Scorers: model.NewScoringContext(nil)}
	in := []*core.Candidate{candidate(0, 0.2), candidate(1, 1.0), candidate(2, 0.2), candidate(3, 1.0)}

	out, err := node.Process(context.Background(), &core.RankContext{}, in)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, []int{1, 3, 0, 2}, []int{out[0].Index, out[1].Index, out[2].Index, out[3].Index})
	assert.Equal(t, "weighted", out[0].Labels["rank_model"].Value)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestScoreNode_FallbackMatchesWeighted(t *testing.T) {
	weighted := model.NewWeightedScorer(model.DefaultWeights())
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	node := &ScoreNode{
		Scorers: &fixedSource{current: &failingScorer{failOn: 0.8}, fallback: weighted},
		Logger:  logger.NewTestLogger(t),
		Metrics: m,
	}
	rctx := &core.RankContext{SellerID: "s1"}
	out, err := node.Process(context.Background(), rctx, []*core.Candidate{candidate(0, 0.2), candidate(1, 0.8), candidate(2, 1.0)})
	require.NoError(t, err)

	direct, err := (&ScoreNode{Scorers: &fixedSource{current: weighted, fallback: weighted}}).Process(
		context.Background(), &core.RankContext{}, []*core.Candidate{candidate(0, 0.2), candidate(1, 0.8), candidate(2, 1.0)})
	require.NoError(t, err)

	require.Len(t, out, len(direct))
	for i := range out {
		assert.Equal(t, direct[i].Index, out[i].Index)
		assert.Equal(t, direct[i].Score, out[i].Score)
		assert.Equal(t, "true", out[i].Labels["fallback"].Value)
	}
	lbl, ok := rctx.GetLabel("scorer")
	require.True(t, ok)
	assert.Equal(t, "weighted", lbl.Value)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScorerFallbacks))
}

func TestScoreNode_SkipsCandidatesWithoutFeatures(t *testing.T) {
	node := &ScoreNode{Scorers: model.NewScoringContext(nil)}
	bare := core.NewCandidate(5, &core.BuyRequest{ID: "x"})
	out, err := node.Process(context.Background(), nil, []*core.Candidate{bare, nil, candidate(0, 1)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].Index)
}
