package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRank(OutcomeRanked, 10*time.Millisecond)
	m.ObserveRank(OutcomeRanked, 20*time.Millisecond)
	m.ObserveRank(OutcomeUnranked, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RankCalls.WithLabelValues(OutcomeRanked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RankCalls.WithLabelValues(OutcomeUnranked)))

	m.AddExtractionFailures(3)
	m.AddExtractionFailures(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExtractionFailures))

	m.IncInteraction("view", true)
	m.IncInteraction("view", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Interactions.WithLabelValues("view", "error")))

	m.ObserveTraining("insufficient_data", 0, 0)
	m.ObserveTraining("trained", 1500, 0.42)
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.ModelSamples))
	assert.Equal(t, 0.42, testutil.ToFloat64(m.ModelR2))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRank(OutcomeFallback, time.Second)
		m.AddFiltered(1)
		m.AddExtractionFailures(1)
		m.IncScorerFallback()
		m.IncInteraction("view", true)
		m.ObserveTraining("trained", 1, 1)
	})
}
