// Package metrics 定义排序引擎的 Prometheus 指标。
//
// 所有方法对 nil *Metrics 安全，未配置指标时调用方无需判空。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 排序调用结果
const (
	OutcomeRanked   = "ranked"
	OutcomeFallback = "fallback"
	OutcomeUnranked = "unranked"
)

type Metrics struct {
	RankCalls          *prometheus.CounterVec
	RankDuration       prometheus.Histogram
	CandidatesFiltered prometheus.Counter
	ExtractionFailures prometheus.Counter
	ScorerFallbacks    prometheus.Counter
	Interactions       *prometheus.CounterVec
	TrainingRuns       *prometheus.CounterVec
	ModelSamples       prometheus.Gauge
	ModelR2            prometheus.Gauge
}

// New 在 reg 上注册全部指标；reg 为 nil 时使用 prometheus.DefaultRegisterer。
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RankCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadrank_rank_calls_total",
				Help: "Total number of ranking calls by outcome",
			},
			[]string{"outcome"},
		),
		RankDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadrank_rank_duration_seconds",
				Help:    "Duration of ranking calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		CandidatesFiltered: f.NewCounter(
			prometheus.CounterOpts{
				Name: "leadrank_candidates_filtered_total",
				Help: "Total number of candidates removed by filter expressions",
			},
		),
		ExtractionFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "leadrank_feature_extraction_failures_total",
				Help: "Total number of candidates skipped because feature extraction failed",
			},
		),
		ScorerFallbacks: f.NewCounter(
			prometheus.CounterOpts{
				Name: "leadrank_scorer_fallbacks_total",
				Help: "Total number of ranking calls rescored with the weighted scorer",
			},
		),
		Interactions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadrank_interactions_total",
				Help: "Total number of interaction records by type and result",
			},
			[]string{"type", "result"},
		),
		TrainingRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadrank_training_runs_total",
				Help: "Total number of training runs by status",
			},
			[]string{"status"},
		),
		ModelSamples: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadrank_model_samples",
				Help: "Number of samples the active trained model was fit on",
			},
		),
		ModelR2: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadrank_model_r2",
				Help: "Held-out R2 of the active trained model",
			},
		),
	}
}

func (m *Metrics) ObserveRank(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RankCalls.WithLabelValues(outcome).Inc()
	m.RankDuration.Observe(d.Seconds())
}

func (m *Metrics) AddFiltered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CandidatesFiltered.Add(float64(n))
}

func (m *Metrics) AddExtractionFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ExtractionFailures.Add(float64(n))
}

func (m *Metrics) IncScorerFallback() {
	if m == nil {
		return
	}
	m.ScorerFallbacks.Inc()
}

func (m *Metrics) IncInteraction(typ string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.Interactions.WithLabelValues(typ, result).Inc()
}

// ObserveTraining 记录一次训练；status 为 trained 时同时更新模型指标。
func (m *Metrics) ObserveTraining(status string, samples int, r2 float64) {
	if m == nil {
		return
	}
	m.TrainingRuns.WithLabelValues(status).Inc()
	if status == "trained" {
		m.ModelSamples.Set(float64(samples))
		m.ModelR2.Set(r2)
	}
}
