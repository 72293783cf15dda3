// Package train 从行为日志构建样本、训练回归树集成并原子发布新模型。
//
// 流程：collect → label → split → fit → evaluate → persist → swap。
// 任一步失败都不会影响当前生效的模型。
package train

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/feature"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/pkg/stats"
)

// Status 是一次训练的结果状态。
type Status string

const (
	StatusTrained          Status = "trained"
	StatusInsufficientData Status = "insufficient_data"
	StatusFailed           Status = "failed"
)

// Report 是一次训练的结构化结果。
type Report struct {
	Status      Status          `json:"status"`
	SampleCount int             `json:"sample_count"`
	Required    int             `json:"required,omitempty"`
	Shortfall   int             `json:"shortfall,omitempty"`
	Metadata    *model.Metadata `json:"metadata,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Config 是训练参数。
type Config struct {
	Window       time.Duration      `yaml:"window"`
	MaxSamples   int                `yaml:"max_samples"`
	MinSamples   int                `yaml:"min_samples"`
	TestFraction float64            `yaml:"test_fraction"`
	SplitSeed    uint64             `yaml:"split_seed"`
	Forest       model.ForestParams `yaml:"forest"`
}

// DefaultConfig 返回默认参数：90 天窗口、最多 10000 条、最少 1000 条、20% 验证集。
func DefaultConfig() Config {
	return Config{
		Window:       90 * 24 * time.Hour,
		MaxSamples:   10000,
		MinSamples:   1000,
		TestFraction: 0.2,
		SplitSeed:    42,
		Forest:       model.DefaultForestParams(),
	}
}

// ErrTrainingInProgress 表示已有一次训练在运行。
var ErrTrainingInProgress = core.NewDomainError(core.ModuleTrain, core.ErrorCodeUnavailable, "train: training already in progress")

// Trainer 执行训练。同一时刻只允许一次训练运行，训练期间不持有排序路径使用的任何锁。
type Trainer struct {
	log       core.InteractionLog
	artifacts model.ArtifactStore
	scoring   *model.ScoringContext
	cfg       Config
	logger    logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	running   atomic.Bool
}

// Option 配置 Trainer。
type Option func(*Trainer)

func WithConfig(cfg Config) Option {
	return func(t *Trainer) {
		d := DefaultConfig()
		if cfg.Window <= 0 {
			cfg.Window = d.Window
		}
		if cfg.MaxSamples <= 0 {
			cfg.MaxSamples = d.MaxSamples
		}
		if cfg.MinSamples <= 0 {
			cfg.MinSamples = d.MinSamples
		}
		if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
			cfg.TestFraction = d.TestFraction
		}
		t.cfg = cfg
	}
}

func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Trainer) { t.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

// NewTrainer 创建训练器；训练成功后把新产物写入 artifacts 并发布到 scoring。
func NewTrainer(log core.InteractionLog, artifacts model.ArtifactStore, scoring *model.ScoringContext, opts ...Option) *Trainer {
	t := &Trainer{
		log:       log,
		artifacts: artifacts,
		scoring:   scoring,
		cfg:       DefaultConfig(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logger.OrNop(t.logger)
	return t
}

// Config 返回生效的训练参数。
func (t *Trainer) Config() Config {
	return t.cfg
}

// Train 执行一次训练；minSamples <= 0 时使用配置值。
// 样本不足返回 insufficient_data 报告且 error 为 nil；其余失败返回 failed 报告与 error。
func (t *Trainer) Train(ctx context.Context, minSamples int) (*Report, error) {
	if !t.running.CompareAndSwap(false, true) {
		return nil, ErrTrainingInProgress
	}
	defer t.running.Store(false)

	if minSamples <= 0 {
		minSamples = t.cfg.MinSamples
	}
	start := t.now()
	report, err := t.run(ctx, minSamples)
	fields := map[string]interface{}{
		"status":      string(report.Status),
		"samples":     report.SampleCount,
		"duration_ms": t.now().Sub(start).Milliseconds(),
	}
	r2 := 0.0
	if report.Metadata != nil {
		fields["version"] = report.Metadata.Version
		fields["mse"] = report.Metadata.MSE
		fields["r2"] = report.Metadata.R2
		r2 = report.Metadata.R2
	}
	if err != nil {
		t.logger.WithError(err).Error("model training failed", fields)
	} else {
		t.logger.Info("model training finished", fields)
	}
	t.metrics.ObserveTraining(string(report.Status), report.SampleCount, r2)
	return report, err
}

func (t *Trainer) run(ctx context.Context, minSamples int) (*Report, error) {
	if t.log == nil {
		return failed(0, fmt.Errorf("train: interaction log not configured"))
	}
	now := t.now()
	records, err := t.log.Since(ctx, now.Add(-t.cfg.Window), t.cfg.MaxSamples)
	if err != nil {
		return failed(0, fmt.Errorf("collect interactions: %w", err))
	}

	x, y := BuildDataset(records)
	n := len(x)
	if n < minSamples {
		return &Report{
			Status:      StatusInsufficientData,
			SampleCount: n,
			Required:    minSamples,
			Shortfall:   minSamples - n,
		}, nil
	}
	if err := ctx.Err(); err != nil {
		return failed(n, err)
	}

	trainIdx, testIdx := Split(n, t.cfg.TestFraction, t.cfg.SplitSeed)
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	scaler, err := feature.FitStandardScaler(xTrain)
	if err != nil {
		return failed(n, fmt.Errorf("fit scaler: %w", err))
	}
	xTrainScaled, err := scaler.TransformAll(xTrain)
	if err != nil {
		return failed(n, fmt.Errorf("scale training set: %w", err))
	}
	forest, err := model.FitForest(xTrainScaled, yTrain, t.cfg.Forest)
	if err != nil {
		return failed(n, fmt.Errorf("fit forest: %w", err))
	}

	mse, r2, err := evaluate(scaler, forest, xTest, yTest)
	if err != nil {
		return failed(n, fmt.Errorf("evaluate: %w", err))
	}

	importances := make(map[string]float64, core.FeatureDim)
	for i, name := range core.FeatureNames {
		importances[name] = forest.Importances[i]
	}
	md := model.Metadata{
		Version:     now.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8],
		TrainedAt:   now.UTC(),
		SampleCount: n,
		TrainSize:   len(trainIdx),
		TestSize:    len(testIdx),
		MSE:         mse,
		R2:          r2,
		Importances: importances,
		Features:    append([]string(nil), core.FeatureNames...),
		Params:      t.cfg.Forest,
	}
	artifact := &model.Artifact{Scaler: scaler, Forest: forest, Metadata: md}

	if err := ctx.Err(); err != nil {
		return failed(n, err)
	}
	if t.artifacts != nil {
		if err := t.artifacts.Save(ctx, artifact); err != nil {
			return failed(n, fmt.Errorf("persist artifact: %w", err))
		}
	}
	if t.scoring != nil {
		if err := t.scoring.Swap(artifact); err != nil {
			return failed(n, fmt.Errorf("activate artifact: %w", err))
		}
	}
	return &Report{Status: StatusTrained, SampleCount: n, Metadata: &md}, nil
}

func failed(n int, err error) (*Report, error) {
	return &Report{Status: StatusFailed, SampleCount: n, Error: err.Error()}, err
}

// BuildDataset 把行为记录转换为样本；缺少特征快照或快照非有限值的记录被跳过。
func BuildDataset(records []*core.InteractionRecord) ([][]float64, []float64) {
	x := make([][]float64, 0, len(records))
	y := make([]float64, 0, len(records))
	for _, r := range records {
		if r == nil || r.Features == nil || !r.Features.Valid() {
			continue
		}
		x = append(x, r.Features.Slice())
		y = append(y, Label(r.Type))
	}
	return x, y
}

// Split 用固定种子打乱下标并切出验证集；样本数 >= 2 时验证集至少 1 条。
func Split(n int, testFraction float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, 0)).Perm(n)
	nTest := int(float64(n) * testFraction)
	if nTest == 0 && n >= 2 {
		nTest = 1
	}
	return perm[nTest:], perm[:nTest]
}

func subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i], ys[i] = x[j], y[j]
	}
	return xs, ys
}

func evaluate(scaler *feature.StandardScaler, forest *model.Forest, x [][]float64, y []float64) (mse, r2 float64, err error) {
	if len(x) == 0 {
		return 0, 0, nil
	}
	pred := make([]float64, len(x))
	for i, row := range x {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return 0, 0, err
		}
		if pred[i], err = forest.Predict(scaled); err != nil {
			return 0, 0, err
		}
	}
	return stats.MSE(y, pred), stats.R2(y, pred), nil
}
