// leadrank-trainer 在排序服务之外定时训练模型：读取行为日志，训练成功后持久化新的模型产物，
// 排序服务通过 ReloadModel 或重启加载最新版本。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rushteam/leadrank/config"
	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/metrics"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pkg/logger"
	"github.com/rushteam/leadrank/store"
	"github.com/rushteam/leadrank/train"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	once := flag.Bool("once", false, "train once and exit")
	minSamples := flag.Int("min-samples", 0, "override training.min_samples")
	metricsAddr := flag.String("metrics-addr", ":9102", "address for /metrics, empty to disable")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if *minSamples > 0 {
		cfg.Training.MinSamples = *minSamples
	}
	if err := run(cfg, log, *once, *metricsAddr); err != nil {
		zapLog.Fatal("trainer exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger, once bool, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	backends, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	scoring := model.NewScoringContext(model.NewWeightedScorer(cfg.Weights))
	if err := scoring.Load(ctx, backends.artifacts); err != nil {
		log.WithError(err).Warn("failed to load current artifact", nil)
	}
	trainer := train.NewTrainer(backends.log, backends.artifacts, scoring,
		train.WithConfig(cfg.Training.Config),
		train.WithLogger(log),
		train.WithMetrics(m),
	)

	if once {
		report, err := trainer.Train(ctx, 0)
		if err != nil {
			return err
		}
		log.Info("training report", map[string]interface{}{
			"status":    string(report.Status),
			"samples":   report.SampleCount,
			"shortfall": report.Shortfall,
		})
		return nil
	}

	if cfg.Training.Schedule == "" {
		return errors.New("training.schedule is required unless -once is set")
	}
	sched, err := train.NewScheduler(cfg.Training.Schedule, trainer,
		train.WithTimeout(cfg.Training.Timeout),
		train.WithSchedulerLogger(log),
	)
	if err != nil {
		return err
	}

	var srv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server failed", nil)
			}
		}()
	}

	sched.Start()
	log.Info("training scheduler started", map[string]interface{}{
		"schedule": cfg.Training.Schedule,
		"next":     sched.Next().Format(time.RFC3339),
	})

	<-ctx.Done()
	log.Info("shutting down, waiting for running training", nil)
	sched.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return nil
}

type backends struct {
	log       core.InteractionLog
	artifacts model.ArtifactStore
	closers   []io.Closer
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i].Close()
	}
}

// openBackends 按配置打开行为日志与产物存储。memory 后端只在 -once 调试时有意义。
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}
	var kv core.KeyValueStore
	redisKV := func() (core.KeyValueStore, error) {
		if kv != nil {
			return kv, nil
		}
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, rs)
		kv = rs
		return kv, nil
	}
	var mem *store.MemoryStore
	memKV := func() core.KeyValueStore {
		if mem == nil {
			mem = store.NewMemoryStore()
			b.closers = append(b.closers, mem)
		}
		return mem
	}

	logCfg := cfg.Storage.InteractionLog
	switch logCfg.Backend {
	case config.BackendSQLite:
		sl, err := store.OpenSQLiteInteractionLog(logCfg.SQLitePath)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, sl)
		b.log = sl
	case config.BackendRedis:
		s, err := redisKV()
		if err != nil {
			b.Close()
			return nil, err
		}
		b.log = store.NewKVInteractionLog(s, logCfg.Key)
	default:
		b.log = store.NewKVInteractionLog(memKV(), logCfg.Key)
	}

	artCfg := cfg.Storage.Artifacts
	switch artCfg.Backend {
	case config.BackendRedis:
		s, err := redisKV()
		if err != nil {
			b.Close()
			return nil, err
		}
		b.artifacts = model.NewKVArtifactStore(s, artCfg.Prefix)
	case config.BackendMemory:
		b.artifacts = model.NewKVArtifactStore(memKV(), artCfg.Prefix)
	default:
		b.artifacts = model.NewFileArtifactStore(artCfg.Dir)
	}
	return b, nil
}
