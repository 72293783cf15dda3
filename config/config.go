// Package config 加载引擎的 YAML 配置，并把 pipeline 配置装配成 Node。
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/feature"
	"github.com/rushteam/leadrank/history"
	"github.com/rushteam/leadrank/model"
	"github.com/rushteam/leadrank/pipeline"
	"github.com/rushteam/leadrank/train"
)

// Config 是引擎与训练任务共用的配置。
type Config struct {
	Log        LogConfig          `yaml:"log"`
	Engine     EngineConfig       `yaml:"engine"`
	History    HistoryConfig      `yaml:"history"`
	Weights    model.Weights      `yaml:"weights"`
	Thresholds feature.Thresholds `yaml:"thresholds"`
	Training   TrainingConfig     `yaml:"training"`
	Storage    StorageConfig      `yaml:"storage"`
	Pipeline   pipeline.Config    `yaml:"pipeline"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json / console
}

type EngineConfig struct {
	DefaultLimit       int           `yaml:"default_limit"`
	RankTimeout        time.Duration `yaml:"rank_timeout"`
	ExtractConcurrency int           `yaml:"extract_concurrency"`
	CandidateLimit     int           `yaml:"candidate_limit"` // 从需求库拉取候选的上限
	RecallTimeout      time.Duration `yaml:"recall_timeout"`  // 单个召回源的超时
}

type HistoryConfig struct {
	OfferWindow      int           `yaml:"offer_window"`
	OrderWindow      int           `yaml:"order_window"`
	BuyerOrderWindow int           `yaml:"buyer_order_window"`
	MarketWindow     time.Duration `yaml:"market_window"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
}

// Windows 转换为聚合器使用的窗口参数。
func (h HistoryConfig) Windows() history.Windows {
	return history.Windows{
		Offers:      h.OfferWindow,
		Orders:      h.OrderWindow,
		BuyerOrders: h.BuyerOrderWindow,
		Market:      h.MarketWindow,
	}
}

type TrainingConfig struct {
	train.Config `yaml:",inline"`
	Schedule     string        `yaml:"schedule"` // cron 表达式，空表示不定时训练
	Timeout      time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Postgres       PostgresConfig       `yaml:"postgres"`
	Redis          RedisConfig          `yaml:"redis"`
	InteractionLog InteractionLogConfig `yaml:"interaction_log"`
	Artifacts      ArtifactConfig       `yaml:"artifacts"`
	Kafka          KafkaConfig          `yaml:"kafka"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// 行为日志与产物的存储后端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// KafkaConfig 配置行为事件转发；Brokers 为空时不转发。
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Compression   string        `yaml:"compression"`
}

type InteractionLogConfig struct {
	Backend    string `yaml:"backend"` // memory / redis / sqlite
	Key        string `yaml:"key"`
	SQLitePath string `yaml:"sqlite_path"`
}

type ArtifactConfig struct {
	Backend string `yaml:"backend"` // file / redis / memory
	Dir     string `yaml:"dir"`
	Prefix  string `yaml:"prefix"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Engine: EngineConfig{
			DefaultLimit:       core.DefaultRankLimit,
			RankTimeout:        core.DefaultRankTimeout,
			ExtractConcurrency: feature.DefaultConcurrency,
			CandidateLimit:     2000,
			RecallTimeout:      500 * time.Millisecond,
		},
		History: HistoryConfig{
			OfferWindow:      core.DefaultOfferWindow,
			OrderWindow:      core.DefaultOrderWindow,
			BuyerOrderWindow: core.DefaultBuyerOrderWindow,
			MarketWindow:     core.DefaultMarketWindow,
			CacheTTL:         time.Minute,
		},
		Weights:    model.DefaultWeights(),
		Thresholds: feature.DefaultThresholds(),
		Training: TrainingConfig{
			Config:   train.DefaultConfig(),
			Schedule: "",
			Timeout:  30 * time.Minute,
		},
		Storage: StorageConfig{
			InteractionLog: InteractionLogConfig{Backend: BackendMemory, Key: "leadrank:interactions"},
			Artifacts:      ArtifactConfig{Backend: BackendFile, Dir: "./models", Prefix: "leadrank:model"},
			Kafka:          KafkaConfig{Topic: "leadrank.interactions", BatchSize: 100, FlushInterval: time.Second},
		},
		Pipeline: DefaultPipeline(),
	}
}

// DefaultPipeline 是默认的排序链路：特征 → 打分 → 截断。
func DefaultPipeline() pipeline.Config {
	return pipeline.Config{Nodes: []pipeline.NodeConfig{
		{Type: "feature.extract"},
		{Type: "rank.score"},
		{Type: "rerank.topn"},
	}}
}

// Load 读取 YAML 配置：先加载 .env（若存在），展开 ${VAR}，再覆盖到默认值上并校验。
// path 为空时只使用默认值。
func Load(path string) (*Config, error) {
	loadEnvFile()

	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse 展开环境变量后把 data 解析到 cfg 上。
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func loadEnvFile() {
	for _, p := range []string{".env", "../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Validate 校验配置取值。
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.DefaultLimit <= 0 {
		errs = append(errs, errors.New("engine.default_limit must be positive"))
	}
	if c.Engine.RankTimeout <= 0 {
		errs = append(errs, errors.New("engine.rank_timeout must be positive"))
	}
	if c.Training.MinSamples <= 0 {
		errs = append(errs, errors.New("training.min_samples must be positive"))
	}
	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		errs = append(errs, errors.New("training.test_fraction must be in (0, 1)"))
	}
	switch c.Storage.InteractionLog.Backend {
	case BackendMemory, BackendRedis:
	case BackendSQLite:
		if c.Storage.InteractionLog.SQLitePath == "" {
			errs = append(errs, errors.New("storage.interaction_log.sqlite_path is required for sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown interaction log backend %q", c.Storage.InteractionLog.Backend))
	}
	switch c.Storage.Artifacts.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if c.Storage.Artifacts.Dir == "" {
			errs = append(errs, errors.New("storage.artifacts.dir is required for file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown artifact backend %q", c.Storage.Artifacts.Backend))
	}
	if len(c.Storage.Kafka.Brokers) > 0 && c.Storage.Kafka.Topic == "" {
		errs = append(errs, errors.New("storage.kafka.topic is required when brokers are set"))
	}
	needsRedis := c.Storage.InteractionLog.Backend == BackendRedis || c.Storage.Artifacts.Backend == BackendRedis
	if needsRedis && c.Storage.Redis.Addr == "" {
		errs = append(errs, errors.New("storage.redis.addr is required for redis backends"))
	}
	return errors.Join(errs...)
}
