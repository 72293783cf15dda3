package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/logger"
)

// ErrPublisherClosed 表示发布器已关闭。
var ErrPublisherClosed = errors.New("feedback: publisher closed")

// KafkaPublisherConfig Kafka 发布器配置
type KafkaPublisherConfig struct {
	Brokers []string
	Topic   string

	BatchSize     int           // 批量大小（建议 100-1000）
	FlushInterval time.Duration // 刷新间隔（建议 1-5 秒）

	ClientID     string
	RequiredAcks int16  // 0 / 1=leader / -1=all
	Compression  string // gzip, snappy, lz4, zstd
	MaxRetries   int
}

// KafkaPublisher 把行为记录批量异步写入 Kafka，key 为卖家 ID，保证同一卖家的事件有序。
type KafkaPublisher struct {
	client        *kgo.Client
	topic         string
	batchSize     int
	flushInterval time.Duration
	logger        logger.Logger

	mu        sync.Mutex
	buffer    []*kgo.Record
	lastFlush time.Time
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// NewKafkaPublisher 创建发布器并启动后台刷新。客户端惰性连接 broker。
func NewKafkaPublisher(cfg KafkaPublisherConfig, l logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("feedback: kafka brokers required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("feedback: kafka topic required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "leadrank-interactions"
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = 1
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RecordRetries(cfg.MaxRetries),
	}
	switch cfg.RequiredAcks {
	case -1:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	default:
		// 幂等写入要求 acks=all
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	}
	switch cfg.Compression {
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	p := &KafkaPublisher{
		client:        client,
		topic:         cfg.Topic,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		logger:        logger.OrNop(l),
		buffer:        make([]*kgo.Record, 0, cfg.BatchSize),
		lastFlush:     time.Now(),
		stopCh:        make(chan struct{}),
	}
	p.wg.Add(1)
	go p.flushLoop()
	return p, nil
}

// Publish 非阻塞写入缓冲，达到批量大小时异步发送。
func (p *KafkaPublisher) Publish(_ context.Context, rec *core.InteractionRecord) error {
	r, err := encodeRecord(p.topic, rec)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	p.buffer = append(p.buffer, r)
	if len(p.buffer) >= p.batchSize {
		go p.flush()
	}
	return nil
}

func encodeRecord(topic string, rec *core.InteractionRecord) (*kgo.Record, error) {
	if rec == nil {
		return nil, errors.New("feedback: nil record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic:     topic,
		Key:       []byte(rec.SellerID),
		Value:     data,
		Timestamp: rec.Timestamp,
		Headers:   []kgo.RecordHeader{{Key: "type", Value: []byte(rec.Type)}},
	}, nil
}

func (p *KafkaPublisher) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			shouldFlush := len(p.buffer) > 0 && time.Since(p.lastFlush) >= p.flushInterval
			p.mu.Unlock()
			if shouldFlush {
				p.flush()
			}
		case <-p.stopCh:
			return
		}
	}
}

func (p *KafkaPublisher) flush() {
	p.mu.Lock()
	if len(p.buffer) == 0 {
		p.mu.Unlock()
		return
	}
	records := p.buffer
	p.buffer = make([]*kgo.Record, 0, p.batchSize)
	p.lastFlush = time.Now()
	p.mu.Unlock()

	for _, r := range records {
		p.client.Produce(context.Background(), r, func(r *kgo.Record, err error) {
			if err != nil {
				p.logger.WithError(err).Warn("failed to produce interaction", map[string]interface{}{
					"topic":     r.Topic,
					"seller_id": string(r.Key),
				})
			}
		})
	}
}

// Close 发送剩余缓冲并关闭客户端，最多等待 ctx 结束。
func (p *KafkaPublisher) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		close(p.stopCh)
		p.wg.Wait()
		p.flush()

		err = p.client.Flush(ctx)
		p.client.Close()
	})
	return err
}
