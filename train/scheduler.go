package train

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rushteam/leadrank/pkg/logger"
)

// Scheduler 按 cron 表达式定期触发训练，运行在排序路径之外。
// 上一次训练尚未结束时跳过本次触发。
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	entryID  cron.EntryID
	trainer  *Trainer
	timeout  time.Duration
	logger   logger.Logger
	lastRep  *Report
	onReport func(*Report, error)
}

// SchedulerOption 配置 Scheduler。
type SchedulerOption func(*Scheduler)

// WithTimeout 设置单次训练超时。
func WithTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.timeout = d }
}

// WithLocation 设置 cron 时区。
func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *Scheduler) { s.cron = cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))) }
}

// WithReportHook 在每次训练结束后回调。
func WithReportHook(fn func(*Report, error)) SchedulerOption {
	return func(s *Scheduler) { s.onReport = fn }
}

func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler 创建调度器，schedule 是标准 5 段 cron 表达式（也支持 @every 1h 等描述符）。
func NewScheduler(schedule string, trainer *Trainer, opts ...SchedulerOption) (*Scheduler, error) {
	if trainer == nil {
		return nil, errors.New("trainer must not be nil")
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		trainer: trainer,
		timeout: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger)

	id, err := s.cron.AddFunc(schedule, s.RunOnce)
	if err != nil {
		return nil, fmt.Errorf("add cron: %w", err)
	}
	s.entryID = id
	return s, nil
}

// Start 开始调度。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在运行的训练结束。
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Next 返回下一次触发时间。
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// LastReport 返回最近一次训练报告。
func (s *Scheduler) LastReport() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRep
}

// RunOnce 立即执行一次训练。
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rep, err := s.trainer.Train(ctx, 0)
	if errors.Is(err, ErrTrainingInProgress) {
		s.logger.Info("training already running, skipping scheduled run", nil)
		return
	}
	s.mu.Lock()
	s.lastRep = rep
	s.mu.Unlock()
	if s.onReport != nil {
		s.onReport(rep, err)
	}
}
