package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/leadrank/core"
)

// KVInteractionLog 把行为记录追加到有序集合（score 为毫秒时间戳），
// 底层可以是 MemoryStore 或 RedisStore。记录带唯一 ID，并发追加互不冲突。
type KVInteractionLog struct {
	kv  core.KeyValueStore
	key string
}

func NewKVInteractionLog(kv core.KeyValueStore, key string) *KVInteractionLog {
	if key == "" {
		key = "leadrank:interactions"
	}
	return &KVInteractionLog{kv: kv, key: key}
}

func (l *KVInteractionLog) Append(ctx context.Context, rec *core.InteractionRecord) error {
	if rec == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil interaction record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}
	return l.kv.ZAdd(ctx, l.key, float64(rec.Timestamp.UnixMilli()), string(data))
}

func (l *KVInteractionLog) Since(ctx context.Context, since time.Time, limit int) ([]*core.InteractionRecord, error) {
	members, err := l.kv.ZRevRangeByScore(ctx, l.key, float64(since.UnixMilli()), math.MaxFloat64, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	out := make([]*core.InteractionRecord, 0, len(members))
	// 倒序读取最近 limit 条，再翻转为时间升序
	for i := len(members) - 1; i >= 0; i-- {
		var rec core.InteractionRecord
		if err := json.Unmarshal([]byte(members[i]), &rec); err != nil {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

var _ core.InteractionLog = (*KVInteractionLog)(nil)
