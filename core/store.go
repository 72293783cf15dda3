package core

import (
	"context"
	"time"
)

// Store 是 KV 存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 避免循环依赖：领域层不依赖基础设施层
//
// 使用场景：
//   - 卖家历史 / 买家信用短 TTL 缓存
//   - 模型产物的版本化存储
//
// 实现：
//   - store.MemoryStore 实现此接口
//   - store.RedisStore 实现此接口
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，增加有序集合操作。
// 行为日志以时间戳为 score 追加到有序集合，按时间窗口读取。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRevRangeByScore 按分数区间 [min, max] 降序读取成员，limit <= 0 表示不限
	ZRevRangeByScore(ctx context.Context, key string, min, max float64, limit int64) ([]string, error)

	// ZCard 返回有序集合成员数
	ZCard(ctx context.Context, key string) (int64, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}

// CandidateFilter 是从需求库拉取候选需求的过滤条件。
type CandidateFilter struct {
	Species   []string
	Provinces []string
	OpenAt    time.Time // 只返回在该时间点仍未过期的需求，零值表示不限
	Limit     int
}

// RequestStore 是需求库（外部协作方）。
type RequestStore interface {
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*BuyRequest, error)
	GetRequest(ctx context.Context, id string) (*BuyRequest, error)
}

// SellerStore 是卖家/用户库（外部协作方）。
// 卖家不存在时返回 ErrSellerNotFound。
type SellerStore interface {
	GetSeller(ctx context.Context, id string) (*SellerProfile, error)
}

// TransactionStore 是交易历史库（外部协作方）。
// 所有列表按时间倒序，limit 为最近 N 条。
type TransactionStore interface {
	OffersBySeller(ctx context.Context, sellerID string, limit int) ([]Offer, error)
	OrdersBySeller(ctx context.Context, sellerID string, limit int) ([]Order, error)
	OrdersByBuyer(ctx context.Context, buyerID string, limit int) ([]Order, error)
	CompletedOrdersBySpecies(ctx context.Context, species string, since time.Time) ([]Order, error)
}

// InteractionLog 是行为日志存储：只追加 + 按时间窗口有界读取。
type InteractionLog interface {
	Append(ctx context.Context, rec *InteractionRecord) error
	// Since 返回 since 之后最近的 limit 条记录（时间升序），limit <= 0 表示不限
	Since(ctx context.Context, since time.Time, limit int) ([]*InteractionRecord, error)
}
