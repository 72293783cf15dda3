// Package store 提供领域存储接口（定义在 core）的实现：
//   - MemoryStore / RedisStore：core.Store + core.KeyValueStore，用于历史缓存、行为日志、模型产物
//   - KVInteractionLog / SQLiteInteractionLog：core.InteractionLog
//   - PostgresStore：core.SellerStore + core.TransactionStore + core.RequestStore
//   - MemoryDataStore：内存版外部协作方，用于测试与本地原型
//
// 示例：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	var log core.InteractionLog = store.NewKVInteractionLog(kv, "leadrank:interactions")
package store
