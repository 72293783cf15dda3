package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rushteam/leadrank/core"
)

const createInteractionsSQL = `
CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	seller_id TEXT NOT NULL,
	request_id TEXT NOT NULL,
	type TEXT NOT NULL,
	features TEXT,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_ts ON interactions (ts);
`

// SQLiteInteractionLog 是单机持久化的行为日志，训练任务与服务进程可共享同一个数据库文件。
type SQLiteInteractionLog struct {
	db *sql.DB
}

// OpenSQLiteInteractionLog 打开（必要时创建）dbPath 处的 SQLite 数据库。
func OpenSQLiteInteractionLog(dbPath string) (*SQLiteInteractionLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	if dbPath == ":memory:" {
		// 每个连接都是独立的内存库，只允许一个连接
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}
	if _, err := db.Exec(createInteractionsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}
	return &SQLiteInteractionLog{db: db}, nil
}

func (s *SQLiteInteractionLog) Close() error {
	return s.db.Close()
}

func (s *SQLiteInteractionLog) Append(ctx context.Context, rec *core.InteractionRecord) error {
	if rec == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil interaction record")
	}
	var features sql.NullString
	if rec.Features != nil {
		data, err := json.Marshal(rec.Features)
		if err != nil {
			return fmt.Errorf("storage: encode features: %w", err)
		}
		features = sql.NullString{String: string(data), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, seller_id, request_id, type, features, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SellerID, rec.RequestID, string(rec.Type), features, rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage: append interaction %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteInteractionLog) Since(ctx context.Context, since time.Time, limit int) ([]*core.InteractionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seller_id, request_id, type, features, ts FROM interactions
		 WHERE ts >= ? ORDER BY ts DESC, id DESC LIMIT ?`,
		since.UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: query interactions: %w", err)
	}
	defer rows.Close()

	var out []*core.InteractionRecord
	for rows.Next() {
		var (
			rec      core.InteractionRecord
			typ      string
			features sql.NullString
			ts       int64
		)
		if err := rows.Scan(&rec.ID, &rec.SellerID, &rec.RequestID, &typ, &features, &ts); err != nil {
			return nil, fmt.Errorf("storage: scan interaction: %w", err)
		}
		rec.Type = core.InteractionType(typ)
		rec.Timestamp = time.UnixMilli(ts).UTC()
		if features.Valid {
			var fv core.FeatureVector
			if err := json.Unmarshal([]byte(features.String), &fv); err == nil {
				rec.Features = &fv
			}
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate interactions: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

var _ core.InteractionLog = (*SQLiteInteractionLog)(nil)
