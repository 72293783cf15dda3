package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/rushteam/leadrank/core"
)

// PostgresStore 通过 database/sql 读取市场主库（需求、卖家、报价、订单）。
// 引擎对这些表只读。
type PostgresStore struct {
	db *sql.DB
}

// PostgresOptions 是连接池配置。
type PostgresOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres 用 lib/pq 驱动打开连接池。
func OpenPostgres(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore 包装已有连接（测试中传入 sqlmock）。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

const sellerColumns = `id, specialties, lat, lng, province, service_provinces`

func (p *PostgresStore) GetSeller(ctx context.Context, id string) (*core.SellerProfile, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+sellerColumns+` FROM sellers WHERE id = $1`, id)

	var (
		s        core.SellerProfile
		lat, lng sql.NullFloat64
		province sql.NullString
	)
	err := row.Scan(&s.ID, pq.Array(&s.Specialties), &lat, &lng, &province, pq.Array(&s.ServiceProvinces))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSellerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query seller %s: %w", id, err)
	}
	s.Location = toLocation(lat, lng, province)
	return &s, nil
}

const requestColumns = `id, species, quantity, target_price, buyer_id, lat, lng, province, created_at, expires_at`

func (p *PostgresStore) GetRequest(ctx context.Context, id string) (*core.BuyRequest, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM buy_requests WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query request %s: %w", id, err)
	}
	reqs, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, core.ErrRequestNotFound
	}
	return reqs[0], nil
}

func (p *PostgresStore) ListCandidates(ctx context.Context, filter core.CandidateFilter) ([]*core.BuyRequest, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Species) > 0 {
		args = append(args, pq.Array(lowerAll(filter.Species)))
		where = append(where, fmt.Sprintf("lower(species) = ANY($%d)", len(args)))
	}
	if len(filter.Provinces) > 0 {
		args = append(args, pq.Array(lowerAll(filter.Provinces)))
		where = append(where, fmt.Sprintf("lower(province) = ANY($%d)", len(args)))
	}
	if !filter.OpenAt.IsZero() {
		args = append(args, filter.OpenAt)
		where = append(where, fmt.Sprintf("(expires_at IS NULL OR expires_at > $%d)", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM buy_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]*core.BuyRequest, error) {
	defer rows.Close()
	var out []*core.BuyRequest
	for rows.Next() {
		var (
			r         core.BuyRequest
			target    sql.NullFloat64
			buyer     sql.NullString
			lat, lng  sql.NullFloat64
			province  sql.NullString
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Species, &r.Quantity, &target, &buyer, &lat, &lng, &province, &r.CreatedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		if target.Valid {
			v := target.Float64
			r.TargetPrice = &v
		}
		r.BuyerID = buyer.String
		r.Location = toLocation(lat, lng, province)
		if expiresAt.Valid {
			r.ExpiresAt = expiresAt.Time
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) OffersBySeller(ctx context.Context, sellerID string, limit int) ([]core.Offer, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, seller_id, request_id, status, created_at FROM offers
		 WHERE seller_id = $1 ORDER BY created_at DESC LIMIT $2`,
		sellerID, limitOrAll(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query offers for %s: %w", sellerID, err)
	}
	defer rows.Close()

	var out []core.Offer
	for rows.Next() {
		var (
			o      core.Offer
			status string
		)
		if err := rows.Scan(&o.ID, &o.SellerID, &o.RequestID, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		o.Status = core.OfferStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

const orderColumns = `id, seller_id, buyer_id, species, quantity, unit_price, status, rating, created_at, paid_at`

func (p *PostgresStore) OrdersBySeller(ctx context.Context, sellerID string, limit int) ([]core.Order, error) {
	return p.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE seller_id = $1 ORDER BY created_at DESC LIMIT $2`,
		sellerID, limitOrAll(limit))
}

func (p *PostgresStore) OrdersByBuyer(ctx context.Context, buyerID string, limit int) ([]core.Order, error) {
	return p.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2`,
		buyerID, limitOrAll(limit))
}

func (p *PostgresStore) CompletedOrdersBySpecies(ctx context.Context, species string, since time.Time) ([]core.Order, error) {
	return p.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE lower(species) = lower($1) AND status = $2 AND created_at >= $3
		 ORDER BY created_at DESC`,
		species, string(core.OrderCompleted), since)
}

func (p *PostgresStore) queryOrders(ctx context.Context, query string, args ...any) ([]core.Order, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []core.Order
	for rows.Next() {
		var (
			o      core.Order
			status string
			rating sql.NullFloat64
			paidAt sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.SellerID, &o.BuyerID, &o.Species, &o.Quantity, &o.UnitPrice, &status, &rating, &o.CreatedAt, &paidAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = core.OrderStatus(status)
		if rating.Valid {
			v := rating.Float64
			o.Rating = &v
		}
		if paidAt.Valid {
			t := paidAt.Time
			o.PaidAt = &t
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

func toLocation(lat, lng sql.NullFloat64, province sql.NullString) core.Location {
	loc := core.Location{Province: province.String}
	if lat.Valid && lng.Valid {
		a, b := lat.Float64, lng.Float64
		loc.Lat, loc.Lng = &a, &b
	}
	return loc
}

// limitOrAll 把非正数 limit 转成 NULL（Postgres 中 LIMIT NULL 等价于不限）。
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

var (
	_ core.RequestStore     = (*PostgresStore)(nil)
	_ core.SellerStore      = (*PostgresStore)(nil)
	_ core.TransactionStore = (*PostgresStore)(nil)
)
