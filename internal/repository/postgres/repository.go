// Package postgres provides the Postgres-backed knowledge repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const uniqueViolationCode = "23505"

// Config controls the Postgres connection pool used for knowledge rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Repository implements knowledge.Repository on a pgx pool.
//
// Expected schema:
//
//	CREATE TABLE knowledge_items (
//		id         UUID PRIMARY KEY,
//		user_id    TEXT NOT NULL,
//		url        TEXT NOT NULL,
//		title      TEXT NOT NULL,
//		summary    TEXT NOT NULL,
//		tags       JSONB NOT NULL DEFAULT '[]',
//		created_at TIMESTAMPTZ NOT NULL,
//		UNIQUE (user_id, url)
//	);
type Repository struct {
	pool  dbPool
	table string
}

// New creates a Postgres-backed Repository using the provided config.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "knowledge_items"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Repository{pool: pool, table: table}, nil
}

// NewWithPool constructs a Repository from an existing pool (primarily for
// testing).
func NewWithPool(pool dbPool, table string) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "knowledge_items"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Repository{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// Save inserts one item. A unique-constraint violation on (user_id, url)
// maps to knowledge.ErrDuplicateURL so the race loser between the
// application-level pre-check and the insert still gets the right condition.
func (r *Repository) Save(ctx context.Context, item knowledge.Item) error {
	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, user_id, url, title, summary, tags, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.table)

	_, err = r.pool.Exec(ctx, query,
		item.ID,
		item.UserID,
		item.URL,
		item.Title,
		item.Summary,
		tagsJSON,
		item.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return knowledge.ErrDuplicateURL
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// FindByID returns the user's item for an id.
func (r *Repository) FindByID(ctx context.Context, id, userID string) (knowledge.Item, error) {
	query := fmt.Sprintf(`
SELECT id, user_id, url, title, summary, tags, created_at
FROM %s WHERE id = $1 AND user_id = $2`, r.table)
	return r.scanOne(r.pool.QueryRow(ctx, query, id, userID))
}

// FindByURL returns the user's item for a URL.
func (r *Repository) FindByURL(ctx context.Context, userID, url string) (knowledge.Item, error) {
	query := fmt.Sprintf(`
SELECT id, user_id, url, title, summary, tags, created_at
FROM %s WHERE user_id = $1 AND url = $2`, r.table)
	return r.scanOne(r.pool.QueryRow(ctx, query, userID, url))
}

// FindAllByUserID returns the user's items, most recent first.
func (r *Repository) FindAllByUserID(ctx context.Context, userID string) ([]knowledge.Item, error) {
	query := fmt.Sprintf(`
SELECT id, user_id, url, title, summary, tags, created_at
FROM %s WHERE user_id = $1 ORDER BY created_at DESC`, r.table)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var items []knowledge.Item
	for rows.Next() {
		item, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// DeleteByID removes the user's item. Zero affected rows means the item was
// missing or foreign; both report knowledge.ErrNotFound.
func (r *Repository) DeleteByID(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.table)
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return knowledge.ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (knowledge.Item, error) {
	item, err := scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return knowledge.Item{}, knowledge.ErrNotFound
		}
		return knowledge.Item{}, err
	}
	return item, nil
}

func scanRow(row pgx.Row) (knowledge.Item, error) {
	var (
		id, userID, url, title, summary string
		tagsJSON                        []byte
		createdAt                       time.Time
	)
	if err := row.Scan(&id, &userID, &url, &title, &summary, &tagsJSON, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return knowledge.Item{}, err
		}
		return knowledge.Item{}, fmt.Errorf("scan item: %w", err)
	}
	var tags []string
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &tags); err != nil {
			return knowledge.Item{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return knowledge.Reconstitute(id, userID, url, title, summary, tags, createdAt), nil
}
