package tokenstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

//go:embed schema.sql
var schema string

// SQLite хранит ключи пары в локальной таблице kv(key, value).
type SQLite struct {
	db *sql.DB
}

// NewSQLite открывает (или создаёт) файл базы и применяет схему.
// dsn - путь к файлу или ":memory:".
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	const op = "tokenstore.NewSQLite"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	// Для ":memory:" каждое соединение - отдельная база.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: schema: %w", op, err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context) (models.TokenPair, error) {
	const op = "tokenstore.SQLite.Get"

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (?, ?)`,
		models.AccessTokenKey, models.RefreshTokenKey,
	)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return models.TokenPair{}, fmt.Errorf("%s: scan: %w", op, err)
		}
		values[k] = v
	}

	if err := rows.Err(); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return pairFrom(values)
}

func (s *SQLite) Set(ctx context.Context, pair models.TokenPair) error {
	const op = "tokenstore.SQLite.Set"

	if !pair.Complete() {
		return fmt.Errorf("%s: %w", op, ErrIncompletePair)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Unix()
	for k, v := range valuesOf(pair) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			return fmt.Errorf("%s: upsert %s: %w", op, k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	const op = "tokenstore.SQLite.Clear"

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key IN (?, ?)`,
		models.AccessTokenKey, models.RefreshTokenKey,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает пул соединений.
func (s *SQLite) Close() error { return s.db.Close() }
