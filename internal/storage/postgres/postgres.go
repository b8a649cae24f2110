package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	Conn *pgxpool.Pool
}

const (
	ErrConflictCode   = "23505"
	ErrForeignKeyCode = "23503"
)

func New(ctx context.Context, storagePath string, maxConns int, maxConnIdleTime time.Duration) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(storagePath)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = int32(maxConns)
	cfg.MaxConnIdleTime = maxConnIdleTime
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Storage{Conn: pool}, nil
}

func (s *Storage) Close() {
	s.Conn.Close()
}

// TranslateErr maps driver errors onto the storage sentinels.
func TranslateErr(err error) error {
	if err == nil {
		return nil
	}
	var pgxErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	case errors.As(err, &pgxErr) && pgxErr.Code == ErrConflictCode:
		return fmt.Errorf("%w: %s", storage.ErrConflict, pgxErr.ConstraintName)
	case errors.As(err, &pgxErr) && pgxErr.Code == ErrForeignKeyCode:
		return fmt.Errorf("%w: %s", storage.ErrNotFound, pgxErr.ConstraintName)
	}
	return err
}

// InTx runs fn inside a transaction which is committed when fn returns nil.
func (s *Storage) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return InTx(ctx, s.Conn, fn)
}

func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// BulkInsert copies every batch in a single transaction, keeping the ids of
// the source rows, then moves each id sequence past the highest imported id.
func (s *Storage) BulkInsert(ctx context.Context, batches []storage.Batch) error {
	return s.InTx(ctx, func(tx pgx.Tx) error {
		for _, b := range batches {
			if len(b.Rows) == 0 {
				continue
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{b.Table}, b.Columns, pgx.CopyFromRows(b.Rows)); err != nil {
				return fmt.Errorf("copy into %s: %w", b.Table, TranslateErr(err))
			}
			table := pgx.Identifier{b.Table}.Sanitize()
			query := fmt.Sprintf(
				`SELECT setval(pg_get_serial_sequence($1, 'id'), (SELECT COALESCE(MAX(id), 0) + 1 FROM %s), false)`,
				table,
			)
			if _, err := tx.Exec(ctx, query, b.Table); err != nil {
				return fmt.Errorf("reset sequence of %s: %w", b.Table, err)
			}
		}
		return nil
	})
}
