// Package postgres implements store.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tradefolio/internal/apperr"
	"tradefolio/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Atomic runs fn inside a SERIALIZABLE transaction, so reference checks made
// by fn cannot go stale before its writes commit.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

// Snapshot runs fn inside a read-only REPEATABLE READ transaction.
func (s *Store) Snapshot(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx store.Tx) error) error {
	pgTx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := pgTx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Error("rollback failed", "error", err)
		}
	}()
	if err := fn(ctx, newTx(pgTx)); err != nil {
		return txErr(err)
	}
	if err := pgTx.Commit(ctx); err != nil {
		return txErr(apperr.Infra("commit", mapErr(err)))
	}
	return nil
}

// txErr turns duplicate and serialization failures that escape a unit of
// work into Conflict. Errors already classified as anything else pass
// through unchanged.
func txErr(err error) error {
	if apperr.KindOf(err) != apperr.KindInfrastructure {
		return err
	}
	switch {
	case errors.Is(err, store.ErrSerialization):
		return apperr.Conflict("concurrent update, retry")
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict("record already exists")
	}
	return err
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", store.ErrSerialization, pgErr.Message)
		}
	}
	return err
}
