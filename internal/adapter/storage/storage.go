package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrInternal = errors.New("internal storage error")
	ErrNoSQL    = errors.New("sql is not available for this storage driver")
)

type DBContext interface {
	Begin(ctx context.Context) (DBContext, error)
	Commit() error
	Rollback() error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Beginner opens the transaction a unit of work runs in.
type Beginner interface {
	Begin(ctx context.Context) (DBContext, error)
}

type DB struct {
	*sql.DB
}

func (D *DB) Commit() error {
	return nil
}

func (D *DB) Rollback() error {
	return nil
}

func (D *DB) Begin(ctx context.Context) (DBContext, error) {
	tx, err := D.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, InternalError(err)
	}
	return &Tx{tx}, nil
}

type Tx struct {
	*sql.Tx
}

func (t *Tx) Begin(ctx context.Context) (DBContext, error) {
	return t, nil
}

// Nop stands in for a database when sessions live in memory or redis. Its
// transactions are no-ops and it refuses every query.
type Nop struct{}

func (Nop) Begin(context.Context) (DBContext, error) {
	return Nop{}, nil
}

func (Nop) Commit() error {
	return nil
}

func (Nop) Rollback() error {
	return nil
}

func (Nop) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, ErrNoSQL
}

func (Nop) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, ErrNoSQL
}

func (Nop) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func InternalError(err error) error {
	return errors.Join(fmt.Errorf("internal storage error: %w", err), ErrInternal)
}
