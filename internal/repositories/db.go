package repositories

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// DB is the slice of pgx that the repositories need. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same SQL runs inside or outside an
// explicit transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager runs a function inside a single transaction. The DB handed
// to fn is the open pgx.Tx; repositories rebound to it via WithDB make
// all their statements part of that transaction. fn returning an error
// rolls everything back.
type TxManager interface {
	InTx(ctx context.Context, fn func(db DB) error) error
}

func NewTxManager(db DB) TxManager {
	return &txManager{db: db}
}

type txManager struct {
	db DB
}

func (m *txManager) InTx(ctx context.Context, fn func(db DB) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
