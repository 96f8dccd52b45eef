package databaseutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

type txKey struct{}

// SQLExecutor is the method set shared by *sql.DB and *sql.Tx, so repository
// code can run against either a pooled connection or an open transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Session is the transaction-management contract.
type Session interface {
	// BeginTx starts a transaction and returns a Session representing it.
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Session, error)

	// DoTransactionally runs fn inside a fresh transaction. The context
	// handed to fn carries the transaction; the transaction commits if fn
	// returns nil and rolls back otherwise.
	DoTransactionally(ctx context.Context, fn func(txCtx context.Context) error) error

	Rollback() error
	Commit() error

	// Context returns the context associated with this session. For a
	// transactional session it contains the *sql.Tx.
	Context() context.Context

	// GetExecutor returns the active *sql.Tx if there is one, otherwise the
	// underlying *sql.DB.
	GetExecutor() SQLExecutor
}

type sqlSession struct {
	db  *sql.DB
	tx  *sql.Tx
	ctx context.Context
}

func NewSession(db *sql.DB) Session {
	return &sqlSession{
		db: db,
	}
}

func (s *sqlSession) BeginTx(ctx context.Context, opts *sql.TxOptions) (Session, error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("session: failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	return &sqlSession{
		db:  s.db,
		tx:  tx,
		ctx: txCtx,
	}, nil
}

func (s *sqlSession) DoTransactionally(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	session, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = session.Rollback()
			panic(p)
		} else if err != nil {
			if rollbackErr := session.Rollback(); rollbackErr != nil {
				log.Printf("session: failed to rollback transaction after error: %v (original error: %v)", rollbackErr, err)
			}
		} else {
			if commitErr := session.Commit(); commitErr != nil {
				err = fmt.Errorf("session: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	err = fn(session.Context())
	return err
}

func (s *sqlSession) Rollback() error {
	if s.tx == nil {
		return fmt.Errorf("session: no active transaction to rollback")
	}
	return s.tx.Rollback()
}

func (s *sqlSession) Commit() error {
	if s.tx == nil {
		return fmt.Errorf("session: no active transaction to commit")
	}
	return s.tx.Commit()
}

func (s *sqlSession) Context() context.Context {
	return s.ctx
}

func (s *sqlSession) GetExecutor() SQLExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// GetSQLExecutor retrieves the transaction stored in ctx, falling back to
// the plain connection pool when no transaction is in flight.
func GetSQLExecutor(ctx context.Context, fallbackDB *sql.DB) SQLExecutor {
	dbExecutor := ctx.Value(txKey{})
	if dbExecutor == nil {
		return fallbackDB
	}

	tx, ok := dbExecutor.(*sql.Tx)
	if !ok {
		panic(fmt.Sprintf("session: value in context for txKey is not a *sql.Tx, but %T", dbExecutor))
	}
	return tx
}

// DoTransactionally is the value-returning variant of
// Session.DoTransactionally.
func DoTransactionally[T any](ctx context.Context, session Session, fn func(txCtx context.Context) (T, error)) (T, error) {
	var zero T
	var result T
	err := session.DoTransactionally(ctx, func(txCtx context.Context) error {
		r, err := fn(txCtx)
		result = r
		return err
	})
	if err != nil {
		return zero, err
	}
	return result, nil
}
