package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wrale/isoreplay/internal/isoreplay/database"
)

var (
	errNoTransaction     = errors.New("no transaction in progress")
	errTransactionActive = errors.New("transaction already in progress")
)

// SQLConnector opens sessions as dedicated connections of a *sql.DB
type SQLConnector struct {
	db   *sql.DB
	opts database.TxOptions
}

// NewSQLConnector returns a connector beginning transactions with opts
func NewSQLConnector(db *sql.DB, opts database.TxOptions) *SQLConnector {
	return &SQLConnector{db: db, opts: opts}
}

// Connect reserves a connection from the pool for exclusive use
func (c *SQLConnector) Connect(ctx context.Context) (Session, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reserving connection: %w", err)
	}
	return &sqlSession{conn: conn, opts: c.opts}, nil
}

type sqlSession struct {
	conn *sql.Conn
	opts database.TxOptions
	tx   *database.Tx
}

func (s *sqlSession) Begin(ctx context.Context) error {
	if s.tx != nil {
		return errTransactionActive
	}
	tx, err := s.conn.BeginTx(ctx, s.opts.SQL())
	if err != nil {
		return err
	}
	s.tx = &database.Tx{Tx: tx}
	return nil
}

func (s *sqlSession) Query(ctx context.Context, query string) ([][]interface{}, error) {
	if s.tx == nil {
		return nil, errNoTransaction
	}

	rows, err := s.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, values)
	}

	return out, rows.Err()
}

func (s *sqlSession) Exec(ctx context.Context, query string) error {
	if s.tx == nil {
		return errNoTransaction
	}
	_, err := s.tx.ExecContext(ctx, query)
	return err
}

func (s *sqlSession) Commit(ctx context.Context) error {
	if s.tx == nil {
		return errNoTransaction
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

func (s *sqlSession) Close() error {
	var rbErr error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			rbErr = fmt.Errorf("error rolling back open transaction: %w", err)
		}
		s.tx = nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	return rbErr
}
