// Package database provides utilities for database operations
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
)

// Tx wraps a database transaction with additional functionality
type Tx struct {
	*sql.Tx
}

// TxOptions defines options for transaction execution
type TxOptions struct {
	// Isolation sets the transaction isolation level
	Isolation sql.IsolationLevel
	// ReadOnly indicates if the transaction is read-only
	ReadOnly bool
}

// SQL converts the options for database/sql
func (o *TxOptions) SQL() *sql.TxOptions {
	if o == nil {
		return nil
	}
	return &sql.TxOptions{
		Isolation: o.Isolation,
		ReadOnly:  o.ReadOnly,
	}
}

// Open connects to the database, retrying the initial ping up to retries times
func Open(ctx context.Context, driver, dsn string, retries int, delay time.Duration, logger zerolog.Logger) (*sql.DB, error) {
	if retries < 1 {
		retries = 1
	}

	var db *sql.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = sql.Open(driver, dsn)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", i+1).Int("max", retries).Msg("failed to open database connection")
			if !sleep(ctx, delay) {
				return nil, ctx.Err()
			}
			continue
		}

		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", i+1).Int("max", retries).Msg("failed to ping database")
		if cerr := db.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("error closing failed connection")
		}
		if !sleep(ctx, delay) {
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d attempts: %w", retries, err)
	}

	return db, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RunInTx executes a function within a transaction
func RunInTx(ctx context.Context, db *sql.DB, opts *TxOptions, fn func(*Tx) error) error {
	tx, err := db.BeginTx(ctx, opts.SQL())
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	wtx := &Tx{Tx: tx}

	if err := fn(wtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// ErrorMessage returns the human-readable message carried by a driver error.
// Driver errors render their own prefix (e.g. "pq: "), which is dropped here
// so histories read the same across drivers.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Message
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Message
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Error()
	}

	return err.Error()
}

// MapError converts database-specific errors to domain errors
func MapError(err error, op string) error {
	if err == nil {
		return nil
	}

	switch sqlState(err) {
	case "23505": // unique_violation
		return werrors.NewError(
			"CONFLICT",
			"resource already exists",
			op,
			werrors.ErrConflict,
		)
	case "23503": // foreign_key_violation
		return werrors.NewError(
			"NOT_FOUND",
			"referenced resource not found",
			op,
			werrors.ErrNotFound,
		)
	case "23514": // check_violation
		return werrors.NewError(
			"INVALID_INPUT",
			ErrorMessage(err),
			op,
			werrors.ErrInvalidInput,
		)
	case "42P01", "42S02": // undefined_table
		return werrors.NewError(
			"NOT_FOUND",
			ErrorMessage(err),
			op,
			werrors.ErrNotFound,
		)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return werrors.NewError(
			"NOT_FOUND",
			"resource not found",
			op,
			werrors.ErrNotFound,
		)
	}

	return werrors.NewError(
		"INTERNAL",
		ErrorMessage(err),
		op,
		err,
	)
}

// sqlState extracts a SQLSTATE-like code from any supported driver error
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == 1062 { // ER_DUP_ENTRY shares 23000 with other integrity errors
			return "23505"
		}
		return string(myErr.SQLState[:])
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return "23505"
		case sqlite3.ErrConstraintForeignKey:
			return "23503"
		case sqlite3.ErrConstraintCheck:
			return "23514"
		}
		if liteErr.Code == sqlite3.ErrError && strings.HasPrefix(liteErr.Error(), "no such table") {
			return "42P01"
		}
	}

	return ""
}
