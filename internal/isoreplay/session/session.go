// Package session owns the database connections used by one replayed test case.
package session

import (
	"context"
)

// Session is one database connection dedicated to a single transaction
type Session interface {
	// Begin starts the transaction; auto-commit stays off until Commit
	Begin(ctx context.Context) error
	// Query runs a statement and returns every row in database order
	Query(ctx context.Context, query string) ([][]interface{}, error)
	// Exec runs a statement that returns no rows
	Exec(ctx context.Context, query string) error
	// Commit ends the transaction started by Begin
	Commit(ctx context.Context) error
	// Close releases the connection, rolling back any open transaction
	Close() error
}

// Connector opens sessions against a fixed endpoint
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}
