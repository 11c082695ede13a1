// Package mocks provides testify mocks of the session interfaces
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wrale/isoreplay/internal/isoreplay/session"
)

// Session mocks session.Session
type Session struct {
	mock.Mock
}

func (m *Session) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Session) Query(ctx context.Context, query string) ([][]interface{}, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]interface{}), args.Error(1)
}

func (m *Session) Exec(ctx context.Context, query string) error {
	args := m.Called(ctx, query)
	return args.Error(0)
}

func (m *Session) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Session) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Connector mocks session.Connector
type Connector struct {
	mock.Mock
}

func (m *Connector) Connect(ctx context.Context) (session.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(session.Session), args.Error(1)
}
