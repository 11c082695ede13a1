package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
)

// Pool holds exactly one session per transaction id of a test case
type Pool struct {
	sessions map[string]Session
	order    []string
	logger   zerolog.Logger
	closed   bool
}

// Open connects one session for each id before any step runs. If a
// connection fails, the sessions opened so far are closed again.
func Open(ctx context.Context, connector Connector, tids []string, logger zerolog.Logger) (*Pool, error) {
	p := &Pool{
		sessions: make(map[string]Session, len(tids)),
		logger:   logger.With().Str("component", "session-pool").Logger(),
	}

	for _, tid := range tids {
		if _, ok := p.sessions[tid]; ok {
			continue
		}
		s, err := connector.Connect(ctx)
		if err != nil {
			p.CloseAll()
			return nil, fmt.Errorf("error opening session for transaction %s: %w", tid, err)
		}
		p.sessions[tid] = s
		p.order = append(p.order, tid)
	}

	p.logger.Debug().Int("sessions", len(p.order)).Msg("sessions opened")
	return p, nil
}

// Acquire returns the session of tid
func (p *Pool) Acquire(tid string) (Session, error) {
	s, ok := p.sessions[tid]
	if !ok || p.closed {
		return nil, werrors.NewError("NOT_FOUND", fmt.Sprintf("no session for transaction %s", tid),
			"session.Acquire", werrors.ErrSessionNotFound)
	}
	return s, nil
}

// Len returns the number of open sessions
func (p *Pool) Len() int {
	if p.closed {
		return 0
	}
	return len(p.sessions)
}

// CloseAll closes every session. Close failures are logged, not returned,
// so every session gets closed. Calling it again does nothing.
func (p *Pool) CloseAll() {
	if p.closed {
		return
	}
	p.closed = true

	for _, tid := range p.order {
		if err := p.sessions[tid].Close(); err != nil {
			p.logger.Warn().Err(err).Str("transaction", tid).Msg("error closing session")
		}
	}
	p.logger.Debug().Int("sessions", len(p.order)).Msg("sessions closed")
}
