// Package ratelimit throttles expensive endpoints with fixed-window counters
package ratelimit

import (
	"context"
	"time"
)

// LimitKey identifies one counter
type LimitKey struct {
	Type     string // e.g. "replay"
	RemoteIP string
}

// Limit allows Rate operations per Period
type Limit struct {
	Rate   int
	Period time.Duration
}

// Store persists counters
type Store interface {
	// Increment counts one operation against key and returns the count in the
	// current window together with the window's end
	Increment(ctx context.Context, key LimitKey, limit Limit) (int, time.Time, error)

	// Reset clears a counter
	Reset(ctx context.Context, key LimitKey) error
}

// Error types for rate limiting
var (
	ErrStoreError   = NewError("STORE_ERROR", "rate limit store error")
	ErrInvalidLimit = NewError("INVALID_LIMIT", "invalid rate limit configuration")
)

// Error represents a rate limiting error
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// NewError creates a new rate limit error
func NewError(code string, message string) Error {
	return Error{
		Code:    code,
		Message: message,
	}
}

// Validate rejects limits that would never allow or never expire
func (l Limit) Validate() error {
	if l.Rate <= 0 || l.Period <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
