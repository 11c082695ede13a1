// Package store persists replayed histories
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
	"github.com/wrale/isoreplay/internal/isoreplay/history"
)

// Store keeps the histories of one test-case file under its name
type Store interface {
	// Save replaces the histories stored under name
	Save(ctx context.Context, name string, histories []history.History) error
	// Load returns the serialized histories stored under name
	Load(ctx context.Context, name string) (json.RawMessage, error)
	// List returns the stored names in sorted order
	List(ctx context.Context) ([]string, error)
}

// ErrResultNotFound is returned by Load for unknown names
var ErrResultNotFound = werrors.NewError("NOT_FOUND", "result not found", "store.Load", werrors.ErrNotFound)

// Encode serializes histories as a JSON array of arrays of results
func Encode(histories []history.History) ([]byte, error) {
	wire := make([]interface{}, len(histories))
	for i, h := range histories {
		wire[i] = h.Wire()
	}
	return json.Marshal(wire)
}

// ValidateName rejects names that could escape a results directory or key space
func ValidateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return werrors.NewError("INVALID_INPUT", fmt.Sprintf("invalid result name %q", name), "store.ValidateName", werrors.ErrInvalidInput)
	}
	return nil
}
