// Package file stores histories as JSON files in a results directory
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/wrale/isoreplay/internal/isoreplay/history"
	"github.com/wrale/isoreplay/internal/isoreplay/store"
)

// Store writes one file per test-case file, named after it
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir; the directory is created on first Save
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save implements store.Store
func (s *Store) Save(ctx context.Context, name string, histories []history.History) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}

	data, err := store.Encode(histories)
	if err != nil {
		return fmt.Errorf("error encoding histories: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("error creating results directory: %w", err)
	}

	// Write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("error creating result file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error closing result file: %w", err)
	}

	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

// Load implements store.Store
func (s *Store) Load(ctx context.Context, name string) (json.RawMessage, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading result file: %w", err)
	}
	return json.RawMessage(data), nil
}

// List implements store.Store
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading results directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
