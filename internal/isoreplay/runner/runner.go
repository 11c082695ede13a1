// Package runner drives a directory of test-case files through the replay engine
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
	"github.com/wrale/isoreplay/internal/isoreplay/loader"
	"github.com/wrale/isoreplay/internal/isoreplay/replay"
	"github.com/wrale/isoreplay/internal/isoreplay/store"
)

// Provisioner prepares and clears the tables a batch runs against
type Provisioner interface {
	Setup(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Summary counts what a batch did
type Summary struct {
	RunID  string
	Files  int
	Cases  int
	Failed int
	// Unreplayable counts test cases that could not start, e.g. because a
	// session could not be opened
	Unreplayable int
}

// Runner replays every file of a directory and stores one result per file
type Runner struct {
	engine *replay.Engine
	store  store.Store
	schema Provisioner
	logger zerolog.Logger
}

// New creates a runner. schema may be nil when tables are managed elsewhere.
func New(engine *replay.Engine, st store.Store, schema Provisioner, logger zerolog.Logger) *Runner {
	return &Runner{
		engine: engine,
		store:  st,
		schema: schema,
		logger: logger.With().Str("component", "runner").Logger(),
	}
}

// RunDir provisions the schema, replays each test-case file of dir and
// resets the tables afterwards. Files that fail to load or replay are
// logged and counted, never fatal to the rest of the batch.
func (r *Runner) RunDir(ctx context.Context, dir string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger := r.logger.With().Str("run", summary.RunID).Logger()

	paths, err := loader.ScanDir(dir)
	if err != nil {
		return summary, err
	}

	if r.schema != nil {
		if err := r.schema.Setup(ctx); err != nil {
			return summary, fmt.Errorf("error provisioning schema: %w", err)
		}
		defer func() {
			if err := r.schema.Reset(ctx); err != nil {
				logger.Warn().Err(err).Msg("error resetting tables")
			}
		}()
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Files++
		cases, err := r.RunFile(ctx, path)
		summary.Cases += cases
		if err != nil {
			var batchErr *replay.BatchError
			if errors.As(err, &batchErr) {
				summary.Unreplayable += len(batchErr.Cases)
			}
			summary.Failed++
			logger.Error().Err(err).Str("file", path).Msg("test-case file failed")
		}
	}

	logger.Info().
		Int("files", summary.Files).
		Int("cases", summary.Cases).
		Int("failed", summary.Failed).
		Int("unreplayable", summary.Unreplayable).
		Msg("batch finished")

	return summary, nil
}

// RunFile replays one file and saves its histories under the file's name.
// It returns the number of test cases replayed.
func (r *Runner) RunFile(ctx context.Context, path string) (int, error) {
	start := time.Now()

	cases, err := loader.LoadFile(path)
	if err != nil {
		return 0, err
	}

	n, err := r.RunCases(ctx, filepath.Base(path), cases)
	if err != nil {
		return n, err
	}

	r.logger.Info().
		Str("file", path).
		Int("cases", n).
		Dur("duration", time.Since(start)).
		Msg("test-case file replayed")

	return n, nil
}

// RunCases replays cases and saves their histories under name. Cases that
// could not be replayed are saved with their failed Begin records and
// reported as a *replay.BatchError after the save.
func (r *Runner) RunCases(ctx context.Context, name string, cases []*interleaving.TestCase) (int, error) {
	histories, err := r.engine.RunBatch(ctx, cases)
	var batchErr *replay.BatchError
	if err != nil && !errors.As(err, &batchErr) {
		return len(histories), err
	}

	if err := r.store.Save(ctx, name, histories); err != nil {
		return len(histories), fmt.Errorf("error saving results: %w", err)
	}

	if batchErr != nil {
		return len(histories), batchErr
	}
	return len(histories), nil
}
