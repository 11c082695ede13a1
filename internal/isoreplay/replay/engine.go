// Package replay executes an interleaving as one deterministic history.
//
// Steps run strictly one after another in document order, each on the
// session of its own transaction. A transaction is begun right before its
// first step and committed right after the step that exhausts it, so commit
// order follows step exhaustion and not declaration order. Step and commit
// failures are recorded and never stop the replay.
package replay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wrale/isoreplay/internal/isoreplay/database"
	"github.com/wrale/isoreplay/internal/isoreplay/history"
	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
	"github.com/wrale/isoreplay/internal/isoreplay/session"
)

// Engine replays test cases against sessions from a Connector
type Engine struct {
	connector session.Connector
	classify  QueryClassifier
	logger    zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClassifier replaces the read-query detection
func WithClassifier(c QueryClassifier) Option {
	return func(e *Engine) {
		e.classify = c
	}
}

// New creates an engine
func New(connector session.Connector, opts ...Option) *Engine {
	e := &Engine{
		connector: connector,
		classify:  NaiveClassifier,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "replay").Logger()
	return e
}

// execution is the state of one Run
type execution struct {
	remaining map[string]int
	begun     map[string]bool
	pool      *session.Pool
	recorder  *history.Recorder
}

// Run replays tc and returns its history. The only errors returned are
// those that prevent the replay from starting (opening sessions); every
// begin, step and commit outcome ends up in the history instead.
func (e *Engine) Run(ctx context.Context, tc *interleaving.TestCase) (history.History, error) {
	pool, err := session.Open(ctx, e.connector, tc.TransactionIDs(), e.logger)
	if err != nil {
		return nil, err
	}
	defer pool.CloseAll()

	ex := &execution{
		remaining: tc.StepCounts(),
		begun:     make(map[string]bool),
		pool:      pool,
		recorder:  history.NewRecorder(),
	}

	for i, step := range tc.Steps() {
		if err := e.runStep(ctx, ex, i, step); err != nil {
			return nil, err
		}
	}

	return ex.recorder.Drain(), nil
}

// CaseError reports a test case that could not be replayed at all
type CaseError struct {
	Index int
	Err   error
}

func (e *CaseError) Error() string {
	return fmt.Sprintf("test case %d: %v", e.Index, e.Err)
}

func (e *CaseError) Unwrap() error {
	return e.Err
}

// BatchError lists the cases of a batch that could not be replayed. The
// other cases of the batch still ran.
type BatchError struct {
	Cases []*CaseError
	Total int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d test cases could not be replayed (first: %v)", len(e.Cases), e.Total, e.Cases[0])
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Cases))
	for i, c := range e.Cases {
		errs[i] = c
	}
	return errs
}

// RunBatch replays each case independently, in order. A case whose sessions
// cannot be opened gets a history of failed Begin records, one per
// transaction, and the batch moves on; such cases are reported together in a
// *BatchError next to the complete histories. Only cancellation of ctx stops
// the batch early.
func (e *Engine) RunBatch(ctx context.Context, cases []*interleaving.TestCase) ([]history.History, error) {
	histories := make([]history.History, 0, len(cases))
	var failed []*CaseError

	for i, tc := range cases {
		if err := ctx.Err(); err != nil {
			return histories, err
		}

		h, err := e.Run(ctx, tc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return histories, ctxErr
			}
			e.logger.Warn().Err(err).Int("case", i).Msg("test case could not be replayed")
			failed = append(failed, &CaseError{Index: i, Err: err})
			h = unreplayable(tc, err)
		}
		histories = append(histories, h)
	}

	if len(failed) > 0 {
		return histories, &BatchError{Cases: failed, Total: len(cases)}
	}
	return histories, nil
}

// unreplayable is the history of a case that never started
func unreplayable(tc *interleaving.TestCase, err error) history.History {
	outcome := failure(err)
	h := make(history.History, 0, len(tc.TransactionIDs()))
	for _, tid := range tc.TransactionIDs() {
		h = append(h, history.MarkerRecord(interleaving.BeginMarker, tid, outcome))
	}
	return h
}

func (e *Engine) runStep(ctx context.Context, ex *execution, i int, step interleaving.Step) error {
	tid := step.TransactionID()
	s, err := ex.pool.Acquire(tid)
	if err != nil {
		return err
	}

	if !ex.begun[tid] {
		ex.begun[tid] = true
		ex.recorder.Append(history.MarkerRecord(interleaving.BeginMarker, tid, outcomeOf(s.Begin(ctx), history.SuccessText)))
	}

	outcome := e.execute(ctx, s, step.Command.SQL)
	if outcome.Kind == history.Failure {
		e.logger.Debug().Int("step", i).Str("transaction", tid).Str("error", outcome.Message).Msg("step failed")
	}
	ex.recorder.Append(history.StepRecord(step, outcome))

	ex.remaining[tid]--
	if ex.remaining[tid] <= 0 {
		ex.recorder.Append(history.MarkerRecord(interleaving.CommitMarker, tid, outcomeOf(s.Commit(ctx), history.SuccessText)))
	}

	return nil
}

func (e *Engine) execute(ctx context.Context, s session.Session, sql string) history.Outcome {
	if e.classify(sql) {
		rows, err := s.Query(ctx, sql)
		if err != nil {
			return failure(err)
		}
		return history.Succeeded(FormatRows(rows))
	}

	return outcomeOf(s.Exec(ctx, sql), history.SuccessText)
}

func outcomeOf(err error, text string) history.Outcome {
	if err != nil {
		return failure(err)
	}
	return history.Succeeded(text)
}

func failure(err error) history.Outcome {
	return history.Failed(database.ErrorMessage(err))
}
