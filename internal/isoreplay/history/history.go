// Package history records the outcome of every begin, step and commit of a replay.
package history

import (
	"encoding/json"

	"github.com/wrale/isoreplay/api/types/v1alpha1"
	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
)

// SuccessText is the result text of a statement that returned no rows to report
const SuccessText = "Success"

// failPrefix precedes the error message of a failed record
const failPrefix = "Fail\n"

// OutcomeKind distinguishes success from failure
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Failure
)

// Outcome is the tagged result of one recorded event
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Succeeded returns a success outcome carrying text
func Succeeded(text string) Outcome {
	return Outcome{Kind: Success, Message: text}
}

// Failed returns a failure outcome carrying the error message
func Failed(message string) Outcome {
	return Outcome{Kind: Failure, Message: message}
}

// Record is the outcome of one step or of a synthetic Begin/Commit marker
type Record struct {
	Outcome   Outcome
	Command   interleaving.Command
	Operation *interleaving.OperationWithTransaction
}

// StepRecord records the outcome of executing step
func StepRecord(step interleaving.Step, outcome Outcome) Record {
	return Record{Outcome: outcome, Command: step.Command, Operation: step.Operation}
}

// MarkerRecord records a synthetic Begin or Commit for tid
func MarkerRecord(marker, tid string, outcome Outcome) Record {
	return Record{
		Outcome: outcome,
		Command: interleaving.Command{SQL: marker, TransactionID: tid},
	}
}

// Result returns the textual result as it is persisted
func (r Record) Result() string {
	if r.Outcome.Kind == Failure {
		return failPrefix + r.Outcome.Message
	}
	return r.Outcome.Message
}

// Failed reports whether the record carries a failure
func (r Record) Failed() bool {
	return r.Outcome.Kind == Failure
}

// Wire converts the record to its serialized shape
func (r Record) Wire() v1alpha1.TestResult {
	res := v1alpha1.TestResult{
		TestRan: v1alpha1.SqlWithTransaction{
			SqlCommand:    r.Command.SQL,
			TransactionId: r.Command.TransactionID,
		},
		Result: r.Result(),
	}
	if r.Operation != nil {
		res.OperationRan = &v1alpha1.OperationWithTransaction{
			Operation: v1alpha1.Operation{
				Name:       r.Operation.Operation.Name,
				Parameters: r.Operation.Operation.Parameters,
			},
			TransactionId: r.Operation.TransactionID,
		}
	}
	return res
}

// MarshalJSON implements json.Marshaler
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Wire())
}

// History is the ordered record of one replayed test case
type History []Record

// Wire converts every record of the history
func (h History) Wire() []v1alpha1.TestResult {
	out := make([]v1alpha1.TestResult, len(h))
	for i, r := range h {
		out[i] = r.Wire()
	}
	return out
}

// Recorder is an append-only buffer of records
type Recorder struct {
	records []Record
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append adds a record after all previously appended ones
func (r *Recorder) Append(rec Record) {
	r.records = append(r.records, rec)
}

// Len returns the number of buffered records
func (r *Recorder) Len() int {
	return len(r.records)
}

// Drain returns the buffered records in append order and empties the recorder
func (r *Recorder) Drain() History {
	h := History(r.records)
	r.records = nil
	return h
}
