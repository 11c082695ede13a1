// Package interleaving describes the globally ordered steps of one test case.
package interleaving

import (
	"github.com/wrale/isoreplay/api/types/v1alpha1"
	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
)

// Markers used as the command text of synthetic history records
const (
	BeginMarker  = "Begin"
	CommitMarker = "Commit"
)

// Command is a literal statement bound to a transaction id
type Command struct {
	SQL           string
	TransactionID string
}

// Operation is the abstract intent a Command is believed to implement
type Operation struct {
	Name       string
	Parameters []interface{}
}

// OperationWithTransaction binds an Operation to a transaction id
type OperationWithTransaction struct {
	Operation     Operation
	TransactionID string
}

// Step pairs a Command with its optional Operation
type Step struct {
	Command   Command
	Operation *OperationWithTransaction
}

// TransactionID returns the id of the transaction owning the step
func (s Step) TransactionID() string {
	return s.Command.TransactionID
}

// TestCase is an immutable, validated sequence of steps
type TestCase struct {
	steps []Step
}

// NewTestCase pairs commands with operations positionally. operations may be
// nil, in which case no step carries an operation. Any length or transaction
// id mismatch is reported as ErrMalformedTestCase.
func NewTestCase(commands []Command, operations []OperationWithTransaction) (*TestCase, error) {
	const op = "interleaving.NewTestCase"

	if operations != nil && len(commands) != len(operations) {
		return nil, werrors.Malformed(op, "%d commands but %d operations", len(commands), len(operations))
	}

	steps := make([]Step, len(commands))
	for i, cmd := range commands {
		steps[i] = Step{Command: cmd}
		if operations == nil {
			continue
		}
		if operations[i].TransactionID != cmd.TransactionID {
			return nil, werrors.Malformed(op, "step %d: command transaction %q does not match operation transaction %q",
				i, cmd.TransactionID, operations[i].TransactionID)
		}
		o := operations[i]
		steps[i].Operation = &o
	}

	return &TestCase{steps: steps}, nil
}

// FromWire builds a TestCase from the file representation
func FromWire(sqls []v1alpha1.SqlWithTransaction, ops []v1alpha1.OperationWithTransaction) (*TestCase, error) {
	commands := make([]Command, len(sqls))
	for i, s := range sqls {
		commands[i] = Command{SQL: s.SqlCommand, TransactionID: s.TransactionId}
	}

	var operations []OperationWithTransaction
	if ops != nil {
		operations = make([]OperationWithTransaction, len(ops))
		for i, o := range ops {
			operations[i] = OperationWithTransaction{
				Operation:     Operation{Name: o.Operation.Name, Parameters: o.Operation.Parameters},
				TransactionID: o.TransactionId,
			}
		}
	}

	return NewTestCase(commands, operations)
}

// Len returns the number of steps
func (tc *TestCase) Len() int {
	return len(tc.steps)
}

// Steps returns a copy of the steps in document order
func (tc *TestCase) Steps() []Step {
	out := make([]Step, len(tc.steps))
	copy(out, tc.steps)
	return out
}

// TransactionIDs returns the distinct transaction ids in order of first appearance
func (tc *TestCase) TransactionIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range tc.steps {
		tid := s.TransactionID()
		if !seen[tid] {
			seen[tid] = true
			ids = append(ids, tid)
		}
	}
	return ids
}

// StepCounts returns the number of steps belonging to each transaction id
func (tc *TestCase) StepCounts() map[string]int {
	counts := make(map[string]int)
	for _, s := range tc.steps {
		counts[s.TransactionID()]++
	}
	return counts
}
