package interleaving

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrale/isoreplay/api/types/v1alpha1"
	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
)

func put(tid string, key, value string) OperationWithTransaction {
	return OperationWithTransaction{
		Operation:     Operation{Name: "Put", Parameters: []interface{}{key, value}},
		TransactionID: tid,
	}
}

func TestNewTestCase(t *testing.T) {
	tests := []struct {
		name       string
		commands   []Command
		operations []OperationWithTransaction
		wantErr    bool
	}{
		{
			name: "matching_sequences",
			commands: []Command{
				{SQL: "INSERT INTO main VALUES ('a', '1', NULL)", TransactionID: "T1"},
				{SQL: "INSERT INTO main VALUES ('b', '2', NULL)", TransactionID: "T2"},
			},
			operations: []OperationWithTransaction{put("T1", "a", "1"), put("T2", "b", "2")},
		},
		{
			name:     "no_operations",
			commands: []Command{{SQL: "SELECT 1", TransactionID: "T1"}},
		},
		{
			name: "length_mismatch",
			commands: []Command{
				{SQL: "SELECT 1", TransactionID: "T1"},
				{SQL: "SELECT 2", TransactionID: "T1"},
			},
			operations: []OperationWithTransaction{put("T1", "a", "1")},
			wantErr:    true,
		},
		{
			name: "transaction_mismatch",
			commands: []Command{
				{SQL: "SELECT 1", TransactionID: "T1"},
				{SQL: "SELECT 2", TransactionID: "T1"},
			},
			operations: []OperationWithTransaction{put("T1", "a", "1"), put("T2", "b", "2")},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := NewTestCase(tt.commands, tt.operations)
			if tt.wantErr {
				assert.True(t, werrors.IsMalformed(err))
				assert.Nil(t, tc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.commands), tc.Len())
		})
	}
}

func TestTestCase_Counts(t *testing.T) {
	tc, err := NewTestCase([]Command{
		{SQL: "INSERT 1", TransactionID: "T2"},
		{SQL: "INSERT 2", TransactionID: "T1"},
		{SQL: "SELECT 3", TransactionID: "T2"},
		{SQL: "SELECT 4", TransactionID: "T2"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"T2", "T1"}, tc.TransactionIDs())
	assert.Equal(t, map[string]int{"T1": 1, "T2": 3}, tc.StepCounts())
	for _, s := range tc.Steps() {
		assert.Nil(t, s.Operation)
	}
}

func TestFromWire(t *testing.T) {
	sqls := []v1alpha1.SqlWithTransaction{
		{SqlCommand: "SELECT * FROM main", TransactionId: "T1"},
	}
	ops := []v1alpha1.OperationWithTransaction{
		{Operation: v1alpha1.Operation{Name: "Get", Parameters: []interface{}{"a"}}, TransactionId: "T1"},
	}

	tc, err := FromWire(sqls, ops)
	require.NoError(t, err)

	steps := tc.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, "SELECT * FROM main", steps[0].Command.SQL)
	require.NotNil(t, steps[0].Operation)
	assert.Equal(t, "Get", steps[0].Operation.Operation.Name)
	assert.Equal(t, "T1", steps[0].Operation.TransactionID)

	ops[0].TransactionId = "T9"
	_, err = FromWire(sqls, ops)
	assert.True(t, werrors.IsMalformed(err))
}
