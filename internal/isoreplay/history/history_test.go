package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
)

func TestRecord_Result(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{name: "success", outcome: Succeeded(SuccessText), want: "Success"},
		{name: "empty_rows", outcome: Succeeded(""), want: ""},
		{name: "rows", outcome: Succeeded("a 1\nb 2\n"), want: "a 1\nb 2\n"},
		{name: "failure", outcome: Failed("duplicate key"), want: "Fail\nduplicate key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := MarkerRecord(interleaving.BeginMarker, "T1", tt.outcome)
			assert.Equal(t, tt.want, rec.Result())
			assert.Equal(t, tt.outcome.Kind == Failure, rec.Failed())
		})
	}
}

func TestRecorder_Drain(t *testing.T) {
	rec := NewRecorder()
	rec.Append(MarkerRecord(interleaving.BeginMarker, "T1", Succeeded(SuccessText)))
	rec.Append(StepRecord(interleaving.Step{
		Command: interleaving.Command{SQL: "DELETE FROM main", TransactionID: "T1"},
	}, Failed("boom")))
	rec.Append(MarkerRecord(interleaving.CommitMarker, "T1", Succeeded(SuccessText)))
	assert.Equal(t, 3, rec.Len())

	h := rec.Drain()
	require.Len(t, h, 3)
	assert.Equal(t, "Begin", h[0].Command.SQL)
	assert.Equal(t, "DELETE FROM main", h[1].Command.SQL)
	assert.Equal(t, "Commit", h[2].Command.SQL)
	assert.Equal(t, 0, rec.Len())
	assert.Empty(t, rec.Drain())
}

func TestRecord_MarshalJSON(t *testing.T) {
	step := interleaving.Step{
		Command: interleaving.Command{SQL: "SELECT * FROM main", TransactionID: "T2"},
		Operation: &interleaving.OperationWithTransaction{
			Operation:     interleaving.Operation{Name: "Get", Parameters: []interface{}{"k"}},
			TransactionID: "T2",
		},
	}

	data, err := json.Marshal(StepRecord(step, Succeeded("k v\n")))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"TestRan": {"SqlCommand": "SELECT * FROM main", "TransactionId": "T2"},
		"Result": "k v\n",
		"OperationRan": {"Operation": {"Name": "Get", "Parameters": ["k"]}, "TransactionId": "T2"}
	}`, string(data))

	data, err = json.Marshal(MarkerRecord(interleaving.CommitMarker, "T2", Succeeded(SuccessText)))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"TestRan": {"SqlCommand": "Commit", "TransactionId": "T2"},
		"Result": "Success"
	}`, string(data))
}
