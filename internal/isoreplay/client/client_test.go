package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/isoreplay/api/types/v1alpha1"
	"github.com/wrale/isoreplay/internal/isoreplay/history"
	replayhttp "github.com/wrale/isoreplay/internal/isoreplay/http"
	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
	"github.com/wrale/isoreplay/internal/isoreplay/store/file"
)

// echoReplayer answers every step with Success, wrapped in Begin and Commit
type echoReplayer struct{}

func (echoReplayer) RunBatch(ctx context.Context, cases []*interleaving.TestCase) ([]history.History, error) {
	out := make([]history.History, len(cases))
	ok := history.Succeeded(history.SuccessText)
	for i, tc := range cases {
		for _, step := range tc.Steps() {
			out[i] = append(out[i],
				history.MarkerRecord(interleaving.BeginMarker, step.TransactionID(), ok),
				history.StepRecord(step, ok),
				history.MarkerRecord(interleaving.CommitMarker, step.TransactionID(), ok),
			)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T) *Client {
	t.Helper()
	h := replayhttp.NewHandler(echoReplayer{}, file.NewStore(t.TempDir()), zerolog.Nop())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/ignored/path")
	require.NoError(t, err)
	return c
}

func testFile() *v1alpha1.TestFile {
	return &v1alpha1.TestFile{
		SqlInterleavings: [][]v1alpha1.SqlWithTransaction{{
			{SqlCommand: "UPDATE main SET value_store = '1'", TransactionId: "T1"},
		}},
		Interleaving: [][]v1alpha1.OperationWithTransaction{{
			{Operation: v1alpha1.Operation{Name: "Put", Parameters: []interface{}{"x", 1.0}}, TransactionId: "T1"},
		}},
	}
}

func TestClient_ReplayAndResults(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	resp, err := c.Replay(ctx, testFile(), "updates")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Histories, 1)
	require.Len(t, resp.Histories[0], 3)
	assert.Equal(t, "UPDATE main SET value_store = '1'", resp.Histories[0][1].TestRan.SqlCommand)
	require.NotNil(t, resp.Histories[0][1].OperationRan)
	assert.Equal(t, "Put", resp.Histories[0][1].OperationRan.Operation.Name)

	names, err := c.ListResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"updates"}, names)

	stored, err := c.GetResult(ctx, "updates")
	require.NoError(t, err)
	assert.Equal(t, resp.Histories, stored)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	_, err := c.GetResult(ctx, "missing")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	bad := testFile()
	bad.Interleaving = nil
	_, err = c.Replay(ctx, bad, "")
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "operation interleavings")
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("localhost")
	assert.Error(t, err)
	_, err = NewClient("://bad")
	assert.Error(t, err)
}
