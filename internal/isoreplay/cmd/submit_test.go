package cmd

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/isoreplay/internal/isoreplay/history"
	replayhttp "github.com/wrale/isoreplay/internal/isoreplay/http"
	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
	"github.com/wrale/isoreplay/internal/isoreplay/store/file"
)

// stubReplayer reports every statement as a successful single-step transaction
type stubReplayer struct{}

func (stubReplayer) RunBatch(ctx context.Context, cases []*interleaving.TestCase) ([]history.History, error) {
	out := make([]history.History, len(cases))
	ok := history.Succeeded(history.SuccessText)
	for i, tc := range cases {
		for _, step := range tc.Steps() {
			out[i] = append(out[i],
				history.MarkerRecord(interleaving.BeginMarker, step.TransactionID(), ok),
				history.StepRecord(step, history.Succeeded("1\n2\n")),
				history.MarkerRecord(interleaving.CommitMarker, step.TransactionID(), ok),
			)
		}
	}
	return out, nil
}

func TestSubmitAndResults(t *testing.T) {
	h := replayhttp.NewHandler(stubReplayer{}, file.NewStore(t.TempDir()), zerolog.Nop())
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "reads.json")
	require.NoError(t, os.WriteFile(path, []byte(sequentialCase), 0o600))

	out, err := execute(t, "submit", "--server", srv.URL, "--save", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# test case 0")
	assert.Contains(t, out, "TX")
	assert.Contains(t, out, `1\n2`)

	out, err = execute(t, "results", "--server", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "reads.json\n", out)

	out, err = execute(t, "results", "--server", srv.URL, "-o", "json", "reads.json")
	require.NoError(t, err)
	assert.Contains(t, out, `"SqlCommand": "Commit"`)

	_, err = execute(t, "results", "--server", srv.URL, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSubmit_RejectsMalformedLocally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SqlInterleavings: [[]]\nInterleaving: []\n"), 0o600))

	// no server is listening; the file must be rejected before any request
	_, err := execute(t, "submit", "--server", "http://127.0.0.1:1", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation interleavings")
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, `a b\nc d`, flatten("a b\nc d\n"))
	assert.Equal(t, "Success", flatten("Success"))
	assert.Equal(t, "", flatten(""))
}
