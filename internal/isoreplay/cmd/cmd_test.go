package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/isoreplay/api/types/v1alpha1"
)

const sequentialCase = `{
  "SqlInterleavings": [[
    {"SqlCommand": "INSERT INTO main VALUES ('a', 1, NULL)", "TransactionId": "T1"},
    {"SqlCommand": "SELECT value_store FROM main", "TransactionId": "T2"}
  ]],
  "Interleaving": [[
    {"Operation": {"Name": "Put", "Parameters": ["a", 1]}, "TransactionId": "T1"},
    {"Operation": {"Name": "Get", "Parameters": ["a"]}, "TransactionId": "T2"}
  ]]
}`

// sqliteWorkspace lays out a config file, a test-case directory and a
// results directory backed by an on-disk sqlite database
func sqliteWorkspace(t *testing.T, files map[string]string) (cfgPath, casesDir, resultsDir string) {
	t.Helper()
	dir := t.TempDir()

	casesDir = filepath.Join(dir, "cases")
	resultsDir = filepath.Join(dir, "results")
	require.NoError(t, os.MkdirAll(casesDir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(casesDir, name), []byte(body), 0o600))
	}

	cfgPath = filepath.Join(dir, "isoreplay.yaml")
	cfg := "database:\n" +
		"  driver: sqlite3\n" +
		"  dsn: " + filepath.Join(dir, "replay.db") + "?_busy_timeout=5000\n" +
		"  connectRetries: 1\n" +
		"replay:\n" +
		"  isolation: default\n" +
		"log:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath, casesDir, resultsDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--config", "/nonexistent/dir/isoreplay.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "isoreplay version dev")
}

func TestRunCmd_SQLite(t *testing.T) {
	cfgPath, casesDir, resultsDir := sqliteWorkspace(t, map[string]string{
		"sequential.json": sequentialCase,
	})

	out, err := execute(t, "run", "--config", cfgPath, "--testcases", casesDir, "--results", resultsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 files, 1 test cases, 0 failed, 0 unreplayable")

	data, err := os.ReadFile(filepath.Join(resultsDir, "sequential.json"))
	require.NoError(t, err)

	var histories [][]v1alpha1.TestResult
	require.NoError(t, json.Unmarshal(data, &histories))
	require.Len(t, histories, 1)

	var results []string
	for _, r := range histories[0] {
		results = append(results, r.TestRan.SqlCommand+" "+r.TestRan.TransactionId+" => "+r.Result)
	}
	assert.Equal(t, []string{
		"Begin T1 => Success",
		"INSERT INTO main VALUES ('a', 1, NULL) T1 => Success",
		"Commit T1 => Success",
		"Begin T2 => Success",
		"SELECT value_store FROM main T2 => 1\n",
		"Commit T2 => Success",
	}, results)
}

func TestRunCmd_FailedFile(t *testing.T) {
	cfgPath, casesDir, resultsDir := sqliteWorkspace(t, map[string]string{
		"broken.json": `{"SqlInterleavings": [[]], "Interleaving": []}`,
	})

	out, err := execute(t, "run", "--config", cfgPath, "--testcases", casesDir, "--results", resultsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 test-case files failed")
	assert.Contains(t, out, "1 files, 0 test cases, 1 failed")
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isoreplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("replay:\n  isolation: chaotic\n"), 0o600))

	_, err := execute(t, "run", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown isolation level")
}
