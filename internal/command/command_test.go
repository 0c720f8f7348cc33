package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kusto-mcp/internal/config"
	"kusto-mcp/internal/kusto"
)

type mockExecutor struct {
	result *kusto.QueryResult
	err    error

	lastDatabase string
	lastQuery    string
}

func (m *mockExecutor) Execute(ctx context.Context, database, query string) (*kusto.QueryResult, error) {
	m.lastDatabase = database
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &kusto.QueryResult{}, nil
}

type mockProvider struct {
	exec kusto.Executor
	err  error
}

func (m *mockProvider) Get(c config.ClusterConfig) (kusto.Executor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.exec, nil
}

func strptr(s string) *string { return &s }

func newTestHandler(exec kusto.Executor) *Handler {
	registry := config.NewRegistry()
	registry.Add("samples", "https://help.kusto.windows.net", "Samples")
	registry.Add("prod", "https://prod.kusto.windows.net", "Ops")
	return &Handler{
		Registry: registry,
		Clients:  &mockProvider{exec: exec},
		State:    &ReplState{CurrentCluster: "samples", CurrentDatabase: "Samples"},
	}
}

func TestExecuteExit(t *testing.T) {
	h := newTestHandler(&mockExecutor{})

	assert.False(t, h.Execute("exit"))
	assert.False(t, h.Execute("quit"))
	assert.False(t, h.Execute("  EXIT  "))
	assert.True(t, h.Execute(""))
	assert.True(t, h.Execute("help"))
}

func TestExecuteUse(t *testing.T) {
	h := newTestHandler(&mockExecutor{})

	assert.True(t, h.Execute("use prod"))
	assert.Equal(t, "prod", h.State.CurrentCluster)
	assert.Equal(t, "Ops", h.State.CurrentDatabase)

	// Unknown names resolve to the first configured cluster.
	assert.True(t, h.Execute("use nope"))
	assert.Equal(t, "samples", h.State.CurrentCluster)
	assert.Equal(t, "Samples", h.State.CurrentDatabase)
}

func TestExecuteDb(t *testing.T) {
	h := newTestHandler(&mockExecutor{})

	assert.True(t, h.Execute("db Telemetry"))
	assert.Equal(t, "Telemetry", h.State.CurrentDatabase)
	assert.Equal(t, "samples", h.State.CurrentCluster)
}

func TestExecuteTables(t *testing.T) {
	exec := &mockExecutor{result: &kusto.QueryResult{
		Columns: []string{"TableName"},
		Rows:    [][]*string{{strptr("StormEvents")}},
	}}
	h := newTestHandler(exec)

	assert.True(t, h.Execute("tables"))
	assert.Equal(t, ".show tables | project TableName", exec.lastQuery)
	assert.Equal(t, "Samples", exec.lastDatabase)
}

func TestExecuteSchema(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHandler(exec)

	assert.True(t, h.Execute("schema StormEvents"))
	assert.Equal(t, ".show table StormEvents schema as json", exec.lastQuery)
}

func TestExecuteRawQuery(t *testing.T) {
	exec := &mockExecutor{result: &kusto.QueryResult{
		Columns: []string{"State"},
		Rows:    [][]*string{{strptr("TEXAS")}},
	}}
	h := newTestHandler(exec)

	assert.True(t, h.Execute("StormEvents | take 1"))
	assert.Equal(t, "StormEvents | take 1", exec.lastQuery)
	assert.NotNil(t, h.lastResult)
}

func TestExecuteRawQueryUsesActiveDatabase(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHandler(exec)

	h.Execute("db Telemetry")
	h.Execute("StormEvents | take 1")
	assert.Equal(t, "Telemetry", exec.lastDatabase)
}

func TestQueryErrorDoesNotClobberLastResult(t *testing.T) {
	exec := &mockExecutor{result: &kusto.QueryResult{
		Columns: []string{"A"},
		Rows:    [][]*string{{strptr("1")}},
	}}
	h := newTestHandler(exec)

	h.Execute("GoodTable | take 1")
	require.NotNil(t, h.lastResult)

	exec.err = errors.New("boom")
	h.Execute("BadTable | take 1")
	assert.NotNil(t, h.lastResult, "a failed query keeps the previous result exportable")
}

func TestExportCSV(t *testing.T) {
	exec := &mockExecutor{result: &kusto.QueryResult{
		Columns: []string{"State", "Count"},
		Rows: [][]*string{
			{strptr("TEXAS"), strptr("4701")},
			{strptr("KANSAS"), nil},
		},
	}}
	h := newTestHandler(exec)
	h.Execute("StormEvents | take 2")

	path := filepath.Join(t.TempDir(), "out.csv")
	require.True(t, h.Execute("export "+path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "State,Count\nTEXAS,4701\nKANSAS,\n", string(data))
}

func TestExportCSVWithoutResult(t *testing.T) {
	h := newTestHandler(&mockExecutor{})

	err := h.exportCSV(filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no query result to export")
}
