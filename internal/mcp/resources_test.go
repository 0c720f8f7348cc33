package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kusto-mcp/internal/kusto"
)

func TestResourceList(t *testing.T) {
	rm := NewResourceManager(testRegistry(), &mockProvider{exec: &mockExecutor{}})

	descriptors := rm.List()

	require.Len(t, descriptors, 4, "two resources per configured cluster")
	assert.Equal(t, "kusto://samples/tables", descriptors[0].URI)
	assert.Equal(t, "Tables in samples", descriptors[0].Name)
	assert.Equal(t, "kusto://samples/functions", descriptors[1].URI)
	assert.Equal(t, "Functions in samples", descriptors[1].Name)
	assert.Equal(t, "kusto://prod/tables", descriptors[2].URI)
	assert.Equal(t, "kusto://prod/functions", descriptors[3].URI)
	for _, d := range descriptors {
		assert.Equal(t, "application/json", d.MIMEType)
	}
}

func TestResourceReadTables(t *testing.T) {
	exec := &mockExecutor{result: &kusto.QueryResult{
		Columns: []string{"TableName"},
		Rows: [][]*string{
			{strptr("StormEvents")},
			{strptr("PopulationData")},
			{strptr("Covid19")},
		},
	}}
	rm := NewResourceManager(testRegistry(), &mockProvider{exec: exec})

	text, err := rm.Read(context.Background(), "kusto://samples/tables")
	require.NoError(t, err)

	assert.Equal(t, ".show tables | project TableName", exec.lastQuery)
	assert.Equal(t, "Samples", exec.lastDatabase, "resource reads use the cluster's default database")
	want := "[\n  {\n    \"TableName\": \"StormEvents\"\n  },\n  {\n    \"TableName\": \"PopulationData\"\n  },\n  {\n    \"TableName\": \"Covid19\"\n  }\n]"
	assert.Equal(t, want, text)
}

func TestResourceReadFunctions(t *testing.T) {
	exec := &mockExecutor{result: &kusto.QueryResult{
		Columns: []string{"Name", "Parameters"},
		Rows: [][]*string{
			{strptr("MyFunc"), strptr("(a:long)")},
		},
	}}
	rm := NewResourceManager(testRegistry(), &mockProvider{exec: exec})

	text, err := rm.Read(context.Background(), "kusto://prod/functions")
	require.NoError(t, err)

	assert.Equal(t, ".show functions | project Name, Parameters", exec.lastQuery)
	assert.Equal(t, "Ops", exec.lastDatabase)
	assert.Contains(t, text, "\"Name\": \"MyFunc\"")
}

func TestResourceReadErrors(t *testing.T) {
	rm := NewResourceManager(testRegistry(), &mockProvider{exec: &mockExecutor{}})

	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"wrong scheme", "https://samples/tables", ErrUnsupportedScheme},
		{"missing kind", "kusto://samples", ErrInvalidURI},
		{"unknown kind", "kusto://samples/views", ErrUnsupportedResourceKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rm.Read(context.Background(), tt.uri)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResourceReadUnknownClusterFallsBack(t *testing.T) {
	exec := &mockExecutor{result: &kusto.QueryResult{
		Columns: []string{"TableName"},
		Rows:    [][]*string{{strptr("Events")}},
	}}
	rm := NewResourceManager(testRegistry(), &mockProvider{exec: exec})

	_, err := rm.Read(context.Background(), "kusto://nope/tables")
	require.NoError(t, err)
	assert.Equal(t, "Samples", exec.lastDatabase, "unknown cluster resolves to the first configured one")
}
