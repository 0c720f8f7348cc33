package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyPrintWithNestedExpansion(t *testing.T) {
	t.Run("expands nested JSON strings", func(t *testing.T) {
		in := `{"Properties": "{\"Severity\":\"High\"}"}`
		out := PrettyPrintWithNestedExpansion(in)
		assert.Contains(t, out, "\"Severity\": \"High\"")
		assert.NotContains(t, out, `\"Severity\"`)
	})

	t.Run("expands arrays recursively", func(t *testing.T) {
		in := `[{"Payload": "[1, 2, 3]"}]`
		out := PrettyPrintWithNestedExpansion(in)
		assert.Contains(t, out, "1,\n")
		assert.NotContains(t, out, `"[1, 2, 3]"`)
	})

	t.Run("plain strings stay verbatim", func(t *testing.T) {
		assert.Equal(t, "not json at all", PrettyPrintWithNestedExpansion("not json at all"))
	})

	t.Run("non-JSON string values are untouched", func(t *testing.T) {
		in := `{"Message": "hello {world"}`
		out := PrettyPrintWithNestedExpansion(in)
		assert.Contains(t, out, `"Message": "hello {world"`)
	})
}

func TestIsJSONString(t *testing.T) {
	assert.True(t, isJSONString(`{"a": 1}`))
	assert.True(t, isJSONString(` [1, 2] `))
	assert.False(t, isJSONString("plain"))
	assert.False(t, isJSONString(""))
	assert.False(t, isJSONString("{unbalanced"))
}

func TestProjectArray(t *testing.T) {
	in := `[
  {"TableName": "Events", "Folder": "ops"},
  {"TableName": "Logs", "Folder": "ops"}
]`

	out, err := ProjectArray(in, "$.TableName")
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"Events\",\n  \"Logs\"\n]", out)
}

func TestProjectArraySkipsMisses(t *testing.T) {
	in := `[
  {"TableName": "Events"},
  {"Other": "x"}
]`

	out, err := ProjectArray(in, "$.TableName")
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"Events\"\n]", out)
}

func TestProjectArrayEmpty(t *testing.T) {
	out, err := ProjectArray("[]", "$.TableName")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestProjectArrayInvalidInput(t *testing.T) {
	_, err := ProjectArray("{not an array", "$.TableName")
	assert.Error(t, err)
}
