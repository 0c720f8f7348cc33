// Package jsonutil provides JSON presentation helpers for query results:
// pretty-printing with nested expansion and JSONPath projection.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oliveagle/jsonpath"
)

// PrettyPrintWithNestedExpansion formats JSON with recursive nested JSON
// string expansion. Kusto dynamic columns arrive as JSON text inside a
// string cell; expanding them makes REPL output readable.
func PrettyPrintWithNestedExpansion(value string) string {
	var jsonData interface{}
	if err := json.Unmarshal([]byte(value), &jsonData); err != nil {
		return value // If not valid JSON, return as is
	}

	expandedData := expandNestedJSON(jsonData)

	prettyJSON, err := json.MarshalIndent(expandedData, "", "  ")
	if err != nil {
		return value // If can't pretty print, return as is
	}

	return string(prettyJSON)
}

// expandNestedJSON recursively expands JSON strings within the data
// structure. It handles objects, arrays, and string values that contain
// valid JSON.
func expandNestedJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})
		for key, val := range v {
			result[key] = expandNestedJSON(val)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = expandNestedJSON(val)
		}
		return result
	case string:
		if isJSONString(v) {
			var nestedData interface{}
			if err := json.Unmarshal([]byte(v), &nestedData); err == nil {
				return expandNestedJSON(nestedData)
			}
		}
		return v
	default:
		return v
	}
}

// isJSONString checks if a string appears to be valid JSON by examining
// its delimiters after trimming whitespace.
func isJSONString(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) == 0 {
		return false
	}
	return (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"))
}

// ProjectArray applies a JSONPath expression to each element of a JSON
// array and returns the matches as a pretty-printed JSON array. Elements
// that do not match the expression are skipped rather than failing the
// whole projection.
func ProjectArray(jsonArray, path string) (string, error) {
	var elems []interface{}
	if err := json.Unmarshal([]byte(jsonArray), &elems); err != nil {
		return "", fmt.Errorf("invalid JSON array: %w", err)
	}

	projected := make([]interface{}, 0, len(elems))
	for _, elem := range elems {
		v, err := jsonpath.JsonPathLookup(elem, path)
		if err != nil {
			continue
		}
		projected = append(projected, v)
	}

	out, err := json.MarshalIndent(projected, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
