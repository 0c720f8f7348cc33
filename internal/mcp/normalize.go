package mcp

import (
	"bytes"
	"encoding/json"

	"kusto-mcp/internal/kusto"
)

// Record is one normalized result row, keyed by column name. The column
// order of the source result set is preserved in the JSON encoding, and
// null cells stay null.
type Record struct {
	columns []string
	values  map[string]*string
}

// Get returns the cell for the named column. The bool reports whether the
// column is present in this record; a present column may still hold nil.
func (r Record) Get(column string) (*string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// MarshalJSON encodes the record as a JSON object with keys in column
// order. encoding/json maps would randomize key order, so this is done by
// hand.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if v := r.values[col]; v != nil {
			val, err := json.Marshal(*v)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Normalize flattens the primary result set into ordered records, one per
// row. A missing or empty result set yields an empty slice, not an error.
// Rows shorter than the column list omit the trailing columns.
func Normalize(result *kusto.QueryResult) []Record {
	if result == nil || len(result.Columns) == 0 {
		return []Record{}
	}
	records := make([]Record, 0, len(result.Rows))
	for _, row := range result.Rows {
		rec := Record{values: make(map[string]*string, len(result.Columns))}
		for i, col := range result.Columns {
			if i < len(row) {
				rec.columns = append(rec.columns, col)
				rec.values[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}

// MarshalRecords renders records as a pretty-printed JSON array. This is
// the exact payload shape shared by all tools and resources.
func MarshalRecords(records []Record) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
