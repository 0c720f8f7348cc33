// Package kusto wraps query execution against Azure Data Explorer
// clusters behind a narrow Executor interface, with one cached client
// per cluster.
package kusto

import (
	"context"
	"fmt"
)

// QueryResult is the primary result set of one query execution. Row
// values are positionally aligned with Columns; a nil cell is a null.
type QueryResult struct {
	Columns []string
	Rows    [][]*string
}

// Executor runs a query string against one database.
type Executor interface {
	Execute(ctx context.Context, database, query string) (*QueryResult, error)
}

// QueryError wraps an upstream Kusto failure together with the execution
// context needed for diagnostics.
type QueryError struct {
	Cluster  string
	Database string
	Query    string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("Kusto query error on cluster '%s': %v", e.Cluster, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
