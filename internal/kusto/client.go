package kusto

import (
	"context"
	"strings"

	kustosdk "github.com/Azure/azure-kusto-go/kusto"
	kustoerrors "github.com/Azure/azure-kusto-go/kusto/data/errors"
	"github.com/Azure/azure-kusto-go/kusto/data/table"
	"github.com/Azure/azure-kusto-go/kusto/unsafe"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// Queries arrive as strings from the MCP host, so they cannot go through
// the SDK's compile-time constant Stmt API.
var unsafeStmt = kustosdk.UnsafeStmt(unsafe.Stmt{Add: true, SuppressWarning: true})

// Client executes KQL against a single cluster endpoint.
type Client struct {
	cluster string
	inner   *kustosdk.Client
}

// NewClient connects to the given cluster endpoint using the provided
// token credential.
func NewClient(cluster, endpoint string, cred azcore.TokenCredential) (*Client, error) {
	kcsb := kustosdk.NewConnectionStringBuilder(endpoint)
	kcsb = kcsb.WithTokenCredential(cred)
	inner, err := kustosdk.New(kcsb)
	if err != nil {
		return nil, err
	}
	return &Client{cluster: cluster, inner: inner}, nil
}

// Execute runs the query and collects its primary result set. Management
// commands (leading dot) are routed to the management endpoint.
func (c *Client) Execute(ctx context.Context, database, query string) (*QueryResult, error) {
	stmt := kustosdk.NewStmt("", unsafeStmt).UnsafeAdd(query)

	var (
		iter *kustosdk.RowIterator
		err  error
	)
	if strings.HasPrefix(strings.TrimSpace(query), ".") {
		iter, err = c.inner.Mgmt(ctx, database, stmt)
	} else {
		iter, err = c.inner.Query(ctx, database, stmt)
	}
	if err != nil {
		return nil, &QueryError{Cluster: c.cluster, Database: database, Query: query, Err: err}
	}
	defer iter.Stop()

	result := &QueryResult{}
	err = iter.DoOnRowOrError(func(row *table.Row, e *kustoerrors.Error) error {
		if e != nil {
			return e
		}
		if len(result.Columns) == 0 {
			for _, col := range row.ColumnTypes {
				result.Columns = append(result.Columns, col.Name)
			}
		}
		cells := make([]*string, len(row.Values))
		for i, v := range row.Values {
			if v == nil {
				continue
			}
			s := v.String()
			cells[i] = &s
		}
		result.Rows = append(result.Rows, cells)
		return nil
	})
	if err != nil {
		return nil, &QueryError{Cluster: c.cluster, Database: database, Query: query, Err: err}
	}
	return result, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.inner.Close()
}
