package kusto

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kusto-mcp/internal/auth"
	"kusto-mcp/internal/config"
)

type stubExecutor struct {
	name string
}

func (s *stubExecutor) Execute(ctx context.Context, database, query string) (*QueryResult, error) {
	return &QueryResult{}, nil
}

func TestQueryErrorMessage(t *testing.T) {
	cause := errors.New("Request is invalid")
	err := &QueryError{
		Cluster:  "samples",
		Database: "Samples",
		Query:    "BadTable | take 5",
		Err:      cause,
	}

	assert.Equal(t, "Kusto query error on cluster 'samples': Request is invalid", err.Error())
	assert.ErrorIs(t, err, cause)

	var qerr *QueryError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &qerr))
}

func TestPoolCachesPerCluster(t *testing.T) {
	pool := NewPool(&auth.Chain{})
	created := 0
	pool.factory = func(c config.ClusterConfig) (Executor, error) {
		created++
		return &stubExecutor{name: c.Name}, nil
	}

	prod := config.ClusterConfig{Name: "prod", URL: "https://prod.kusto.windows.net", Database: "Ops"}
	samples := config.ClusterConfig{Name: "samples", URL: "https://help.kusto.windows.net", Database: "Samples"}

	e1, err := pool.Get(prod)
	require.NoError(t, err)
	e2, err := pool.Get(prod)
	require.NoError(t, err)
	assert.Same(t, e1, e2, "repeated Get for one cluster must reuse the client")
	assert.Equal(t, 1, created)

	e3, err := pool.Get(samples)
	require.NoError(t, err)
	assert.NotSame(t, e1, e3)
	assert.Equal(t, 2, created)
}

func TestPoolFactoryErrorNotCached(t *testing.T) {
	pool := NewPool(&auth.Chain{})
	attempts := 0
	pool.factory = func(c config.ClusterConfig) (Executor, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient")
		}
		return &stubExecutor{name: c.Name}, nil
	}

	c := config.ClusterConfig{Name: "prod", URL: "https://prod.kusto.windows.net"}
	_, err := pool.Get(c)
	require.Error(t, err)

	e, err := pool.Get(c)
	require.NoError(t, err)
	assert.NotNil(t, e)
	assert.Equal(t, 2, attempts)
}

func TestPoolNotReadyChain(t *testing.T) {
	pool := NewPool(&auth.Chain{})

	_, err := pool.Get(config.ClusterConfig{Name: "prod", URL: "https://prod.kusto.windows.net"})
	assert.ErrorIs(t, err, auth.ErrNotReady)
}
