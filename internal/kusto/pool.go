package kusto

import (
	"log"
	"sync"

	"kusto-mcp/internal/auth"
	"kusto-mcp/internal/config"
)

// Pool lazily creates and caches one query client per cluster name for
// the lifetime of the process. Creation is mutex-guarded; the cached
// client is reused by every subsequent request for that cluster.
type Pool struct {
	chain *auth.Chain

	mu      sync.Mutex
	clients map[string]Executor
	factory func(config.ClusterConfig) (Executor, error)
}

// NewPool returns a pool that builds clients over the given credential
// chain.
func NewPool(chain *auth.Chain) *Pool {
	p := &Pool{
		chain:   chain,
		clients: make(map[string]Executor),
	}
	p.factory = p.newClient
	return p
}

func (p *Pool) newClient(c config.ClusterConfig) (Executor, error) {
	cred, err := p.chain.Credential()
	if err != nil {
		return nil, err
	}
	return NewClient(c.Name, c.URL, cred)
}

// Get returns the executor for the cluster, creating it on first use.
// When the credential chain is not ready this fails with auth.ErrNotReady.
func (p *Pool) Get(c config.ClusterConfig) (Executor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.clients[c.Name]; ok {
		return e, nil
	}
	e, err := p.factory(c)
	if err != nil {
		return nil, err
	}
	p.clients[c.Name] = e
	log.Printf("Created Kusto client for cluster: %s (%s)", c.Name, c.URL)
	return e, nil
}
