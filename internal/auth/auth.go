// Package auth acquires Azure AD tokens for Kusto through an ordered
// chain of credential strategies. The first strategy that can produce a
// token wins and is kept for the lifetime of the process; token refresh
// is handled by the underlying SDK credential.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Scope is the Kusto resource scope tokens are requested for.
const Scope = "https://kusto.kusto.windows.net/.default"

// Credential strategy names accepted in the auth order configuration.
const (
	StrategyDefault    = "default"
	StrategyCLI        = "cli"
	StrategyBrowser    = "browser"
	StrategyDeviceCode = "devicecode"
)

// ErrNotReady is returned when no credential strategy succeeded at
// startup. The server keeps running; operations that need a token fail
// with this error until the process is restarted.
var ErrNotReady = errors.New("authentication not initialized, please restart the server")

// DefaultOrder is the strategy preference used when none is configured:
// silent credentials first, interactive browser as the last resort.
var DefaultOrder = []string{StrategyDefault, StrategyBrowser}

// Chain holds the credential selected at startup, if any.
type Chain struct {
	cred     azcore.TokenCredential
	strategy string
}

type credentialFactory func(name string) (azcore.TokenCredential, error)

func newCredential(name string) (azcore.TokenCredential, error) {
	switch name {
	case StrategyDefault:
		return azidentity.NewDefaultAzureCredential(nil)
	case StrategyCLI:
		return azidentity.NewAzureCLICredential(nil)
	case StrategyBrowser:
		return azidentity.NewInteractiveBrowserCredential(nil)
	case StrategyDeviceCode:
		return azidentity.NewDeviceCodeCredential(nil)
	default:
		return nil, fmt.Errorf("unknown credential strategy: %s", name)
	}
}

// Initialize tries each strategy in order and returns a Chain holding the
// first credential that produced a token. Failure of every strategy is
// non-fatal: the returned chain is simply not ready.
func Initialize(ctx context.Context, order []string) *Chain {
	return initialize(ctx, order, newCredential)
}

func initialize(ctx context.Context, order []string, factory credentialFactory) *Chain {
	if len(order) == 0 {
		order = DefaultOrder
	}
	for _, name := range order {
		cred, err := factory(name)
		if err != nil {
			log.Printf("%s credential unavailable: %v", name, err)
			continue
		}
		// Probe the credential so a broken strategy is skipped now
		// rather than on the first query.
		token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
		if err != nil {
			log.Printf("%s authentication failed: %v", name, err)
			continue
		}
		log.Printf("Authenticated using %s credential, token expires: %s", name, token.ExpiresOn)
		return &Chain{cred: cred, strategy: name}
	}
	log.Print("All authentication methods failed - server will start but queries may fail")
	return &Chain{}
}

// Ready reports whether a credential strategy succeeded at startup.
func (c *Chain) Ready() bool {
	return c.cred != nil
}

// Strategy returns the name of the winning strategy, or "" when the chain
// is not ready.
func (c *Chain) Strategy() string {
	return c.strategy
}

// Credential returns the selected token credential, or ErrNotReady.
func (c *Chain) Credential() (azcore.TokenCredential, error) {
	if c.cred == nil {
		return nil, ErrNotReady
	}
	return c.cred, nil
}

// Token requests a fresh token for the Kusto scope.
func (c *Chain) Token(ctx context.Context) (azcore.AccessToken, error) {
	if c.cred == nil {
		return azcore.AccessToken{}, ErrNotReady
	}
	return c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
}
