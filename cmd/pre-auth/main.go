// pre-auth exercises the credential chain interactively so that later
// server starts can authenticate silently from the cached credentials.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"kusto-mcp/internal/auth"
)

func main() {
	var authOrder = flag.String("auth", "browser,devicecode", "Comma-separated credential strategy order")
	flag.Parse()

	fmt.Println("Authenticating against the Kusto scope...")
	fmt.Printf("Scope: %s\n", auth.Scope)

	chain := auth.Initialize(context.Background(), strings.Split(*authOrder, ","))
	if !chain.Ready() {
		log.Print("Authentication failed for every strategy")
		os.Exit(1)
	}

	token, err := chain.Token(context.Background())
	if err != nil {
		log.Fatalf("Token acquisition failed: %v", err)
	}

	fmt.Printf("Authenticated using the %s credential.\n", chain.Strategy())
	fmt.Printf("Token expires: %s (in %s)\n",
		token.ExpiresOn.Format(time.RFC3339),
		time.Until(token.ExpiresOn).Round(time.Second))
	fmt.Println("You can now start the MCP server; it will reuse the cached credentials.")
}
