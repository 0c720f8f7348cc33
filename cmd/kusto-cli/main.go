package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"kusto-mcp/internal/auth"
	"kusto-mcp/internal/command"
	"kusto-mcp/internal/config"
	"kusto-mcp/internal/kusto"
	"kusto-mcp/internal/repl"
)

const helpText = `kusto-cli - Interactive KQL command-line tool for Azure Data Explorer

USAGE:
    kusto-cli [OPTIONS]

OPTIONS:
    --clusters <path>        Path to cluster configuration file (json)
    --cluster <name>         Cluster to start on (default: first configured)
    --database <name>        Database to start on (default: cluster default)
    --auth <order>           Comma-separated credential strategies
                             (default, cli, browser, devicecode)
    --query <kql>            Execute one query and exit
    --export-file <file>     With --query: write the result to a CSV file
    --help                   Show this help message

EXAMPLES:
    # Start interactive mode against the configured clusters
    kusto-cli

    # One-shot query against a named cluster
    kusto-cli --cluster samples --query "StormEvents | take 5"

    # Export query results to CSV
    kusto-cli --query "StormEvents | take 100" --export-file events.csv
`

func main() {
	var (
		clustersPath = flag.String("clusters", "", "Path to cluster configuration file")
		clusterName  = flag.String("cluster", "", "Cluster to start on")
		database     = flag.String("database", "", "Database to start on")
		authOrder    = flag.String("auth", "", "Comma-separated credential strategy order")
		query        = flag.String("query", "", "Execute one query and exit")
		exportFile   = flag.String("export-file", "", "Write one-shot query result to a CSV file")
		showHelp     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *showHelp {
		fmt.Print(helpText)
		return
	}

	registry, err := config.LoadClusters(*clustersPath)
	if err != nil {
		log.Fatalf("Failed to load cluster configuration: %v", err)
	}

	order := auth.DefaultOrder
	if *authOrder != "" {
		order = strings.Split(*authOrder, ",")
	}
	chain := auth.Initialize(context.Background(), order)
	if !chain.Ready() {
		log.Print("Warning: not authenticated; queries will fail until credentials are available")
	}
	pool := kusto.NewPool(chain)

	if *query != "" {
		runOnce(registry, pool, *clusterName, *database, *query, *exportFile)
		return
	}

	repl.Start(registry, pool, *clusterName, *database)
}

func runOnce(registry *config.Registry, pool *kusto.Pool, cluster, database, query, exportFile string) {
	c, err := registry.Resolve(cluster)
	if err != nil {
		log.Fatalf("Cannot resolve cluster: %v", err)
	}
	db := database
	if db == "" {
		db = c.Database
	}
	handler := &command.Handler{
		Registry: registry,
		Clients:  pool,
		State:    &command.ReplState{CurrentCluster: c.Name, CurrentDatabase: db},
	}
	handler.Execute(query)
	if exportFile != "" {
		handler.Execute("export " + exportFile)
	}
}
