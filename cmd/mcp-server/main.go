package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"kusto-mcp/internal/auth"
	"kusto-mcp/internal/config"
	"kusto-mcp/internal/kusto"
	mcpserver "kusto-mcp/internal/mcp"
)

func main() {
	// Command line flags
	var (
		configPath   = flag.String("config", "", "Path to server configuration file (yaml/json)")
		clustersPath = flag.String("clusters", "", "Path to cluster configuration file (json)")
		authOrder    = flag.String("auth", "", "Comma-separated credential strategy order (default, cli, browser, devicecode)")
		logFile      = flag.String("log-file", "", "Write logs to this file instead of stderr")
	)
	flag.Parse()

	// Load or create default configuration
	var cfg *mcpserver.Config
	var err error

	if *configPath != "" {
		cfg, err = mcpserver.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	} else {
		cfg = mcpserver.DefaultConfig()
	}
	if *authOrder != "" {
		cfg.AuthOrder = strings.Split(*authOrder, ",")
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Stdout carries the MCP transport, so logs go to stderr or a file.
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	registry, err := config.LoadClusters(*clustersPath)
	if err != nil {
		log.Fatalf("Failed to load cluster configuration: %v", err)
	}
	log.Printf("Configured clusters: %v", registry.Names())

	// One-shot blocking credential acquisition. Failure is non-fatal:
	// the server starts degraded and queries report the auth error.
	chain := auth.Initialize(context.Background(), cfg.AuthOrder)
	pool := kusto.NewPool(chain)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithInstructions(instructions(registry)),
	)

	// Create and register tool manager
	toolManager := mcpserver.NewToolManager(registry, pool, cfg)
	if err := toolManager.RegisterTools(mcpServer); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	// Create and register resource manager
	if cfg.EnableResources {
		resourceManager := mcpserver.NewResourceManager(registry, pool)
		if err := resourceManager.RegisterResources(mcpServer); err != nil {
			log.Fatalf("Failed to register resources: %v", err)
		}
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		// For stdio mode, the server handles shutdown internally.
	}()

	log.Print("Starting Kusto MCP server on stdio...")
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("STDIO server error: %v", err)
	}

	log.Println("MCP server shutdown complete")
}

// instructions describes the configured clusters to the connecting agent.
func instructions(registry *config.Registry) string {
	var b strings.Builder
	b.WriteString("You are connected to a Kusto (Azure Data Explorer) MCP server.\n\nConfigured clusters:\n")
	for _, name := range registry.Names() {
		c, _ := registry.Resolve(name)
		fmt.Fprintf(&b, "- %s: %s (default database: %s)\n", name, c.URL, c.Database)
	}
	b.WriteString(`
Available tools allow you to:
- Execute arbitrary KQL queries (execute_kql)
- Inspect a table's schema (get_table_schema)
- List tables in a database (list_tables)
- Run canned analysis queries over a table (analyze_data)

Resources expose per-cluster table and function listings as JSON.
All access is read-oriented; results are capped by the limit argument.`)
	return b.String()
}
