package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"kusto-mcp/internal/config"
	"kusto-mcp/internal/jsonutil"
	"kusto-mcp/internal/kusto"
)

// ClientProvider yields the query executor for a resolved cluster.
type ClientProvider interface {
	Get(config.ClusterConfig) (kusto.Executor, error)
}

// Default and schema-enforced row limits for query tools.
const (
	defaultQueryLimit   = 100
	defaultAnalyzeLimit = 1000
	maxLimit            = 10000
)

// ToolManager maps MCP tool calls onto Kusto operations.
type ToolManager struct {
	registry *config.Registry
	clients  ClientProvider
	config   *Config
}

// NewToolManager creates a new tool manager.
func NewToolManager(registry *config.Registry, clients ClientProvider, cfg *Config) *ToolManager {
	return &ToolManager{
		registry: registry,
		clients:  clients,
		config:   cfg,
	}
}

// RegisterTools registers all available tools with the MCP server.
func (tm *ToolManager) RegisterTools(s *server.MCPServer) error {
	clusterDesc := fmt.Sprintf("Kusto cluster name. Available: %v", tm.registry.Names())

	executeKQL := mcplib.NewTool("execute_kql",
		mcplib.WithDescription("Execute a KQL (Kusto Query Language) query against a Kusto cluster"),
		mcplib.WithString("cluster",
			mcplib.Description(clusterDesc),
		),
		mcplib.WithString("database",
			mcplib.Description("Database name (optional, uses configured default)"),
		),
		mcplib.WithString("query",
			mcplib.Required(),
			mcplib.Description("KQL query to execute"),
		),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of rows to return"),
			mcplib.DefaultNumber(defaultQueryLimit),
			mcplib.Max(maxLimit),
		),
		mcplib.WithString("jsonpath",
			mcplib.Description("Optional JSONPath expression applied to each result record (e.g. $.TableName)"),
		),
	)
	s.AddTool(executeKQL, tm.handler("execute_kql"))

	getTableSchema := mcplib.NewTool("get_table_schema",
		mcplib.WithDescription("Get the schema/structure of a specific table in Kusto"),
		mcplib.WithString("cluster",
			mcplib.Description(clusterDesc),
		),
		mcplib.WithString("database",
			mcplib.Description("Database name (optional, uses configured default)"),
		),
		mcplib.WithString("table",
			mcplib.Required(),
			mcplib.Description("Table name to get schema for"),
		),
	)
	s.AddTool(getTableSchema, tm.handler("get_table_schema"))

	listTables := mcplib.NewTool("list_tables",
		mcplib.WithDescription("List all tables available in a Kusto database"),
		mcplib.WithString("cluster",
			mcplib.Description(clusterDesc),
		),
		mcplib.WithString("database",
			mcplib.Description("Database name (optional, uses configured default)"),
		),
	)
	s.AddTool(listTables, tm.handler("list_tables"))

	analyzeData := mcplib.NewTool("analyze_data",
		mcplib.WithDescription("Analyze data trends and patterns using KQL queries with automatic insights"),
		mcplib.WithString("cluster",
			mcplib.Description(clusterDesc),
		),
		mcplib.WithString("database",
			mcplib.Description("Database name (optional, uses configured default)"),
		),
		mcplib.WithString("table",
			mcplib.Required(),
			mcplib.Description("Table name to analyze"),
		),
		mcplib.WithString("analysis_type",
			mcplib.Description("Type of analysis to perform"),
			mcplib.Enum("summary", "trends", "anomalies", "patterns"),
			mcplib.DefaultString("summary"),
		),
		mcplib.WithString("time_column",
			mcplib.Description("Name of datetime column for time-based analysis (optional)"),
		),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of rows to analyze"),
			mcplib.DefaultNumber(defaultAnalyzeLimit),
			mcplib.Max(maxLimit),
		),
	)
	s.AddTool(analyzeData, tm.handler("analyze_data"))

	return nil
}

// handler adapts Dispatch to the mcp-go tool handler signature.
func (tm *ToolManager) handler(name string) func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		return tm.Dispatch(ctx, name, request.GetArguments()), nil
	}
}

// Dispatch routes a tool name and argument bag to the matching operation.
// Every failure is rendered into the text payload; the tool call itself
// never surfaces a protocol fault.
func (tm *ToolManager) Dispatch(ctx context.Context, name string, args map[string]any) *mcplib.CallToolResult {
	text, err := tm.dispatch(ctx, name, args)
	if err != nil {
		log.Printf("Error executing tool %s: %v", name, err)
		return mcplib.NewToolResultText(fmt.Sprintf("Error executing %s: %v", name, err))
	}
	return mcplib.NewToolResultText(text)
}

func (tm *ToolManager) dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "execute_kql":
		return tm.executeKQL(ctx, args)
	case "get_table_schema":
		return tm.getTableSchema(ctx, args)
	case "list_tables":
		return tm.listTables(ctx, args)
	case "analyze_data":
		return tm.analyzeData(ctx, args)
	default:
		return "", fmt.Errorf("Unknown tool: %s", name)
	}
}

// resolveTarget applies the shared cluster and database resolution rules:
// explicit cluster argument, else first registered; explicit database
// argument, else the cluster's configured default.
func (tm *ToolManager) resolveTarget(args map[string]any) (config.ClusterConfig, string, error) {
	name, _ := stringArg(args, "cluster")
	c, err := tm.registry.Resolve(name)
	if err != nil {
		return config.ClusterConfig{}, "", err
	}
	database, _ := stringArg(args, "database")
	if database == "" {
		database = c.Database
	}
	return c, database, nil
}

// run logs the resolved query and executes it on the target cluster.
func (tm *ToolManager) run(ctx context.Context, c config.ClusterConfig, database, query string) (*kusto.QueryResult, error) {
	log.Printf("Executing query on %s/%s: %s", c.Name, database, query)
	client, err := tm.clients.Get(c)
	if err != nil {
		return nil, err
	}
	return client.Execute(ctx, database, query)
}

// hasRowLimit reports whether the query already contains a row-limiting
// clause. The check is a case-insensitive substring match, same as the
// schema tools expect.
func hasRowLimit(query string) bool {
	lower := strings.ToLower(query)
	return strings.Contains(lower, "limit") || strings.Contains(lower, "take")
}

func (tm *ToolManager) executeKQL(ctx context.Context, args map[string]any) (string, error) {
	c, database, err := tm.resolveTarget(args)
	if err != nil {
		return "", err
	}
	query, ok := stringArg(args, "query")
	if !ok || query == "" {
		return "", errors.New("query is required")
	}
	limit := intArg(args, "limit", defaultQueryLimit)
	if !hasRowLimit(query) {
		query = fmt.Sprintf("%s | limit %d", query, limit)
	}

	result, err := tm.run(ctx, c, database, query)
	if err != nil {
		var qerr *kusto.QueryError
		if errors.As(err, &qerr) {
			log.Print(qerr.Error())
			return qerr.Error(), nil
		}
		return "", err
	}

	records := Normalize(result)
	rendered, err := MarshalRecords(records)
	if err != nil {
		return "", err
	}
	if path, ok := stringArg(args, "jsonpath"); ok && path != "" {
		rendered, err = jsonutil.ProjectArray(rendered, path)
		if err != nil {
			return "", err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query executed successfully on cluster '%s', database '%s'.\n", c.Name, database)
	fmt.Fprintf(&b, "Returned %d rows.\n\n", len(records))
	fmt.Fprintf(&b, "Query: %s\n\n", query)
	b.WriteString("Results:\n")
	b.WriteString(rendered)
	return b.String(), nil
}

func (tm *ToolManager) getTableSchema(ctx context.Context, args map[string]any) (string, error) {
	c, database, err := tm.resolveTarget(args)
	if err != nil {
		return "", err
	}
	table, ok := stringArg(args, "table")
	if !ok || table == "" {
		return "", errors.New("table is required")
	}
	query := fmt.Sprintf(".show table %s schema as json", table)

	result, err := tm.run(ctx, c, database, query)
	if err != nil {
		var qerr *kusto.QueryError
		if errors.As(err, &qerr) {
			msg := fmt.Sprintf("Error getting table schema: %v", qerr.Err)
			log.Print(msg)
			return msg, nil
		}
		return "", err
	}

	rendered, err := MarshalRecords(Normalize(result))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Schema for table '%s' in cluster '%s', database '%s':\n\n%s",
		table, c.Name, database, rendered), nil
}

func (tm *ToolManager) listTables(ctx context.Context, args map[string]any) (string, error) {
	c, database, err := tm.resolveTarget(args)
	if err != nil {
		return "", err
	}
	query := ".show tables | project TableName"

	result, err := tm.run(ctx, c, database, query)
	if err != nil {
		var qerr *kusto.QueryError
		if errors.As(err, &qerr) {
			msg := fmt.Sprintf("Error listing tables: %v", qerr.Err)
			log.Print(msg)
			return msg, nil
		}
		return "", err
	}

	rendered, err := MarshalRecords(Normalize(result))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Tables in cluster '%s', database '%s':\n\n%s", c.Name, database, rendered), nil
}

// analysisQuery selects the query template for an analysis type. There is
// no statistical routine behind any of these; they are templates only,
// and unknown combinations fall back to a plain row count.
func analysisQuery(table, analysisType, timeColumn string, limit int) string {
	switch {
	case analysisType == "summary":
		return fmt.Sprintf("%s | summarize count() by bin(now(), 1d) | limit %d", table, limit)
	case analysisType == "trends" && timeColumn != "":
		return fmt.Sprintf("%s | summarize count() by bin(%s, 1h) | order by %s desc | limit %d",
			table, timeColumn, timeColumn, limit)
	case analysisType == "patterns":
		return fmt.Sprintf("%s | take %d | evaluate bag_unpack(dynamic({})) | getschema", table, limit)
	default:
		return fmt.Sprintf("%s | take %d | summarize count()", table, limit)
	}
}

func (tm *ToolManager) analyzeData(ctx context.Context, args map[string]any) (string, error) {
	c, database, err := tm.resolveTarget(args)
	if err != nil {
		return "", err
	}
	table, ok := stringArg(args, "table")
	if !ok || table == "" {
		return "", errors.New("table is required")
	}
	analysisType, ok := stringArg(args, "analysis_type")
	if !ok || analysisType == "" {
		analysisType = "summary"
	}
	timeColumn, _ := stringArg(args, "time_column")
	limit := intArg(args, "limit", defaultAnalyzeLimit)

	query := analysisQuery(table, analysisType, timeColumn, limit)

	result, err := tm.run(ctx, c, database, query)
	if err != nil {
		var qerr *kusto.QueryError
		if errors.As(err, &qerr) {
			msg := fmt.Sprintf("Error analyzing data: %v", qerr.Err)
			log.Print(msg)
			return msg, nil
		}
		return "", err
	}

	rendered, err := MarshalRecords(Normalize(result))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Data analysis for table '%s' (type: %s):\n\n", table, analysisType)
	fmt.Fprintf(&b, "Query executed: %s\n\n", query)
	b.WriteString("Analysis Results:\n")
	b.WriteString(rendered)
	return b.String(), nil
}

// stringArg extracts a named string argument from a tool argument bag.
func stringArg(args map[string]any, name string) (string, bool) {
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts a named int argument. JSON numbers arrive as float64.
func intArg(args map[string]any, name string, defaultVal int) int {
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}
