// Package command implements the interactive shell commands of the Kusto
// CLI. Anything that is not a built-in command is executed as a raw KQL
// query against the active cluster and database.
package command

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"kusto-mcp/internal/config"
	"kusto-mcp/internal/jsonutil"
	"kusto-mcp/internal/kusto"
	"kusto-mcp/internal/mcp"
	"kusto-mcp/internal/util"
)

// ReplState tracks the active cluster and database between commands.
type ReplState struct {
	CurrentCluster  string
	CurrentDatabase string
}

// ClientProvider yields the query executor for a resolved cluster.
type ClientProvider interface {
	Get(config.ClusterConfig) (kusto.Executor, error)
}

// Handler executes REPL input lines.
type Handler struct {
	Registry *config.Registry
	Clients  ClientProvider
	State    *ReplState

	lastResult *kusto.QueryResult
}

// Execute runs one input line. It returns false when the REPL should
// exit.
func (h *Handler) Execute(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	switch cmd {
	case "exit", "quit":
		return false
	case "help":
		h.printHelp()
	case "clusters":
		for _, name := range h.Registry.Names() {
			marker := "  "
			if name == h.State.CurrentCluster {
				marker = "* "
			}
			c, _ := h.Registry.Resolve(name)
			fmt.Printf("%s%s (%s, database: %s)\n", marker, name, c.URL, c.Database)
		}
	case "use":
		if len(parts) != 2 {
			fmt.Println("Usage: use <cluster>")
			return true
		}
		c, err := h.Registry.Resolve(parts[1])
		if err != nil {
			fmt.Printf("Switch failed: %v\n", err)
			return true
		}
		h.State.CurrentCluster = c.Name
		h.State.CurrentDatabase = c.Database
		fmt.Printf("Switched to cluster: %s (database: %s)\n", c.Name, c.Database)
	case "db":
		if len(parts) != 2 {
			fmt.Println("Usage: db <database>")
			return true
		}
		h.State.CurrentDatabase = parts[1]
		fmt.Printf("Switched to database: %s\n", parts[1])
	case "tables":
		h.runQuery(".show tables | project TableName")
	case "schema":
		if len(parts) != 2 {
			fmt.Println("Usage: schema <table>")
			return true
		}
		h.runQuery(fmt.Sprintf(".show table %s schema as json", parts[1]))
	case "ticks":
		if len(parts) != 2 {
			fmt.Println("Usage: ticks <value>  (decimal ticks or RFC3339 datetime)")
			return true
		}
		h.convertTicks(parts[1])
	case "export":
		if len(parts) != 2 {
			fmt.Println("Usage: export <file>")
			return true
		}
		if err := h.exportCSV(parts[1]); err != nil {
			fmt.Printf("Export failed: %v\n", err)
		} else {
			fmt.Printf("Exported last result to %s\n", parts[1])
		}
	default:
		// Not a built-in: treat the whole line as KQL.
		h.runQuery(input)
	}
	return true
}

func (h *Handler) runQuery(query string) {
	c, err := h.Registry.Resolve(h.State.CurrentCluster)
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		return
	}
	database := h.State.CurrentDatabase
	if database == "" {
		database = c.Database
	}

	client, err := h.Clients.Get(c)
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		return
	}
	result, err := client.Execute(context.Background(), database, query)
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		return
	}
	h.lastResult = result

	records := mcp.Normalize(result)
	rendered, err := mcp.MarshalRecords(records)
	if err != nil {
		fmt.Printf("Failed to render results: %v\n", err)
		return
	}
	fmt.Println(jsonutil.PrettyPrintWithNestedExpansion(rendered))
	fmt.Printf("(%d rows)\n", len(records))
}

func (h *Handler) convertTicks(value string) {
	if ticks, err := util.ParseTicks(value); err == nil {
		fmt.Printf("%d -> %s\n", ticks, util.TicksToTime(ticks).Format(time.RFC3339Nano))
		return
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		fmt.Printf("Not a ticks value or RFC3339 datetime: %s\n", value)
		return
	}
	fmt.Printf("%s -> %d\n", t.Format(time.RFC3339Nano), util.TimeToTicks(t))
}

// exportCSV writes the last result set to a CSV file, header first. Null
// cells become empty fields.
func (h *Handler) exportCSV(path string) error {
	if h.lastResult == nil {
		return fmt.Errorf("no query result to export")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(h.lastResult.Columns); err != nil {
		return err
	}
	for _, row := range h.lastResult.Rows {
		fields := make([]string, len(h.lastResult.Columns))
		for i := range fields {
			if i < len(row) && row[i] != nil {
				fields[i] = *row[i]
			}
		}
		if err := w.Write(fields); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (h *Handler) printHelp() {
	fmt.Println(`Commands:
    clusters                 List configured clusters
    use <cluster>            Switch active cluster
    db <database>            Switch active database
    tables                   List tables in the active database
    schema <table>           Show a table's schema
    ticks <value>            Convert .NET ticks <-> RFC3339 datetime
    export <file>            Export the last result set to CSV
    help                     Show this help
    exit/quit                Exit the CLI

Anything else is executed as a KQL query against the active cluster.`)
}
