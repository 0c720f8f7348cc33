// Package repl provides the interactive prompt for the Kusto CLI.
//
// Exit handling is thread-safe and uses os.Exit() instead of panic() to
// avoid conflicts with go-prompt's internal signal handling.
package repl

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	prompt "github.com/c-bata/go-prompt"

	"kusto-mcp/internal/command"
	"kusto-mcp/internal/config"
)

var (
	exiting   = false
	exitMutex sync.Mutex
)

// Start runs the interactive prompt until the user exits. cluster and
// database select the starting target; empty values fall back to the
// first configured cluster and its default database.
func Start(registry *config.Registry, clients command.ClientProvider, cluster, database string) {
	c, err := registry.Resolve(cluster)
	if err != nil {
		fmt.Printf("Cannot start: %v\n", err)
		return
	}
	if database == "" {
		database = c.Database
	}
	state := &command.ReplState{CurrentCluster: c.Name, CurrentDatabase: database}
	handler := &command.Handler{Registry: registry, Clients: clients, State: state}

	fmt.Println("Welcome to kusto-cli.")
	fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to exit.")
	fmt.Println("Any other input is executed as a KQL query.")

	p := prompt.New(
		func(in string) {
			if !handler.Execute(in) {
				exitMutex.Lock()
				if exiting {
					exitMutex.Unlock()
					return
				}
				exiting = true
				exitMutex.Unlock()

				fmt.Println("Bye.")
				if isWSL() {
					fixWSLTerminal()
				}
				// os.Exit instead of panic to avoid go-prompt's signal
				// handler conflicts.
				os.Exit(0)
			}
		},
		completer,
		prompt.OptionLivePrefix(func() (string, bool) {
			return fmt.Sprintf("%s[%s]> ", state.CurrentCluster, state.CurrentDatabase), true
		}),
	)

	p.Run()
}

func completer(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "clusters", Description: "List configured clusters"},
		{Text: "use", Description: "Switch active cluster"},
		{Text: "db", Description: "Switch active database"},
		{Text: "tables", Description: "List tables in the active database"},
		{Text: "schema", Description: "Show a table's schema"},
		{Text: "ticks", Description: "Convert .NET ticks <-> datetime"},
		{Text: "export", Description: "Export last result to CSV"},
		{Text: "help", Description: "Show help"},
		{Text: "exit", Description: "Exit the CLI"},
		{Text: "quit", Description: "Exit the CLI"},
		// Common KQL operators for query entry.
		{Text: "summarize", Description: "KQL: aggregate rows"},
		{Text: "project", Description: "KQL: select columns"},
		{Text: "where", Description: "KQL: filter rows"},
		{Text: "take", Description: "KQL: limit rows"},
		{Text: "order by", Description: "KQL: sort rows"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

// isWSL checks if we're running in Windows Subsystem for Linux, where
// go-prompt can leave the terminal without input echo on exit.
func isWSL() bool {
	return os.Getenv("WSL_DISTRO_NAME") != "" || os.Getenv("WSLENV") != ""
}

// fixWSLTerminal restores terminal input visibility for WSL.
func fixWSLTerminal() {
	cmd := exec.Command("reset")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	_ = cmd.Run()
}
