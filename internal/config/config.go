// Package config holds the Kusto cluster registry and its loading rules.
//
// Clusters can come from a JSON config file, from environment variables,
// or from a built-in fallback pointing at the public samples cluster. The
// registry is built once at startup and is immutable afterwards.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/joho/godotenv"
)

// Environment variables consumed during cluster loading.
const (
	EnvConfigFile  = "KUSTO_CONFIG_FILE"
	EnvClusterURL  = "KUSTO_CLUSTER_URL"
	EnvClusterName = "KUSTO_CLUSTER_NAME"
	EnvDatabase    = "KUSTO_DATABASE"
)

// ErrNotConfigured is returned when resolution is attempted against an
// empty registry.
var ErrNotConfigured = errors.New("no clusters configured")

// ClusterConfig describes one named Kusto cluster endpoint and its
// default database.
type ClusterConfig struct {
	Name     string `json:"-" yaml:"-"`
	URL      string `json:"url" yaml:"url"`
	Database string `json:"database" yaml:"database"`
}

// Registry holds cluster configurations in registration order.
type Registry struct {
	clusters map[string]ClusterConfig
	order    []string
}

// NewRegistry returns an empty cluster registry.
func NewRegistry() *Registry {
	return &Registry{clusters: make(map[string]ClusterConfig)}
}

// Add registers a cluster. Re-adding an existing name overwrites its
// configuration but keeps its original position.
func (r *Registry) Add(name, url, database string) {
	if _, exists := r.clusters[name]; !exists {
		r.order = append(r.order, name)
	}
	r.clusters[name] = ClusterConfig{Name: name, URL: url, Database: database}
}

// Names returns the cluster names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered clusters.
func (r *Registry) Len() int {
	return len(r.order)
}

// Resolve returns the configuration for the named cluster. An empty name
// selects the first registered cluster. An unknown name falls back to the
// first registered cluster with a warning. Resolve fails only when the
// registry is empty.
func (r *Registry) Resolve(name string) (ClusterConfig, error) {
	if len(r.order) == 0 {
		return ClusterConfig{}, ErrNotConfigured
	}
	if name == "" {
		return r.clusters[r.order[0]], nil
	}
	if c, ok := r.clusters[name]; ok {
		return c, nil
	}
	log.Printf("Cluster '%s' not found, using '%s'", name, r.order[0])
	return r.clusters[r.order[0]], nil
}

// clusterFile is the on-disk config shape:
//
//	{"clusters": {"<name>": {"url": "...", "database": "..."}}}
type clusterFile struct {
	Clusters map[string]ClusterConfig `json:"clusters"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnv replaces ${VAR} placeholders with values from the process
// environment. Unset variables are left verbatim.
func substituteEnv(text string) string {
	return envVarPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// discoverConfigFile returns the first existing config file from the
// well-known candidate locations.
func discoverConfigFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".mcp-kusto", "config.json"))
	}
	candidates = append(candidates,
		filepath.Join("config", "config.json"),
		"config.json",
	)
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// LoadClusters builds the cluster registry. Precedence, highest first:
// explicit path, KUSTO_CONFIG_FILE, auto-discovered config files, the
// direct KUSTO_CLUSTER_URL environment override. If nothing yields a
// cluster, the public samples cluster is installed as a fallback so the
// registry is never empty.
func LoadClusters(explicitPath string) (*Registry, error) {
	// Optional .env file; absence is not an error.
	_ = godotenv.Load()

	registry := NewRegistry()

	path := explicitPath
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		path = discoverConfigFile()
	}

	if path != "" {
		if err := loadClusterFile(registry, path); err != nil {
			if explicitPath != "" {
				return nil, err
			}
			log.Printf("Error loading config file %s: %v", path, err)
		} else {
			log.Printf("Loaded config from: %s", path)
		}
	}

	if url := os.Getenv(EnvClusterURL); url != "" {
		name := os.Getenv(EnvClusterName)
		if name == "" {
			name = "default"
		}
		database := os.Getenv(EnvDatabase)
		if database == "" {
			database = "MyDatabase"
		}
		registry.Add(name, url, database)
		log.Printf("Added cluster from environment: %s", name)
	}

	if registry.Len() == 0 {
		registry.Add("samples", "https://help.kusto.windows.net", "Samples")
		log.Print("Using default samples cluster configuration")
	}

	return registry, nil
}

func loadClusterFile(registry *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cf clusterFile
	if err := json.Unmarshal([]byte(substituteEnv(string(data))), &cf); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// JSON objects carry no ordering, so register file entries sorted by
	// name to keep first-registered semantics deterministic.
	names := make([]string, 0, len(cf.Clusters))
	for name := range cf.Clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cf.Clusters[name]
		registry.Add(name, c.URL, c.Database)
	}
	return nil
}
