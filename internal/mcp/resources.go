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
)

const resourceScheme = "kusto://"

// URI parsing failures. Unlike tool calls these are allowed to surface as
// protocol faults, since resource reads have no error-in-content
// convention.
var (
	ErrUnsupportedScheme       = errors.New("unsupported URI scheme")
	ErrInvalidURI              = errors.New("invalid URI format")
	ErrUnsupportedResourceKind = errors.New("unsupported resource type")
)

// introspectionQueries maps a resource kind to its canned query.
var introspectionQueries = map[string]string{
	"tables":    ".show tables | project TableName",
	"functions": ".show functions | project Name, Parameters",
}

// Descriptor describes one listable resource.
type Descriptor struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
}

// ResourceManager exposes per-cluster introspection resources.
type ResourceManager struct {
	registry *config.Registry
	clients  ClientProvider
}

// NewResourceManager creates a new resource manager.
func NewResourceManager(registry *config.Registry, clients ClientProvider) *ResourceManager {
	return &ResourceManager{
		registry: registry,
		clients:  clients,
	}
}

// List generates the resource descriptors fresh on every call: a tables
// and a functions resource for each configured cluster, in registration
// order.
func (rm *ResourceManager) List() []Descriptor {
	var descriptors []Descriptor
	for _, name := range rm.registry.Names() {
		descriptors = append(descriptors,
			Descriptor{
				URI:         resourceScheme + name + "/tables",
				Name:        fmt.Sprintf("Tables in %s", name),
				Description: fmt.Sprintf("List of tables in Kusto cluster %s", name),
				MIMEType:    "application/json",
			},
			Descriptor{
				URI:         resourceScheme + name + "/functions",
				Name:        fmt.Sprintf("Functions in %s", name),
				Description: fmt.Sprintf("List of functions in Kusto cluster %s", name),
				MIMEType:    "application/json",
			},
		)
	}
	return descriptors
}

// Read parses a kusto://{cluster}/{kind} URI, runs the matching
// introspection query against the cluster's default database, and returns
// the normalized JSON array (no summary header).
func (rm *ResourceManager) Read(ctx context.Context, uri string) (string, error) {
	if !strings.HasPrefix(uri, resourceScheme) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, uri)
	}
	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	clusterName, kind := parts[0], parts[1]

	query, ok := introspectionQueries[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedResourceKind, kind)
	}

	c, err := rm.registry.Resolve(clusterName)
	if err != nil {
		return "", err
	}

	log.Printf("Reading resource %s (query on %s/%s: %s)", uri, c.Name, c.Database, query)
	client, err := rm.clients.Get(c)
	if err != nil {
		return "", err
	}
	result, err := client.Execute(ctx, c.Database, query)
	if err != nil {
		return "", err
	}
	return MarshalRecords(Normalize(result))
}

// RegisterResources registers the per-cluster resources with the MCP
// server. The registry is immutable after startup, so the set registered
// here matches what List returns for the process lifetime.
func (rm *ResourceManager) RegisterResources(s *server.MCPServer) error {
	for _, d := range rm.List() {
		resource := mcplib.NewResource(
			d.URI,
			d.Name,
			mcplib.WithResourceDescription(d.Description),
			mcplib.WithMIMEType(d.MIMEType),
		)
		s.AddResource(resource, rm.handleRead)
	}
	return nil
}

func (rm *ResourceManager) handleRead(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	text, err := rm.Read(ctx, req.Params.URI)
	if err != nil {
		log.Printf("Error reading resource %s: %v", req.Params.URI, err)
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}
