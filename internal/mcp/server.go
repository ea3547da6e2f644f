package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/repo-ingest/internal/indexer"
	"github.com/bull/repo-ingest/internal/repo"
	"github.com/bull/repo-ingest/internal/storage"
)

// Service is the ingestion backend behind the tools. *indexer.Pipeline implements it.
type Service interface {
	Ingest(ctx context.Context, coord repo.Coordinate, credential string) indexer.Outcome
	CollectionStatus(ctx context.Context, coord repo.Coordinate) (*storage.CollectionInfo, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server  *mcp.Server
	service Service
}

// Config holds server dependencies.
type Config struct {
	Service Service
	Version string
	Logger  *slog.Logger
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	impl := &mcp.Implementation{
		Name:    "repo-ingest",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_repository",
		Description: "Crawl a GitHub repository, chunk its source files and store their embeddings in a per-repository vector collection. Replaces any previous collection for the repository.",
	}, makeIngestHandler(cfg.Service, logger))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "collection_status",
		Description: "Report whether a repository has been ingested and how many chunks its collection holds.",
	}, makeStatusHandler(cfg.Service))

	return &Server{
		server:  server,
		service: cfg.Service,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
