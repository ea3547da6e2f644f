package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/repo-ingest/internal/repo"
)

func coordinate(owner, name string) (repo.Coordinate, error) {
	return repo.ParseCoordinate(strings.TrimSpace(owner) + "/" + strings.TrimSpace(name))
}

// makeIngestHandler creates the ingest_repository tool handler.
// Run failures are reported in the output, not as tool errors; only invalid
// input fails the call.
func makeIngestHandler(service Service, logger *slog.Logger) func(
	context.Context, *mcp.CallToolRequest, IngestRepositoryInput,
) (*mcp.CallToolResult, IngestRepositoryOutput, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestRepositoryInput) (
		*mcp.CallToolResult, IngestRepositoryOutput, error,
	) {
		coord, err := coordinate(input.Owner, input.Repo)
		if err != nil {
			return nil, IngestRepositoryOutput{}, err
		}

		out := IngestRepositoryOutput{
			Repository: coord.String(),
			Collection: coord.CollectionName(),
		}

		token := strings.TrimSpace(input.Token)
		if token == "" {
			out.Message = "GitHub access token is required"
			return nil, out, nil
		}

		logger.Info("ingest_repository called", "repository", coord.String())
		outcome := service.Ingest(ctx, coord, token)

		out.Success = outcome.Success
		out.ChunksProcessed = outcome.ChunksProcessed
		out.Message = outcome.Message
		return nil, out, nil
	}
}

// makeStatusHandler creates the collection_status tool handler.
func makeStatusHandler(service Service) func(
	context.Context, *mcp.CallToolRequest, CollectionStatusInput,
) (*mcp.CallToolResult, CollectionStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CollectionStatusInput) (
		*mcp.CallToolResult, CollectionStatusOutput, error,
	) {
		coord, err := coordinate(input.Owner, input.Repo)
		if err != nil {
			return nil, CollectionStatusOutput{}, err
		}

		info, err := service.CollectionStatus(ctx, coord)
		if err != nil {
			return nil, CollectionStatusOutput{}, fmt.Errorf("store_error: %w", err)
		}

		return nil, CollectionStatusOutput{
			Collection: info.Name,
			Exists:     info.Exists,
			Points:     info.PointsCount,
		}, nil
	}
}
