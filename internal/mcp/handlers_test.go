package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/repo-ingest/internal/indexer"
	"github.com/bull/repo-ingest/internal/repo"
	"github.com/bull/repo-ingest/internal/storage"
)

type fakeService struct {
	outcome   indexer.Outcome
	info      *storage.CollectionInfo
	statusErr error

	coord repo.Coordinate
	token string
	calls int
}

func (f *fakeService) Ingest(_ context.Context, coord repo.Coordinate, credential string) indexer.Outcome {
	f.calls++
	f.coord, f.token = coord, credential
	return f.outcome
}

func (f *fakeService) CollectionStatus(_ context.Context, coord repo.Coordinate) (*storage.CollectionInfo, error) {
	f.coord = coord
	return f.info, f.statusErr
}

func TestIngestHandler(t *testing.T) {
	svc := &fakeService{outcome: indexer.Outcome{Success: true, ChunksProcessed: 12, Message: "processed 12 code chunks from 3 files"}}
	handler := makeIngestHandler(svc, nil)

	_, out, err := handler(context.Background(), nil, IngestRepositoryInput{Owner: "Acme", Repo: "web.site", Token: " ghp_x "})
	require.NoError(t, err)

	assert.Equal(t, IngestRepositoryOutput{
		Success:         true,
		ChunksProcessed: 12,
		Message:         "processed 12 code chunks from 3 files",
		Repository:      "Acme/web.site",
		Collection:      "acme_web_site",
	}, out)
	assert.Equal(t, "ghp_x", svc.token)
}

func TestIngestHandler_FailedRunIsNotAToolError(t *testing.T) {
	svc := &fakeService{outcome: indexer.Outcome{Message: "no files found to process"}}

	_, out, err := makeIngestHandler(svc, nil)(context.Background(), nil, IngestRepositoryInput{Owner: "a", Repo: "b", Token: "t"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "no files found to process", out.Message)
}

func TestIngestHandler_MissingToken(t *testing.T) {
	svc := &fakeService{}

	_, out, err := makeIngestHandler(svc, nil)(context.Background(), nil, IngestRepositoryInput{Owner: "a", Repo: "b"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "GitHub access token is required", out.Message)
	assert.Zero(t, svc.calls)
}

func TestIngestHandler_InvalidCoordinate(t *testing.T) {
	svc := &fakeService{}
	handler := makeIngestHandler(svc, nil)

	for _, in := range []IngestRepositoryInput{
		{Owner: "", Repo: "b", Token: "t"},
		{Owner: "a", Repo: "", Token: "t"},
		{Owner: "a", Repo: "b/c", Token: "t"},
	} {
		_, _, err := handler(context.Background(), nil, in)
		assert.Error(t, err, "%+v", in)
	}
	assert.Zero(t, svc.calls)
}

func TestStatusHandler(t *testing.T) {
	svc := &fakeService{info: &storage.CollectionInfo{Name: "acme_widgets", Exists: true, PointsCount: 42}}

	_, out, err := makeStatusHandler(svc)(context.Background(), nil, CollectionStatusInput{Owner: "acme", Repo: "widgets"})
	require.NoError(t, err)
	assert.Equal(t, CollectionStatusOutput{Collection: "acme_widgets", Exists: true, Points: 42}, out)
	assert.Equal(t, repo.Coordinate{Owner: "acme", Name: "widgets"}, svc.coord)
}

func TestStatusHandler_StoreError(t *testing.T) {
	svc := &fakeService{statusErr: storage.ErrQdrantUnreachable}

	_, _, err := makeStatusHandler(svc)(context.Background(), nil, CollectionStatusInput{Owner: "acme", Repo: "widgets"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrQdrantUnreachable))
}

func TestNewServer(t *testing.T) {
	s := NewServer(&Config{Service: &fakeService{}})
	require.NotNil(t, s.MCPServer())
	assert.NotNil(t, NewHTTPHandler(s, &HTTPHandlerOptions{Stateless: true}))
}
