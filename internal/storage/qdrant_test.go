//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/repo-ingest/internal/repo"
)

// setupTestStore connects to a local Qdrant. Skips test if Qdrant is not running.
func setupTestStore(t *testing.T) *QdrantStore {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewQdrantStore(ctx, QdrantConfig{Host: "localhost", Port: 6334})
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestQdrantCollectionLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	name := "it_" + repo.Coordinate{Owner: "acme", Name: time.Now().Format("150405.000")}.CollectionName()
	t.Cleanup(func() { store.DeleteCollection(context.Background(), name) })

	require.NoError(t, store.ResetCollection(ctx, name, VectorDimension, MetricCosine))
	// second reset must not fail with "already exists"
	require.NoError(t, store.ResetCollection(ctx, name, VectorDimension, MetricCosine))

	coord := repo.Coordinate{Owner: "acme", Name: "widgets"}
	records := make([]VectorRecord, 5)
	for i := range records {
		vec := make([]float32, VectorDimension)
		vec[i] = 1
		records[i] = VectorRecord{
			ID:     PointID(coord, "main.go", i, 42),
			Vector: vec,
			Chunk: repo.CodeChunk{
				Content:    "chunk",
				FilePath:   "main.go",
				FileName:   "main.go",
				FileType:   "go",
				ChunkIndex: i,
				Repository: coord.Name,
				Owner:      coord.Owner,
			},
			IngestedAt: time.Now(),
		}
	}
	require.NoError(t, store.UpsertBatch(ctx, name, records))

	info, err := store.CollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, uint64(5), info.PointsCount)

	short := records[0]
	short.Vector = []float32{1, 2}
	assert.ErrorIs(t, store.UpsertBatch(ctx, name, []VectorRecord{short}), ErrDimensionMismatch)

	require.NoError(t, store.DeleteCollection(ctx, name))
	require.NoError(t, store.DeleteCollection(ctx, name))

	info, err = store.CollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestQdrantHealth(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Health(context.Background()))
	assert.Contains(t, store.String(), "6334")
}

func TestQdrantUnsupportedMetric(t *testing.T) {
	store := setupTestStore(t)
	err := store.ResetCollection(context.Background(), "unused", 4, Metric("hamming"))
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}
