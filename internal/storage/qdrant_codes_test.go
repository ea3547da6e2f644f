package storage

import (
	"fmt"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestQdrantDistance(t *testing.T) {
	d, err := qdrantDistance(MetricCosine)
	assert.NoError(t, err)
	assert.Equal(t, qdrant.Distance_Cosine, d)

	d, err = qdrantDistance("")
	assert.NoError(t, err)
	assert.Equal(t, qdrant.Distance_Cosine, d)

	d, err = qdrantDistance(MetricEuclid)
	assert.NoError(t, err)
	assert.Equal(t, qdrant.Distance_Euclid, d)

	_, err = qdrantDistance("manhattan")
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}

func TestGRPCErrorClassification(t *testing.T) {
	assert.True(t, isTransient(status.Error(codes.Unavailable, "down")))
	assert.True(t, isTransient(status.Error(codes.ResourceExhausted, "slow down")))
	assert.False(t, isTransient(status.Error(codes.InvalidArgument, "bad vector")))
	assert.False(t, isTransient(fmt.Errorf("plain error")))

	assert.True(t, isNotFound(status.Error(codes.NotFound, "no collection")))
	assert.False(t, isNotFound(status.Error(codes.Internal, "boom")))
}
