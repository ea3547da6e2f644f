package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestMeanPool_AveragesMaskedTokens(t *testing.T) {
	// batch 2, seq 3, dim 2; the second sentence has one padding token
	hidden := []float32{
		1, 0, // [CLS]
		3, 0,
		5, 0,

		0, 2,
		0, 4,
		100, 100, // padding, must be ignored
	}
	mask := []int64{1, 1, 1, 1, 1, 0}

	out, err := meanPool(hidden, mask, 2, 3, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// mean is (3, 0), not the first token (1, 0); normalized to (1, 0)
	assert.InDelta(t, 1.0, out[0][0], 1e-6)
	assert.InDelta(t, 0.0, out[0][1], 1e-6)

	// mean is (0, 3), padding excluded
	assert.InDelta(t, 0.0, out[1][0], 1e-6)
	assert.InDelta(t, 1.0, out[1][1], 1e-6)
}

func TestMeanPool_DiffersFromFirstToken(t *testing.T) {
	hidden := []float32{
		1, 0,
		0, 1,
	}
	out, err := meanPool(hidden, []int64{1, 1}, 1, 2, 2)
	require.NoError(t, err)

	assert.InDelta(t, math.Sqrt(0.5), out[0][0], 1e-6)
	assert.InDelta(t, math.Sqrt(0.5), out[0][1], 1e-6)
	assert.InDelta(t, 1.0, norm(out[0]), 1e-6)
}

func TestMeanPool_AllPaddingYieldsZeroVector(t *testing.T) {
	out, err := meanPool([]float32{7, 7}, []int64{0}, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, out[0])
}

func TestMeanPool_ShapeMismatch(t *testing.T) {
	_, err := meanPool([]float32{1, 2, 3}, []int64{1}, 1, 1, 2)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)

	_, err = meanPool([]float32{1, 2}, []int64{1, 1}, 1, 1, 2)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
