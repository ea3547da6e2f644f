package embedding

import (
	"fmt"
	"math"
)

// meanPool averages token embeddings over the positions the attention mask
// marks as real tokens, then L2-normalizes each sentence vector.
//
// hidden is a flattened [batch, seq, dim] tensor and mask a flattened
// [batch, seq] attention mask.
func meanPool(hidden []float32, mask []int64, batch, seq, dim int) ([][]float32, error) {
	if len(hidden) != batch*seq*dim {
		return nil, fmt.Errorf("%w: hidden state has %d values, want %d", ErrEmbeddingFailed, len(hidden), batch*seq*dim)
	}
	if len(mask) != batch*seq {
		return nil, fmt.Errorf("%w: attention mask has %d values, want %d", ErrEmbeddingFailed, len(mask), batch*seq)
	}

	out := make([][]float32, batch)
	for b := range batch {
		sum := make([]float64, dim)
		var tokens float64
		for s := range seq {
			if mask[b*seq+s] == 0 {
				continue
			}
			tokens++
			row := hidden[(b*seq+s)*dim : (b*seq+s+1)*dim]
			for d, v := range row {
				sum[d] += float64(v)
			}
		}
		// same clamp as sentence-transformers
		tokens = math.Max(tokens, 1e-9)

		vec := make([]float32, dim)
		for d := range sum {
			vec[d] = float32(sum[d] / tokens)
		}
		out[b] = l2Normalize(vec)
	}
	return out, nil
}

func l2Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Max(math.Sqrt(norm), 1e-12)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
