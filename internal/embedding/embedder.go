package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Embedder converts free text into numeric vector representations.
// The returned slice is parallel to texts.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Fitter is implemented by embedders whose vector space is derived from the
// corpus. Fit returns a new, ready embedder and leaves the receiver untouched.
type Fitter interface {
	Fit(corpus []string) (Embedder, error)
}

// Normalize scales vec to unit L2 length in place. Zero vectors are left as is.
func Normalize(vec []float64) []float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// Validate checks that vectors has one entry per input, that every vector has
// the same non-zero length and that every value is finite.
func Validate(vectors [][]float64, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("got %d vectors for %d inputs", len(vectors), want)
	}
	dim := -1
	for i, vec := range vectors {
		if len(vec) == 0 {
			return fmt.Errorf("vector %d is empty", i)
		}
		if dim == -1 {
			dim = len(vec)
		} else if len(vec) != dim {
			return fmt.Errorf("vector %d has length %d, want %d", i, len(vec), dim)
		}
		for _, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("vector %d has non-finite value", i)
			}
		}
	}
	return nil
}

// ErrNoEmbedding is returned by providers that answer without any vector.
var ErrNoEmbedding = errors.New("no embedding returned")

// Float64s widens a provider's float32 vector.
func Float64s(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
