package memory

import (
	"errors"
	"sort"

	"ragchat/internal/domain"
)

// DefaultTopK is used when Search is called with a non-positive topK.
const DefaultTopK = 2

// Storage is an immutable in-memory index searched by brute-force dot product.
// Vectors are not normalized here; callers that want cosine ranking normalize
// before building the index.
type Storage struct {
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float64
}

// Empty returns an index with no chunks.
func Empty() *Storage { return &Storage{} }

// NewStorage builds an index over chunks. vectors[i] belongs to chunks[i] and
// all vectors must share one dimension.
func NewStorage(chunks []domain.Chunk, vectors [][]float64) (*Storage, error) {
	if len(chunks) != len(vectors) {
		return nil, errors.New("chunks and vectors length mismatch")
	}
	if len(vectors) == 0 {
		return Empty(), nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("invalid dimension")
	}
	s := &Storage{
		dimension: dim,
		chunks:    make([]domain.Chunk, len(chunks)),
		vectors:   make([][]float64, len(vectors)),
	}
	copy(s.chunks, chunks)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &domain.DimensionMismatchError{Want: dim, Got: len(v)}
		}
		s.vectors[i] = append([]float64(nil), v...)
	}
	return s, nil
}

func (s *Storage) Len() int { return len(s.chunks) }

func (s *Storage) Dimension() int { return s.dimension }

// Chunks returns a copy of the indexed chunks paired with their vectors.
func (s *Storage) Chunks() []domain.EmbeddedChunk {
	out := make([]domain.EmbeddedChunk, len(s.chunks))
	for i := range s.chunks {
		out[i] = domain.EmbeddedChunk{Chunk: s.chunks[i], Embedding: append([]float64(nil), s.vectors[i]...)}
	}
	return out
}

// Search returns the topK chunks by descending dot product. Ties keep
// corpus order.
func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if len(s.chunks) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, &domain.DimensionMismatchError{Want: s.dimension, Got: len(vector)}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = Dot(s.vectors[i], vector)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

// Dot is the raw inner product of two equal-length vectors.
func Dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
