package vectorstore

import "ragchat/internal/domain"

// Storage is a read-only vector index supporting similarity search.
// Implementations are immutable once built and safe for concurrent reads.
type Storage interface {
	Search(vector []float64, topK int) ([]domain.SearchResult, error)
	Len() int
	Dimension() int
	Chunks() []domain.EmbeddedChunk
}
