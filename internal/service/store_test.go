package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"ragchat/internal/domain"
	"ragchat/internal/embedding/tfidf"
)

func TestEmbeddingStore_InitializeAndSearch(t *testing.T) {
	s := NewEmbeddingStore(fixtureEmbedder(), StoreOptions{}, discardLogger())
	if err := s.Initialize(context.Background(), fixtureChunks()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if s.Len() != 2 || s.Dimension() != 2 {
		t.Fatalf("Len/Dimension = %d/%d, want 2/2", s.Len(), s.Dimension())
	}

	vec, err := s.EmbedQuery(context.Background(), "what is A")
	if err != nil {
		t.Fatalf("EmbedQuery() error: %v", err)
	}
	res, err := s.Search(vec, 2)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res[0].Chunk.Text != "내용A" || res[1].Chunk.Text != "내용B" {
		t.Fatalf("ranking = [%s %s]", res[0].Chunk.Text, res[1].Chunk.Text)
	}
	if math.Abs(res[0].Score-0.9) > 1e-9 || math.Abs(res[1].Score-0.1) > 1e-9 {
		t.Fatalf("scores = [%v %v]", res[0].Score, res[1].Score)
	}
}

func TestEmbeddingStore_FailureKeepsPreviousIndex(t *testing.T) {
	emb := fixtureEmbedder()
	s := NewEmbeddingStore(emb, StoreOptions{}, discardLogger())
	if err := s.Initialize(context.Background(), fixtureChunks()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	before := s.Snapshot()

	emb.fail(errUpstream)
	err := s.Initialize(context.Background(), fixtureChunks()[:1])
	var pe *domain.EmbeddingProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected EmbeddingProviderError, got %v", err)
	}
	if !errors.Is(err, errUpstream) {
		t.Fatalf("cause not wrapped: %v", err)
	}
	if s.Snapshot() != before || s.Len() != 2 {
		t.Fatalf("failed Initialize replaced the published index")
	}
}

func TestEmbeddingStore_RejectsMalformedVectors(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"내용A": {1, 0},
		"내용B": {0, 1, 0},
	}}
	s := NewEmbeddingStore(emb, StoreOptions{}, discardLogger())
	err := s.Initialize(context.Background(), fixtureChunks())
	var pe *domain.EmbeddingProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected EmbeddingProviderError, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("malformed vectors were published")
	}
}

func TestEmbeddingStore_BatchingPreservesOrder(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{}}
	var chunks []domain.Chunk
	for i := 0; i < 10; i++ {
		text := string(rune('a' + i))
		emb.vectors[text] = []float64{float64(i), 1}
		chunks = append(chunks, domain.Chunk{Text: text, Index: i})
	}
	s := NewEmbeddingStore(emb, StoreOptions{BatchSize: 3, Concurrency: 2}, discardLogger())
	if err := s.Initialize(context.Background(), chunks); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if emb.calls != 4 {
		t.Fatalf("embed calls = %d, want 4", emb.calls)
	}
	for i, ec := range s.Snapshot().Chunks() {
		if ec.Chunk.Index != i || ec.Embedding[0] != float64(i) {
			t.Fatalf("chunk %d paired with %v", ec.Chunk.Index, ec.Embedding)
		}
	}
}

func TestEmbeddingStore_ZeroChunksDisablesRetrieval(t *testing.T) {
	s := NewEmbeddingStore(fixtureEmbedder(), StoreOptions{}, discardLogger())
	if err := s.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if _, err := s.EmbedQuery(context.Background(), "what is A"); !errors.Is(err, domain.ErrNoCorpusLoaded) {
		t.Fatalf("expected ErrNoCorpusLoaded, got %v", err)
	}
}

func TestEmbeddingStore_Normalize(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"내용A": {3, 4},
		"내용B": {0, 2},
		"q":   {0, 10},
	}}
	s := NewEmbeddingStore(emb, StoreOptions{Normalize: true}, discardLogger())
	if err := s.Initialize(context.Background(), fixtureChunks()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	vec, err := s.EmbedQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("EmbedQuery() error: %v", err)
	}
	res, _ := s.Search(vec, 2)
	if res[0].Chunk.Text != "내용B" || math.Abs(res[0].Score-1) > 1e-9 {
		t.Fatalf("normalized top = %s %v, want 내용B 1", res[0].Chunk.Text, res[0].Score)
	}
	if math.Abs(res[1].Score-0.8) > 1e-9 {
		t.Fatalf("normalized second score = %v, want 0.8", res[1].Score)
	}
}

func TestEmbeddingStore_FitsCorpusEmbedder(t *testing.T) {
	s := NewEmbeddingStore(tfidf.NewEmbedder(), StoreOptions{}, discardLogger())
	chunks := []domain.Chunk{
		{Text: "golang channels and goroutines", Index: 0},
		{Text: "baking bread with sourdough", Index: 1},
	}
	if err := s.Initialize(context.Background(), chunks); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	vec, err := s.EmbedQuery(context.Background(), "sourdough bread")
	if err != nil {
		t.Fatalf("EmbedQuery() error: %v", err)
	}
	res, err := s.Search(vec, 1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res[0].Chunk.Index != 1 {
		t.Fatalf("top chunk = %d, want 1", res[0].Chunk.Index)
	}
	if s.Snapshot().Embedder() != "tfidf" {
		t.Fatalf("Embedder() = %q", s.Snapshot().Embedder())
	}
}
