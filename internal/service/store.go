package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/memory"
)

const (
	DefaultBatchSize   = 32
	DefaultConcurrency = 4
)

type StoreOptions struct {
	BatchSize   int
	Concurrency int
	Normalize   bool
}

// Index is one published generation of the embedding store: the vectors and
// the embedder whose vector space they live in. An Index never changes.
type Index struct {
	storage   vectorstore.Storage
	embedder  embedding.Embedder
	normalize bool
	loadedAt  time.Time
}

func (ix *Index) Len() int            { return ix.storage.Len() }
func (ix *Index) Dimension() int      { return ix.storage.Dimension() }
func (ix *Index) LoadedAt() time.Time { return ix.loadedAt }

func (ix *Index) Embedder() string {
	if ix.embedder == nil {
		return ""
	}
	return ix.embedder.Name()
}

// Chunks returns the indexed chunks with their vectors, in corpus order.
func (ix *Index) Chunks() []domain.EmbeddedChunk { return ix.storage.Chunks() }

// EmbedQuery embeds text with the embedder that built this index.
func (ix *Index) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if ix.Len() == 0 {
		return nil, domain.ErrNoCorpusLoaded
	}
	vecs, err := ix.embedder.Embed(ctx, []string{text})
	if err == nil {
		err = embedding.Validate(vecs, 1)
	}
	if err != nil {
		return nil, &domain.EmbeddingProviderError{Provider: ix.embedder.Name(), Err: err}
	}
	vec := vecs[0]
	if ix.normalize {
		embedding.Normalize(vec)
	}
	return vec, nil
}

func (ix *Index) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	return ix.storage.Search(vector, topK)
}

// EmbeddingStore holds the current Index and replaces it atomically on
// Initialize. Readers call Snapshot once per request.
type EmbeddingStore struct {
	embedder embedding.Embedder
	opts     StoreOptions
	log      *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[Index]
}

func NewEmbeddingStore(embedder embedding.Embedder, opts StoreOptions, log *slog.Logger) *EmbeddingStore {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if log == nil {
		log = slog.Default()
	}
	s := &EmbeddingStore{embedder: embedder, opts: opts, log: log}
	s.current.Store(&Index{storage: memory.Empty(), embedder: embedder, normalize: opts.Normalize})
	return s
}

func (s *EmbeddingStore) Snapshot() *Index { return s.current.Load() }

func (s *EmbeddingStore) Len() int { return s.Snapshot().Len() }

func (s *EmbeddingStore) Dimension() int { return s.Snapshot().Dimension() }

func (s *EmbeddingStore) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return s.Snapshot().EmbedQuery(ctx, text)
}

func (s *EmbeddingStore) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	return s.Snapshot().Search(vector, topK)
}

// Initialize embeds chunks and publishes them as the new index. On any
// failure the previously published index is kept.
func (s *EmbeddingStore) Initialize(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(chunks) == 0 {
		s.current.Store(&Index{storage: memory.Empty(), embedder: s.embedder, normalize: s.opts.Normalize, loadedAt: time.Now()})
		s.log.Warn("embedding store initialized without chunks, retrieval disabled")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	emb := s.embedder
	if f, ok := emb.(embedding.Fitter); ok {
		fitted, err := f.Fit(texts)
		if err != nil {
			return &domain.EmbeddingProviderError{Provider: emb.Name(), Err: err}
		}
		emb = fitted
	}

	vectors, err := s.embedAll(ctx, emb, texts)
	if err != nil {
		return &domain.EmbeddingProviderError{Provider: emb.Name(), Err: err}
	}
	if s.opts.Normalize {
		for _, v := range vectors {
			embedding.Normalize(v)
		}
	}

	storage, err := memory.NewStorage(chunks, vectors)
	if err != nil {
		return &domain.EmbeddingProviderError{Provider: emb.Name(), Err: err}
	}
	s.current.Store(&Index{storage: storage, embedder: emb, normalize: s.opts.Normalize, loadedAt: time.Now()})
	s.log.Info("embedding store initialized",
		"chunks", storage.Len(),
		"dimension", storage.Dimension(),
		"embedder", emb.Name())
	return nil
}

func (s *EmbeddingStore) embedAll(ctx context.Context, emb embedding.Embedder, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for start := 0; start < len(texts); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(texts))
		g.Go(func() error {
			out, err := emb.Embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(out) != end-start {
				return fmt.Errorf("batch %d-%d: got %d vectors", start, end, len(out))
			}
			copy(vectors[start:end], out)
			s.log.Debug("embedded batch", "from", start, "to", end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := embedding.Validate(vectors, len(texts)); err != nil {
		return nil, fmt.Errorf("malformed embeddings: %w", err)
	}
	return vectors, nil
}
