package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"ragchat/internal/domain"
)

// CorpusInfo describes the currently published corpus.
type CorpusInfo struct {
	Source    string    `json:"source"`
	Chunks    int       `json:"chunks"`
	Dimension int       `json:"dimension"`
	Embedder  string    `json:"embedder"`
	Summary   string    `json:"summary"`
	LoadedAt  time.Time `json:"loaded_at"`
}

const DefaultLoadTimeout = 2 * time.Minute

type RAGOptions struct {
	SummaryMaxSentences int
	// LoadTimeout bounds one corpus load, embedding included.
	LoadTimeout time.Duration
}

type RAGService struct {
	source     string
	chunker    domain.Chunker
	store      *EmbeddingStore
	summarizer domain.Summarizer
	opts       RAGOptions
	log        *slog.Logger

	// lifetime outlives any single caller; Close cancels it.
	lifetime context.Context
	stop     context.CancelFunc

	loads   singleflight.Group
	summary atomic.Pointer[string]
}

func NewRAGService(source string, chunker domain.Chunker, store *EmbeddingStore, summarizer domain.Summarizer, opts RAGOptions, log *slog.Logger) *RAGService {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	lifetime, stop := context.WithCancel(context.Background())
	return &RAGService{
		source:     source,
		chunker:    chunker,
		store:      store,
		summarizer: summarizer,
		opts:       opts,
		log:        log,
		lifetime:   lifetime,
		stop:       stop,
	}
}

func (s *RAGService) Store() *EmbeddingStore { return s.store }

// Close cancels any load in flight.
func (s *RAGService) Close() error {
	s.stop()
	return nil
}

// LoadCorpus reads the corpus file, chunks it and re-initializes the store.
// Concurrent calls share one load, which runs until LoadTimeout or Close and
// is not tied to any one caller. A caller whose ctx ends stops waiting with
// ctx.Err(). A failed load leaves the published store untouched.
func (s *RAGService) LoadCorpus(ctx context.Context) (CorpusInfo, error) {
	ch := s.loads.DoChan("load", func() (any, error) {
		lctx, cancel := context.WithTimeout(s.lifetime, s.opts.LoadTimeout)
		defer cancel()
		return nil, s.load(lctx)
	})
	select {
	case <-ctx.Done():
		return CorpusInfo{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return CorpusInfo{}, res.Err
		}
		return s.Corpus(), nil
	}
}

func (s *RAGService) load(ctx context.Context) error {
	data, err := os.ReadFile(s.source)
	if err != nil {
		return &domain.CorpusLoadError{Path: s.source, Err: err}
	}
	doc := domain.Document{ID: hashString(s.source), Path: s.source, Content: string(data)}
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return &domain.CorpusLoadError{Path: s.source, Err: err}
	}
	s.log.Info("corpus chunked", "source", s.source, "chunks", len(chunks))

	if err := s.store.Initialize(ctx, chunks); err != nil {
		return err
	}

	summary := ""
	if s.summarizer != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		summary, err = s.summarizer.Summarize(strings.Join(texts, "\n"), s.opts.SummaryMaxSentences)
		if err != nil {
			s.log.Warn("corpus summary failed", "error", err)
			summary = ""
		}
	}
	s.summary.Store(&summary)
	return nil
}

// Retrieve embeds query and returns the topK closest chunks of the current
// index.
func (s *RAGService) Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	ix := s.store.Snapshot()
	vec, err := ix.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return ix.Search(vec, topK)
}

func (s *RAGService) Corpus() CorpusInfo {
	ix := s.store.Snapshot()
	info := CorpusInfo{
		Source:    s.source,
		Chunks:    ix.Len(),
		Dimension: ix.Dimension(),
		Embedder:  ix.Embedder(),
		LoadedAt:  ix.LoadedAt(),
	}
	if p := s.summary.Load(); p != nil {
		info.Summary = *p
	}
	return info
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
