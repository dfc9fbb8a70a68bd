package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	geminiemb "ragchat/internal/embedding/gemini"
	openaiemb "ragchat/internal/embedding/openai"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/generation"
	"ragchat/internal/generation/anthropic"
	geminigen "ragchat/internal/generation/gemini"
	openaigen "ragchat/internal/generation/openai"
	"ragchat/internal/prompt"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
)

// app is the wired service graph shared by serve and chat.
type app struct {
	rag     *service.RAGService
	chat    *service.ChatService
	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func buildApp(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*app, error) {
	a := &app{}
	emb, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if c, ok := emb.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("generator: %w", err)
	}
	if c, ok := gen.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	ch, err := newChunker(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	sum, err := newSummarizer(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	store := service.NewEmbeddingStore(emb, service.StoreOptions{
		BatchSize:   cfg.Embedder.BatchSize,
		Concurrency: cfg.Embedder.Concurrency,
		Normalize:   cfg.Embedder.Normalize,
	}, log)
	a.rag = service.NewRAGService(cfg.Corpus.Path, ch, store, sum, service.RAGOptions{
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		LoadTimeout:         cfg.Embedder.Timeout(),
	}, log)
	a.closers = append(a.closers, a.rag)
	a.chat = service.NewChatService(store,
		prompt.NewAssembler(cfg.Prompt.SystemInstruction, cfg.Prompt.DocumentLabel, cfg.Prompt.MaxContextChars),
		gen,
		service.ChatOptions{
			TopK:          cfg.Retrieval.TopK,
			Timeout:       cfg.Server.RequestTimeout(),
			MaxConcurrent: cfg.Server.MaxConcurrentChats,
		}, log)
	return a, nil
}

func newEmbedder(ctx context.Context, cfg *config.AppConfig) (embedding.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "gemini":
		g := cfg.Embedder.Gemini
		return geminiemb.NewEmbedder(ctx, geminiemb.Config{APIKeyEnv: g.APIKeyEnv, Model: g.Model})
	case "openai":
		o := cfg.Embedder.OpenAI
		return openaiemb.NewClient(openaiemb.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newGenerator(ctx context.Context, cfg *config.AppConfig) (generation.Generator, error) {
	switch cfg.Generator.Type {
	case "gemini":
		g := cfg.Generator.Gemini
		return geminigen.NewGenerator(ctx, geminigen.Config{APIKeyEnv: g.APIKeyEnv, Model: g.Model})
	case "openai":
		o := cfg.Generator.OpenAI
		return openaigen.NewGenerator(openaigen.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
		})
	case "anthropic":
		a := cfg.Generator.Anthropic
		return anthropic.NewGenerator(anthropic.Config{
			BaseURL:   a.BaseURL,
			APIKeyEnv: a.APIKeyEnv,
			Model:     a.Model,
			MaxTokens: a.MaxTokens,
			Timeout:   time.Duration(a.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Generator.Type)
	}
}

func newChunker(cfg *config.AppConfig) (domain.Chunker, error) {
	passages := chunker.NewSeparatorChunker(cfg.Corpus.Separator, cfg.Corpus.HeaderMarker)
	switch cfg.Chunker.Type {
	case "document":
		return passages, nil
	case "sentence":
		return chunker.NewSentenceChunker(passages, cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}
}

func newSummarizer(cfg *config.AppConfig) (domain.Summarizer, error) {
	switch cfg.Summarizer.Type {
	case "frequency":
		return summarizer.NewFrequencySummarizer(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}
}
