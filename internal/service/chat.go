package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"ragchat/internal/domain"
	"ragchat/internal/generation"
	"ragchat/internal/prompt"
)

// Stage names a step of a chat request.
type Stage string

const (
	StageReceived         Stage = "received"
	StageValidating       Stage = "validating"
	StageEmbeddingQuery   Stage = "embedding_query"
	StageRanking          Stage = "ranking"
	StageAssemblingPrompt Stage = "assembling_prompt"
	StageGenerating       Stage = "generating"
	StageResponding       Stage = "responding"
	StageFailed           Stage = "failed"
)

const (
	DefaultTopK          = 2
	DefaultChatTimeout   = 60 * time.Second
	DefaultMaxConcurrent = 64
)

type ChatOptions struct {
	TopK          int
	Timeout       time.Duration
	MaxConcurrent int
}

type ChatService struct {
	store     *EmbeddingStore
	assembler *prompt.Assembler
	generator generation.Generator
	opts      ChatOptions
	sem       *semaphore.Weighted
	log       *slog.Logger
}

func NewChatService(store *EmbeddingStore, assembler *prompt.Assembler, generator generation.Generator, opts ChatOptions, log *slog.Logger) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultChatTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{
		store:     store,
		assembler: assembler,
		generator: generator,
		opts:      opts,
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		log:       log,
	}
}

// Chat answers message from the retrieved corpus context and history.
// Validation failures wrap domain.ErrValidation and happen before any
// provider call.
func (s *ChatService) Chat(ctx context.Context, message string, history []domain.ConversationTurn) (string, error) {
	start := time.Now()
	log := s.log.With("request_id", RequestID(ctx))
	log.Debug("chat", "stage", StageReceived)

	message = strings.TrimSpace(message)
	if message == "" {
		return "", s.fail(log, StageValidating, domain.ErrEmptyMessage)
	}
	for i, turn := range history {
		if !turn.Role.Valid() {
			return "", s.fail(log, StageValidating, fmt.Errorf("%w %q at position %d", domain.ErrInvalidRole, turn.Role, i))
		}
	}
	ix := s.store.Snapshot()
	if ix.Len() == 0 {
		return "", s.fail(log, StageValidating, domain.ErrNoCorpusLoaded)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", s.fail(log, StageValidating, err)
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	vec, err := ix.EmbedQuery(ctx, message)
	if err != nil {
		return "", s.fail(log, StageEmbeddingQuery, err)
	}

	results, err := ix.Search(vec, s.opts.TopK)
	if err != nil {
		return "", s.fail(log, StageRanking, err)
	}

	p := s.assembler.Assemble(message, results, history)
	req := generation.Request{Turns: p.Turns}
	if generation.HasSystemChannel(s.generator) {
		req.SystemInstruction = p.SystemInstruction
	} else {
		req.Turns = p.Inline()
	}
	log.Debug("chat", "stage", StageAssemblingPrompt, "chunks", len(results), "turns", len(req.Turns))

	answer, err := s.generator.Generate(ctx, req)
	if err != nil {
		return "", s.fail(log, StageGenerating, &domain.GenerationProviderError{Provider: s.generator.Name(), Err: err})
	}

	log.Info("chat",
		"stage", StageResponding,
		"chunks", len(results),
		"duration", time.Since(start))
	return answer, nil
}

func (s *ChatService) fail(log *slog.Logger, stage Stage, err error) error {
	var dm *domain.DimensionMismatchError
	switch {
	case errors.Is(err, domain.ErrValidation):
		log.Info("chat rejected", "stage", StageFailed, "failed_at", stage, "error", err)
	case errors.As(err, &dm):
		log.Error("chat failed: vector dimension mismatch", "stage", StageFailed, "failed_at", stage, "want", dm.Want, "got", dm.Got)
	default:
		log.Error("chat failed", "stage", StageFailed, "failed_at", stage, "error", err)
	}
	return err
}

type requestIDKey struct{}

// WithRequestID attaches a request ID used in log records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
