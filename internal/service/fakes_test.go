package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"ragchat/internal/domain"
	"ragchat/internal/generation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEmbedder returns fixed vectors per text.
type fakeEmbedder struct {
	vectors map[string][]float64

	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out[i] = append([]float64(nil), v...)
	}
	return out, nil
}

func (f *fakeEmbedder) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func fixtureEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float64{
		"내용A":     {1, 0},
		"내용B":     {0, 1},
		"what is A": {0.9, 0.1},
	}}
}

// blockingEmbedder blocks every call until its context ends.
type blockingEmbedder struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingEmbedder() *blockingEmbedder {
	return &blockingEmbedder{started: make(chan struct{})}
}

func (b *blockingEmbedder) Name() string { return "blocking" }

func (b *blockingEmbedder) Embed(ctx context.Context, _ []string) ([][]float64, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeGenerator struct {
	answer string
	err    error
	system bool

	calls atomic.Int32
	last  generation.Request
}

func (g *fakeGenerator) Name() string { return "fake-gen" }

func (g *fakeGenerator) SupportsSystemInstruction() bool { return g.system }

func (g *fakeGenerator) Generate(_ context.Context, req generation.Request) (string, error) {
	g.calls.Add(1)
	g.last = req
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

// blockingGenerator blocks every call until its context ends.
type blockingGenerator struct {
	started chan struct{}
	calls   atomic.Int32
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{started: make(chan struct{}, 8)}
}

func (g *blockingGenerator) Name() string { return "blocking-gen" }

func (g *blockingGenerator) Generate(ctx context.Context, _ generation.Request) (string, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	<-ctx.Done()
	return "", ctx.Err()
}

var errUpstream = errors.New("upstream unavailable")

func fixtureChunks() []domain.Chunk {
	return []domain.Chunk{
		{ChunkID: "c:0", Text: "내용A", Index: 0},
		{ChunkID: "c:1", Text: "내용B", Index: 1},
	}
}
