package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"

	"ragchat/internal/embedding"
)

const DefaultModel = "text-embedding-004"

// Config configures the Gemini embedder.
type Config struct {
	APIKey    string
	APIKeyEnv string
	Model     string
}

// Embedder calls the Gemini embedding API, one batch request per Embed call.
type Embedder struct {
	model  string
	client *genai.Client
}

// NewEmbedder creates a Gemini embedder. opts go to the genai client after
// the API key.
func NewEmbedder(ctx context.Context, cfg Config, opts ...genaiopt.ClientOption) (*Embedder, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, append([]genaiopt.ClientOption{genaiopt.WithAPIKey(key)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Embedder{model: cfg.Model, client: client}, nil
}

func (e *Embedder) Name() string { return "gemini" }

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	model := e.client.EmbeddingModel(e.model)
	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	rsp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if rsp == nil || len(rsp.Embeddings) == 0 {
		return nil, embedding.ErrNoEmbedding
	}
	out := make([][]float64, len(rsp.Embeddings))
	for i, emb := range rsp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("embedding %d missing", i)
		}
		out[i] = embedding.Float64s(emb.Values)
	}
	return out, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}
