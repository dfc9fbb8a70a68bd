package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"

	"ragchat/internal/domain"
	"ragchat/internal/generation"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey    string
	APIKeyEnv string
	Model     string
}

type Generator struct {
	model  string
	client *genai.Client
}

func NewGenerator(ctx context.Context, cfg Config, opts ...genaiopt.ClientOption) (*Generator, error) {
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
	return &Generator{model: cfg.Model, client: client}, nil
}

func (g *Generator) Name() string { return "gemini" }

func (g *Generator) SupportsSystemInstruction() bool { return true }

func (g *Generator) Generate(ctx context.Context, req generation.Request) (string, error) {
	if len(req.Turns) == 0 {
		return "", errors.New("no turns to send")
	}

	model := g.client.GenerativeModel(g.model)
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}

	history, last := Contents(req.Turns)
	cs := model.StartChat()
	cs.History = history

	rsp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", err
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Google")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String(), nil
}

func (g *Generator) Close() error {
	return g.client.Close()
}

// Contents converts turns to Gemini contents, splitting off the final turn.
// Gemini only knows "user" and "model"; system turns are sent as user turns.
func Contents(turns []domain.ConversationTurn) ([]*genai.Content, *genai.Content) {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == domain.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[:len(out)-1], out[len(out)-1]
}
