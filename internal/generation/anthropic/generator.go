package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"ragchat/internal/domain"
	"ragchat/internal/generation"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultMaxTokens = 1024
)

type Config struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type Generator struct {
	model     string
	maxTokens int64
	client    *anthropic.Client
}

func NewGenerator(cfg Config) (*Generator, error) {
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
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	opts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(key),
		anthropicopt.WithHTTPClient(&http.Client{Timeout: t}),
		anthropicopt.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &Generator{model: cfg.Model, maxTokens: int64(cfg.MaxTokens), client: &client}, nil
}

func (g *Generator) Name() string { return "anthropic" }

func (g *Generator) SupportsSystemInstruction() bool { return true }

func (g *Generator) Generate(ctx context.Context, req generation.Request) (string, error) {
	rsp, err := g.client.Messages.New(ctx, Params(g.model, g.maxTokens, req))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(result) == 0 {
		return "", errors.New("no response from Anthropic")
	}

	return result, nil
}

// Params renders req as a Messages API request. Anthropic has no system role
// inside messages, so system turns join the top-level system blocks.
func Params(model string, maxTokens int64, req generation.Request) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	if req.SystemInstruction != "" {
		system = append(system, anthropic.TextBlockParam{Text: req.SystemInstruction})
	}
	msgs := make([]anthropic.MessageParam, 0, len(req.Turns))
	for _, t := range req.Turns {
		switch t.Role {
		case domain.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: t.Content})
		case domain.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  msgs,
	}
}
