package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragchat/internal/domain"
	"ragchat/internal/generation"
)

func TestMessages(t *testing.T) {
	msgs := Messages(generation.Request{
		SystemInstruction: "sys",
		Turns: []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: "q1"},
			{Role: domain.RoleAssistant, Content: "a1"},
			{Role: domain.RoleUser, Content: "q2"},
		},
	})
	want := []struct{ role, content string }{
		{"system", "sys"}, {"user", "q1"}, {"assistant", "a1"}, {"user", "q2"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("len(msgs) = %d, want %d", len(msgs), len(want))
	}
	for i, w := range want {
		if msgs[i].Role != w.role || msgs[i].Content != w.content {
			t.Errorf("msgs[%d] = %s/%s, want %s/%s", i, msgs[i].Role, msgs[i].Content, w.role, w.content)
		}
	}
}

func TestGenerate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"answer"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g, err := NewGenerator(Config{BaseURL: srv.URL + "/v1", APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}
	out, err := g.Generate(context.Background(), generation.Request{
		SystemInstruction: "sys",
		Turns:             []domain.ConversationTurn{{Role: domain.RoleUser, Content: "q"}},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if out != "answer" {
		t.Fatalf("Generate() = %q, want answer", out)
	}
	if got.Model != "m" || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g, err := NewGenerator(Config{BaseURL: srv.URL + "/v1", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}
	if _, err := g.Generate(context.Background(), generation.Request{
		Turns: []domain.ConversationTurn{{Role: domain.RoleUser, Content: "q"}},
	}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
