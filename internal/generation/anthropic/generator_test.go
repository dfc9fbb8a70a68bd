package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragchat/internal/domain"
	"ragchat/internal/generation"
)

func TestParams_SystemTurnsJoinSystemBlocks(t *testing.T) {
	p := Params("m", 100, generation.Request{
		SystemInstruction: "sys",
		Turns: []domain.ConversationTurn{
			{Role: domain.RoleSystem, Content: "extra"},
			{Role: domain.RoleUser, Content: "q1"},
			{Role: domain.RoleAssistant, Content: "a1"},
			{Role: domain.RoleUser, Content: "q2"},
		},
	})
	if len(p.System) != 2 || p.System[0].Text != "sys" || p.System[1].Text != "extra" {
		t.Fatalf("System = %+v", p.System)
	}
	if len(p.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(p.Messages))
	}
	if p.Messages[1].Role != "assistant" {
		t.Fatalf("Messages[1].Role = %q, want assistant", p.Messages[1].Role)
	}
	if p.MaxTokens != 100 {
		t.Fatalf("MaxTokens = %d, want 100", p.MaxTokens)
	}
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"m",
			"content":[{"type":"text","text":"answer"}],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	g, err := NewGenerator(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
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
	if got["model"] != "m" {
		t.Fatalf("request model = %v, want m", got["model"])
	}
}
