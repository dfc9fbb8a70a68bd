package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ragchat/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	if cmd.Use != "ragchat" {
		t.Errorf("Use = %q, want %q", cmd.Use, "ragchat")
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Fatalf("--config flag not found")
	}
	want := map[string]bool{"serve": false, "chat": false, "chunks": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q missing", name)
		}
	}
}

func TestChunksCmd(t *testing.T) {
	dir := t.TempDir()
	corpus := writeFile(t, dir, "corpus.txt", "# 문서1\n내용A\n---\n# only header\n---\n내용B\n")
	cfg := writeFile(t, dir, "config.yaml", "corpus:\n  path: "+corpus+"\n")
	for _, k := range []string{"PORT", "RAGCHAT_CORPUS", "RAGCHAT_EMBEDDER", "RAGCHAT_GENERATOR", "RAGCHAT_TOP_K"} {
		t.Setenv(k, "")
	}

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfg, "chunks"})
	if err := root.Execute(); err != nil {
		t.Fatalf("chunks: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "[0] 내용A\n") || !strings.Contains(got, "[1] 내용B\n") {
		t.Fatalf("output = %q", got)
	}
	if !strings.HasSuffix(got, "2 chunks\n") {
		t.Fatalf("output = %q", got)
	}
}

func TestChunksCmd_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "corpus:\n  path: "+filepath.Join(dir, "missing.txt")+"\n")
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", cfg, "chunks"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for missing corpus")
	}
}

func TestVersionCmd(t *testing.T) {
	orig := versionInfo
	defer func() { versionInfo = orig }()
	SetVersion("1.2.3", "abc123", "2026-10-01")

	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	if !strings.Contains(out.String(), "1.2.3") || !strings.Contains(out.String(), "abc123") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestBuildApp_OfflineEmbedder(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	dir := t.TempDir()
	corpus := writeFile(t, dir, "corpus.txt", "goroutines and channels\n---\nsourdough bread baking")

	cfg, err := config.Load(filepath.Join(dir, "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Corpus.Path = corpus
	cfg.Embedder.Type = "tfidf"
	cfg.Generator.Type = "anthropic"
	cfg.Generator.Anthropic = &config.AnthropicConfig{APIKeyEnv: "ANTHROPIC_API_KEY", Model: "m", MaxTokens: 64}

	a, err := buildApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("buildApp() error: %v", err)
	}
	defer a.Close()

	info, err := a.rag.LoadCorpus(context.Background())
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}
	if info.Chunks != 2 || info.Embedder != "tfidf" {
		t.Fatalf("info = %+v", info)
	}
	res, err := a.rag.Retrieve(context.Background(), "bread", 1)
	if err != nil || len(res) != 1 || res[0].Chunk.Index != 1 {
		t.Fatalf("Retrieve() = %+v, %v", res, err)
	}
}

func TestFactories_RejectUnknown(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Embedder.Type = "word2vec"
	cfg.Generator.Type = "llama"
	cfg.Chunker.Type = "para"
	cfg.Summarizer.Type = "lsa"
	if _, err := newEmbedder(context.Background(), cfg); err == nil {
		t.Error("newEmbedder accepted unknown type")
	}
	if _, err := newGenerator(context.Background(), cfg); err == nil {
		t.Error("newGenerator accepted unknown type")
	}
	if _, err := newChunker(cfg); err == nil {
		t.Error("newChunker accepted unknown type")
	}
	if _, err := newSummarizer(cfg); err == nil {
		t.Error("newSummarizer accepted unknown type")
	}
}
