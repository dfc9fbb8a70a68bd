package chunker

import (
	"testing"

	"ragchat/internal/domain"
)

func TestSentenceChunker_Windows(t *testing.T) {
	c := NewSentenceChunker(NewSeparatorChunker("", ""), 2, 1)
	doc := domain.Document{ID: "d", Content: "One. Two. Three. Four\n---\nSolo"}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	want := []string{"One. Two.", "Two. Three.", "Three. Four", "Solo"}
	if got := chunkTexts(chunks); !equalStrings(got, want) {
		t.Fatalf("Chunk() = %q, want %q", got, want)
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Fatalf("chunk %d has Index %d", i, ch.Index)
		}
	}
}

func TestSentenceChunker_OverlapClamped(t *testing.T) {
	c := NewSentenceChunker(NewSeparatorChunker("", ""), 1, 5)
	chunks, err := c.Chunk(domain.Document{Content: "A. B. C."})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
}

func TestSentenceChunker_EmptyInput(t *testing.T) {
	c := NewSentenceChunker(NewSeparatorChunker("", ""), 3, 0)
	chunks, err := c.Chunk(domain.Document{Content: ""})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}
