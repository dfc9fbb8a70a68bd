// Package prompt turns retrieved chunks and conversation history into the
// payload sent to a generation provider.
package prompt

import (
	"strings"

	"ragchat/internal/domain"
)

const (
	DefaultSystemInstruction = "You are a helpful assistant that answers questions about the provided documents. " +
		"Answer only from the supplied context. If the context does not contain the answer, " +
		"reply exactly: \"I could not find relevant information in the provided documents.\""
	DefaultDocumentLabel   = "[document]"
	DefaultMaxContextChars = 8000

	ChunkSeparator = "\n\n---\n\n"
)

// Prompt is the assembled payload. Turns ends with the combined
// question and context turn.
type Prompt struct {
	SystemInstruction string
	Turns             []domain.ConversationTurn
}

// Inline returns the turns with the system instruction prepended as a system
// turn, for providers without a system instruction channel.
func (p Prompt) Inline() []domain.ConversationTurn {
	if p.SystemInstruction == "" {
		return p.Turns
	}
	out := make([]domain.ConversationTurn, 0, len(p.Turns)+1)
	out = append(out, domain.ConversationTurn{Role: domain.RoleSystem, Content: p.SystemInstruction})
	return append(out, p.Turns...)
}

type Assembler struct {
	systemInstruction string
	label             string
	maxContextChars   int
}

// NewAssembler builds an assembler. Empty strings select the defaults;
// maxContextChars of 0 disables the context limit.
func NewAssembler(systemInstruction, label string, maxContextChars int) *Assembler {
	if systemInstruction == "" {
		systemInstruction = DefaultSystemInstruction
	}
	if label == "" {
		label = DefaultDocumentLabel
	}
	if maxContextChars < 0 {
		maxContextChars = 0
	}
	return &Assembler{systemInstruction: systemInstruction, label: label, maxContextChars: maxContextChars}
}

// Assemble keeps history order and the ranked order of results.
func (a *Assembler) Assemble(message string, results []domain.SearchResult, history []domain.ConversationTurn) Prompt {
	turns := make([]domain.ConversationTurn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, domain.ConversationTurn{
		Role:    domain.RoleUser,
		Content: "Question: " + message + "\n\nContext:\n" + a.Context(results),
	})
	return Prompt{SystemInstruction: a.systemInstruction, Turns: turns}
}

// Context renders the labeled chunks joined by ChunkSeparator, stopping at
// the first chunk that would exceed the character limit.
func (a *Assembler) Context(results []domain.SearchResult) string {
	var b strings.Builder
	used := 0
	for i, r := range results {
		block := a.label + " " + r.Chunk.Text
		sep := ""
		if i > 0 {
			sep = ChunkSeparator
		}
		n := runeLen(sep) + runeLen(block)
		if a.maxContextChars > 0 && used+n > a.maxContextChars {
			if i == 0 {
				b.WriteString(truncateRunes(block, a.maxContextChars))
			}
			break
		}
		b.WriteString(sep)
		b.WriteString(block)
		used += n
	}
	return b.String()
}

func runeLen(s string) int { return len([]rune(s)) }

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
