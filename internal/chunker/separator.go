package chunker

import (
	"strconv"
	"strings"

	"ragchat/internal/domain"
)

const (
	DefaultSeparator    = "---"
	DefaultHeaderMarker = "#"
)

// SeparatorChunker splits a corpus into passages on separator lines: lines
// that equal the separator once trimmed. A passage whose first line starts
// with the header marker loses that line; passages left empty are dropped.
type SeparatorChunker struct {
	separator    string
	headerMarker string
}

// NewSeparatorChunker returns a chunker for the given separator. An empty
// headerMarker disables header stripping.
func NewSeparatorChunker(separator, headerMarker string) *SeparatorChunker {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &SeparatorChunker{separator: separator, headerMarker: headerMarker}
}

func (c *SeparatorChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, piece := range c.split(document.Content) {
		text := c.stripHeader(strings.TrimSpace(piece))
		if text == "" {
			continue
		}
		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Text:       text,
			Index:      idx,
		})
	}
	return chunks, nil
}

func (c *SeparatorChunker) split(content string) []string {
	var (
		pieces []string
		cur    []string
	)
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == c.separator {
			pieces = append(pieces, strings.Join(cur, "\n"))
			cur = cur[:0]
			continue
		}
		cur = append(cur, line)
	}
	return append(pieces, strings.Join(cur, "\n"))
}

func (c *SeparatorChunker) stripHeader(piece string) string {
	if c.headerMarker == "" || !strings.HasPrefix(piece, c.headerMarker) {
		return piece
	}
	_, body, _ := strings.Cut(piece, "\n")
	return strings.TrimSpace(body)
}
