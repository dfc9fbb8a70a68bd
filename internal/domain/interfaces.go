package domain

// Document represents the corpus file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a retrievable passage of the corpus. Chunks are never mutated;
// a refresh rebuilds them wholesale.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// EmbeddedChunk pairs a chunk with its vector.
type EmbeddedChunk struct {
	Chunk     Chunk
	Embedding []float64
}

// SearchResult represents a matching chunk with its raw dot-product score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ConversationTurn is one message of caller-supplied history.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
