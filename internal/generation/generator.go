package generation

import (
	"context"

	"ragchat/internal/domain"
)

// Request is the provider-neutral generation payload: an optional system
// instruction and the ordered conversation, last turn being the new prompt.
type Request struct {
	SystemInstruction string
	Turns             []domain.ConversationTurn
}

type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// SystemInstructor is implemented by generators with a dedicated system
// instruction channel. Generators without it receive the instruction as the
// first turn.
type SystemInstructor interface {
	SupportsSystemInstruction() bool
}

// HasSystemChannel reports whether g accepts Request.SystemInstruction.
func HasSystemChannel(g Generator) bool {
	si, ok := g.(SystemInstructor)
	return ok && si.SupportsSystemInstruction()
}
