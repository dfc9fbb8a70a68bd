package domain

import (
	"errors"
	"fmt"
)

// ErrValidation marks caller-correctable failures. Everything wrapping it is
// reported back to the caller verbatim.
var ErrValidation = errors.New("validation failed")

var (
	ErrEmptyMessage   = fmt.Errorf("%w: message is required", ErrValidation)
	ErrNoCorpusLoaded = fmt.Errorf("%w: no corpus loaded", ErrValidation)
	ErrInvalidRole    = fmt.Errorf("%w: invalid history role", ErrValidation)
)

// EmbeddingProviderError is returned when the embedding provider fails or
// returns malformed vectors.
type EmbeddingProviderError struct {
	Provider string
	Err      error
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// GenerationProviderError is returned when the generation provider fails.
type GenerationProviderError struct {
	Provider string
	Err      error
}

func (e *GenerationProviderError) Error() string {
	return fmt.Sprintf("generation provider %s: %v", e.Provider, e.Err)
}

func (e *GenerationProviderError) Unwrap() error { return e.Err }

// DimensionMismatchError reports vectors of different lengths meeting in one
// similarity computation.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// CorpusLoadError is returned when the corpus file cannot be read.
type CorpusLoadError struct {
	Path string
	Err  error
}

func (e *CorpusLoadError) Error() string {
	return fmt.Sprintf("load corpus %s: %v", e.Path, e.Err)
}

func (e *CorpusLoadError) Unwrap() error { return e.Err }
