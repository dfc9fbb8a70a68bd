package domain

import (
	"errors"
	"io/fs"
	"testing"
)

func TestValidationErrorsWrapSentinel(t *testing.T) {
	for _, err := range []error{ErrEmptyMessage, ErrNoCorpusLoaded, ErrInvalidRole} {
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%v does not wrap ErrValidation", err)
		}
	}
}

func TestProviderErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	var err error = &EmbeddingProviderError{Provider: "gemini", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("embedding error does not unwrap to cause")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("embedding error must not be a validation error")
	}

	err = &GenerationProviderError{Provider: "openai", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("generation error does not unwrap to cause")
	}

	err = &CorpusLoadError{Path: "corpus.txt", Err: fs.ErrNotExist}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("corpus error does not unwrap to fs.ErrNotExist")
	}
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleSystem, true},
		{"model", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}
