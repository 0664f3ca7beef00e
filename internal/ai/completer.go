package ai

import (
	"context"
	"errors"
)

// Completer is the single outbound dependency of the extraction service:
// one prompt in, raw model text out. The production implementation talks
// to Gemini; tests substitute a stub.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrProvider covers an unreachable, unauthorized or over-quota
	// completion provider. Never retried here; policy belongs to the
	// caller.
	ErrProvider = errors.New("completion provider failure")

	// ErrMalformedOutput means the model returned text that is not
	// valid JSON after fence stripping.
	ErrMalformedOutput = errors.New("malformed model output")
)

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
