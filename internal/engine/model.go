package engine

import (
	"context"
	"strings"
)

// Generator is the boundary to the underlying language model. Loading,
// tokenization, and generation live behind it; the decision pipeline only
// ever sees generated text. Guardrail override paths never call it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StubGenerator is a deterministic placeholder generator used by tests and
// by serve when no model endpoint is configured.
type StubGenerator struct{}

func (StubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "I'm here.", nil
	}
	return "I can help with that.", nil
}
