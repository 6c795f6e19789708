package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ai-flashcards/internal/ai"
)

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	args := m.Called(ctx, text, maxLength)
	return args.String(0), args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

// funcGenerator adapts a function to ai.TextGenerator.
type funcGenerator func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)

func (f funcGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	return f(ctx, prompt, opts)
}
