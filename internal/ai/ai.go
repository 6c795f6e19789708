// Package ai wraps the hosted models the flashcard pipeline talks to: a
// text generator for questions and a summarizer for long inputs.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAIUnavailable is returned when no provider credentials are configured.
	ErrAIUnavailable = errors.New("ai provider is not configured")
	// ErrEmptyResponse is returned when a provider answers without output.
	ErrEmptyResponse = errors.New("ai provider returned no output")
)

const (
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

// GenerateOptions tunes a single text-generation call.
type GenerateOptions struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

// TextGenerator produces free-form text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Summarizer condenses text to at most maxLength characters.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLength int) (string, error)
}

// Client is a provider that can do both.
type Client interface {
	TextGenerator
	Summarizer
}

// Config selects and tunes the provider.
type Config struct {
	Provider           string        `validate:"oneof=openai huggingface"`
	APIKey             string
	BaseURL            string
	SummarizationModel string        `validate:"required"`
	QuestionModel      string        `validate:"required"`
	RequestsPerSecond  float64       `validate:"gte=0"`
	Burst              int           `validate:"gte=0"`
	Timeout            time.Duration `validate:"gt=0"`
}

// New builds the configured provider client. Without an API key every call
// fails with ErrAIUnavailable, which callers treat like any provider error.
func New(cfg Config, log *zap.Logger) (Client, error) {
	if cfg.APIKey == "" {
		log.Warn("no ai api key configured, generation will use fallbacks", zap.String("provider", cfg.Provider))
		return unavailable{}, nil
	}

	var client Client
	switch cfg.Provider {
	case ProviderOpenAI:
		client = NewOpenAIClient(cfg)
	case ProviderHuggingFace:
		client = NewHuggingFaceClient(cfg)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}

	if cfg.RequestsPerSecond > 0 {
		client = NewRateLimited(client, cfg.RequestsPerSecond, cfg.Burst)
	}

	log.Info("ai client ready",
		zap.String("provider", cfg.Provider),
		zap.String("summarization_model", cfg.SummarizationModel),
		zap.String("question_model", cfg.QuestionModel),
	)
	return client, nil
}

// minSummaryLength is the lower bound requested alongside maxLength.
func minSummaryLength(maxLength int) int {
	return min(50, maxLength/2)
}

type unavailable struct{}

func (unavailable) Generate(context.Context, string, GenerateOptions) (string, error) {
	return "", ErrAIUnavailable
}

func (unavailable) Summarize(context.Context, string, int) (string, error) {
	return "", ErrAIUnavailable
}
