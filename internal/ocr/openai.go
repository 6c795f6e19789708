package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIVisionModel = "gpt-4o-mini"

// OpenAIEngine recognizes text with an OpenAI-compatible vision model.
type OpenAIEngine struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIEngine(apiKey, baseURL, model string, timeout time.Duration) *OpenAIEngine {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIVisionModel
	}
	return &OpenAIEngine{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (e *OpenAIEngine) Recognize(ctx context.Context, img Image) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: recognitionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    img.DataURI(),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		Temperature: 0.1,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai vision returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
