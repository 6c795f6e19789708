package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client        *openai.Client
	summaryModel  string
	questionModel string
	timeout       time.Duration
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:        openai.NewClientWithConfig(oc),
		summaryModel:  cfg.SummarizationModel,
		questionModel: cfg.QuestionModel,
		timeout:       cfg.Timeout,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.questionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: float32(opts.Temperature),
		TopP:        float32(opts.TopP),
		MaxTokens:   opts.MaxNewTokens,
	}
	return c.complete(ctx, req)
}

func (c *OpenAIClient) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	system := fmt.Sprintf(
		"Summarize the user's text as plain prose between %d and %d characters. Keep the facts a student would need to study it. Do not add commentary.",
		minSummaryLength(maxLength), maxLength,
	)
	req := openai.ChatCompletionRequest{
		Model: c.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.2,
		// roughly four characters per token
		MaxTokens: max(64, maxLength/4+32),
	}
	return c.complete(ctx, req)
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: %w", ErrEmptyResponse)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
