package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultHuggingFaceURL = "https://api-inference.huggingface.co/models/"

// HuggingFaceClient calls the hosted inference API for text2text and
// summarization models.
type HuggingFaceClient struct {
	apiKey        string
	baseURL       string
	summaryModel  string
	questionModel string
	httpClient    *http.Client
}

func NewHuggingFaceClient(cfg Config) *HuggingFaceClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultHuggingFaceURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &HuggingFaceClient{
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		summaryModel:  cfg.SummarizationModel,
		questionModel: cfg.QuestionModel,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
	}
}

type inferenceRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters any              `json:"parameters,omitempty"`
	Options    inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type generationParameters struct {
	MaxNewTokens int     `json:"max_new_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	TopP         float64 `json:"top_p,omitempty"`
}

type summarizationParameters struct {
	MaxLength int `json:"max_length"`
	MinLength int `json:"min_length"`
}

type inferenceOutput struct {
	GeneratedText string `json:"generated_text"`
	SummaryText   string `json:"summary_text"`
}

type inferenceError struct {
	Error string `json:"error"`
}

func (c *HuggingFaceClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	out, err := c.infer(ctx, c.questionModel, inferenceRequest{
		Inputs: prompt,
		Parameters: generationParameters{
			MaxNewTokens: opts.MaxNewTokens,
			Temperature:  opts.Temperature,
			TopP:         opts.TopP,
		},
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.GeneratedText), nil
}

func (c *HuggingFaceClient) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	out, err := c.infer(ctx, c.summaryModel, inferenceRequest{
		Inputs: text,
		Parameters: summarizationParameters{
			MaxLength: maxLength,
			MinLength: minSummaryLength(maxLength),
		},
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.SummaryText), nil
}

func (c *HuggingFaceClient) infer(ctx context.Context, model string, payload inferenceRequest) (inferenceOutput, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return inferenceOutput{}, fmt.Errorf("marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+model, bytes.NewReader(body))
	if err != nil {
		return inferenceOutput{}, fmt.Errorf("create inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return inferenceOutput{}, fmt.Errorf("execute inference request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return inferenceOutput{}, fmt.Errorf("read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr inferenceError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return inferenceOutput{}, fmt.Errorf("huggingface %s: status=%d: %s", model, resp.StatusCode, apiErr.Error)
		}
		return inferenceOutput{}, fmt.Errorf("huggingface %s: status=%d, body=%s", model, resp.StatusCode, string(raw))
	}

	var outputs []inferenceOutput
	if err := json.Unmarshal(raw, &outputs); err != nil {
		return inferenceOutput{}, fmt.Errorf("unmarshal inference response: %w", err)
	}
	if len(outputs) == 0 {
		return inferenceOutput{}, fmt.Errorf("huggingface %s: %w", model, ErrEmptyResponse)
	}
	return outputs[0], nil
}
