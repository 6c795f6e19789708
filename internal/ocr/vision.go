package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultZAIBaseURL = "https://open.bigmodel.cn/api/paas/v4/"
	defaultZAIModel   = "glm-4.5v"
)

// VisionEngine calls the Z.AI vision chat API directly.
type VisionEngine struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewVisionEngine(apiKey, baseURL, model string, timeout time.Duration) *VisionEngine {
	if baseURL == "" {
		baseURL = defaultZAIBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if model == "" {
		model = defaultZAIModel
	}
	return &VisionEngine{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type messageContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string           `json:"role"`
	Content []messageContent `json:"content"`
}

type thinkingConfig struct {
	Type string `json:"type"`
}

type visionRequest struct {
	Model       string          `json:"model"`
	Messages    []visionMessage `json:"messages"`
	Thinking    thinkingConfig  `json:"thinking"`
	Stream      bool            `json:"stream"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *VisionEngine) Recognize(ctx context.Context, img Image) (string, error) {
	request := visionRequest{
		Model: e.model,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []messageContent{
					{Type: "image_url", ImageURL: &imageURL{URL: img.DataURI()}},
					{Type: "text", Text: recognitionPrompt},
				},
			},
		},
		Thinking:    thinkingConfig{Type: "disabled"},
		Temperature: 0.1,
		MaxTokens:   4096,
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal vision request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Language", "en-US,en")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute vision request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision api error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var parsed visionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal vision response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("vision api returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
