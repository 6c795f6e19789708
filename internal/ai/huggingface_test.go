package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceClient_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/qg-model", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`[{"generated_text":" What is ATP? "}]`))
	}))
	defer srv.Close()

	client := NewHuggingFaceClient(Config{
		APIKey:        "hf-key",
		BaseURL:       srv.URL + "/models",
		QuestionModel: "qg-model",
	})
	out, err := client.Generate(context.Background(), "prompt", GenerateOptions{MaxNewTokens: 256, Temperature: 0.7, TopP: 0.9})

	require.NoError(t, err)
	assert.Equal(t, "What is ATP?", out)
	assert.Equal(t, "prompt", body["inputs"])
	params := body["parameters"].(map[string]any)
	assert.EqualValues(t, 256, params["max_new_tokens"])
	assert.InDelta(t, 0.9, params["top_p"], 0.0001)
}

func TestHuggingFaceClient_Summarize(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/sum-model", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`[{"summary_text":"condensed"}]`))
	}))
	defer srv.Close()

	client := NewHuggingFaceClient(Config{APIKey: "k", BaseURL: srv.URL + "/models/", SummarizationModel: "sum-model"})
	out, err := client.Summarize(context.Background(), "long input", 80)

	require.NoError(t, err)
	assert.Equal(t, "condensed", out)
	params := body["parameters"].(map[string]any)
	assert.EqualValues(t, 80, params["max_length"])
	assert.EqualValues(t, 40, params["min_length"])
}

func TestHuggingFaceClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusServiceUnavailable, body: `{"error":"Model is loading"}`, wantErr: "Model is loading"},
		{name: "empty list", status: http.StatusOK, body: `[]`, wantErr: ErrEmptyResponse.Error()},
		{name: "bad json", status: http.StatusOK, body: `not json`, wantErr: "unmarshal inference response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewHuggingFaceClient(Config{APIKey: "k", BaseURL: srv.URL, QuestionModel: "m"})
			_, err := client.Generate(context.Background(), "p", GenerateOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
