package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisionEngine_Recognize(t *testing.T) {
	var got visionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer zai-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Photosynthesis converts light.  "}}]}`))
	}))
	defer srv.Close()

	engine := NewVisionEngine("zai-key", srv.URL+"/api", "", 5*time.Second)
	text, err := engine.Recognize(context.Background(), Image{Data: []byte{0x89, 0x50}, MIMEType: "image/png"})

	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light.", text)
	assert.Equal(t, defaultZAIModel, got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "data:image/png;base64,iVA=", got.Messages[0].Content[0].ImageURL.URL)
	assert.Equal(t, recognitionPrompt, got.Messages[0].Content[1].Text)
}

func TestVisionEngine_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad image"}`))
	}))
	defer srv.Close()

	engine := NewVisionEngine("k", srv.URL, "m", time.Second)
	_, err := engine.Recognize(context.Background(), Image{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestImage_DataURIDefaultsToPNG(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,", Image{}.DataURI())
	assert.Equal(t, "data:image/jpeg;base64,AQ==", Image{Data: []byte{1}, MIMEType: "image/jpeg"}.DataURI())
}
