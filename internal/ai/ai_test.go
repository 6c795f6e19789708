package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingClient struct {
	generates  int
	summarizes int
}

func (c *countingClient) Generate(context.Context, string, GenerateOptions) (string, error) {
	c.generates++
	return "ok", nil
}

func (c *countingClient) Summarize(context.Context, string, int) (string, error) {
	c.summarizes++
	return "ok", nil
}

func TestNew_WithoutKeyIsUnavailable(t *testing.T) {
	client, err := New(Config{Provider: ProviderOpenAI}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "p", GenerateOptions{})
	assert.ErrorIs(t, err, ErrAIUnavailable)
	_, err = client.Summarize(context.Background(), "p", 10)
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestNew_Providers(t *testing.T) {
	client, err := New(Config{Provider: ProviderHuggingFace, APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &HuggingFaceClient{}, client)

	client, err = New(Config{Provider: ProviderOpenAI, APIKey: "k", RequestsPerSecond: 2}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &RateLimited{}, client)

	_, err = New(Config{Provider: "nope", APIKey: "k"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRateLimited_CancelledContext(t *testing.T) {
	next := &countingClient{}
	limited := NewRateLimited(next, 0.001, 1)

	_, err := limited.Generate(context.Background(), "p", GenerateOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.Summarize(ctx, "p", 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, next.generates)
	assert.Equal(t, 0, next.summarizes)
}

func TestMinSummaryLength(t *testing.T) {
	assert.Equal(t, 50, minSummaryLength(2000))
	assert.Equal(t, 20, minSummaryLength(40))
}
