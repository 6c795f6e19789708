package ocr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEngine struct {
	text string
	err  error

	mu    sync.Mutex
	calls int
}

func (s *stubEngine) Recognize(context.Context, Image) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.text, s.err
}

func TestPool_RecognizeReleasesOnSuccess(t *testing.T) {
	pool := NewPool(&stubEngine{text: "hello"}, 2, zap.NewNop())

	text, err := pool.Recognize(context.Background(), Image{Data: []byte("x")})

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 2, pool.Available())
}

func TestPool_RecognizeReleasesOnError(t *testing.T) {
	engineErr := errors.New("engine exploded")
	pool := NewPool(&stubEngine{err: engineErr}, 1, zap.NewNop())

	_, err := pool.Recognize(context.Background(), Image{})

	require.Error(t, err)
	assert.ErrorIs(t, err, engineErr)
	assert.Equal(t, 1, pool.Available())
}

func TestPool_WithSessionReleasesOnPanic(t *testing.T) {
	pool := NewPool(&stubEngine{}, 1, zap.NewNop())

	assert.Panics(t, func() {
		_ = pool.WithSession(context.Background(), func(*Session) error {
			panic("boom")
		})
	})
	assert.Equal(t, 1, pool.Available())
}

func TestPool_AcquireWaitsForRelease(t *testing.T) {
	pool := NewPool(&stubEngine{}, 1, zap.NewNop())

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	held.Release()
	held.Release()
	assert.Equal(t, 1, pool.Available())

	_, err = held.Recognize(context.Background(), Image{})
	assert.ErrorIs(t, err, ErrSessionReleased)
}

func TestPool_Closed(t *testing.T) {
	pool := NewPool(&stubEngine{}, 1, zap.NewNop())
	pool.Close()

	_, err := pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(Config{Provider: ProviderZAI}, zap.NewNop())
	require.NoError(t, err)
	_, err = engine.Recognize(context.Background(), Image{})
	assert.ErrorIs(t, err, ErrOCRUnavailable)

	engine, err = NewEngine(Config{Provider: ProviderOpenAI, APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEngine{}, engine)

	_, err = NewEngine(Config{Provider: "tesseract", APIKey: "k"}, zap.NewNop())
	assert.Error(t, err)
}
