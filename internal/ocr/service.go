package ocr

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// NewEngine builds the configured engine. Without an API key every
// recognition fails with ErrOCRUnavailable.
func NewEngine(cfg Config, log *zap.Logger) (Engine, error) {
	if cfg.APIKey == "" {
		log.Warn("no ocr api key configured, image uploads will fail", zap.String("provider", cfg.Provider))
		return unavailable{}, nil
	}

	switch cfg.Provider {
	case ProviderZAI:
		return NewVisionEngine(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAIEngine(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown ocr provider %q", cfg.Provider)
	}
}

// Pool leases a fixed number of recognition sessions over one engine.
type Pool struct {
	engine Engine
	slots  chan int
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
}

func NewPool(engine Engine, size int, log *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	slots := make(chan int, size)
	for i := 0; i < size; i++ {
		slots <- i
	}
	return &Pool{engine: engine, slots: slots, log: log}
}

// Session is a leased worker. It must be released exactly once; extra
// Release calls are no-ops.
type Session struct {
	pool *Pool
	id   int

	mu       sync.Mutex
	released bool
	calls    int
}

// Acquire blocks until a session is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case id := <-p.slots:
		p.log.Debug("ocr session acquired", zap.Int("session", id))
		return &Session{pool: p, id: id}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire ocr session: %w", ctx.Err())
	}
}

// WithSession runs fn on a leased session and releases it afterwards, on
// both the success and failure paths.
func (p *Pool) WithSession(ctx context.Context, fn func(*Session) error) error {
	session, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer session.Release()

	return fn(session)
}

// Recognize runs a single recognition on a scoped session.
func (p *Pool) Recognize(ctx context.Context, img Image) (string, error) {
	var text string
	err := p.WithSession(ctx, func(s *Session) error {
		var err error
		text, err = s.Recognize(ctx, img)
		return err
	})
	return text, err
}

// Available reports how many sessions are currently free.
func (p *Pool) Available() int {
	return len(p.slots)
}

// Close stops new acquisitions. Leased sessions can still be released.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (s *Session) Recognize(ctx context.Context, img Image) (string, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return "", ErrSessionReleased
	}
	s.calls++
	s.mu.Unlock()

	text, err := s.pool.engine.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("recognize image: %w", err)
	}
	return text, nil
}

func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.pool.slots <- s.id
	s.pool.log.Debug("ocr session released", zap.Int("session", s.id), zap.Int("calls", s.calls))
}
