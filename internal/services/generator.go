package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ai-flashcards/internal/ai"
	"ai-flashcards/internal/textproc"
)

const (
	// MaxInputCharsBeforeSummarization gates the summarization step.
	MaxInputCharsBeforeSummarization = 10000
	// SummaryTargetLength is the length requested from the summarizer.
	SummaryTargetLength = 2000

	DefaultCardCount     = 5
	DefaultChunkMaxChars = 500
	defaultConcurrency   = 4

	chunkQuestionMaxTokens = 256
	chunkQuestionTopP      = 0.9
)

var (
	// ErrSummarizationFailed aborts a generation run whose input was too long
	// to use directly and could not be summarized.
	ErrSummarizationFailed = errors.New("summarization failed")
	// ErrQuestionGenerationFailed is returned by GenerateQuestions when the
	// model call for a chunk fails.
	ErrQuestionGenerationFailed = errors.New("question generation failed")
	// ErrInvalidCardCount rejects a non-positive number of cards.
	ErrInvalidCardCount = errors.New("number of cards must be positive")
)

// GeneratedPair is a question and the statement that answers it.
type GeneratedPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type GeneratorOptions struct {
	ChunkMaxChars int
	Concurrency   int
}

// FlashcardGenerator turns source text into question/answer pairs.
type FlashcardGenerator struct {
	summarizer ai.Summarizer
	generator  ai.TextGenerator
	questions  *QuestionSynthesizer
	opts       GeneratorOptions
	log        *zap.Logger
}

func NewFlashcardGenerator(summarizer ai.Summarizer, generator ai.TextGenerator, opts GeneratorOptions, log *zap.Logger) *FlashcardGenerator {
	if opts.ChunkMaxChars <= 0 {
		opts.ChunkMaxChars = DefaultChunkMaxChars
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &FlashcardGenerator{
		summarizer: summarizer,
		generator:  generator,
		questions:  NewQuestionSynthesizer(generator, log),
		opts:       opts,
		log:        log,
	}
}

// Generate returns at most numberOfCards pairs drawn from text. Inputs longer
// than MaxInputCharsBeforeSummarization are summarized first; that is the
// only step that can fail. Text without usable sentences yields an empty
// result. Pairs follow the order of their statements in the text.
func (g *FlashcardGenerator) Generate(ctx context.Context, text string, numberOfCards int) ([]GeneratedPair, error) {
	if numberOfCards <= 0 {
		return nil, ErrInvalidCardCount
	}

	text, err := g.condense(ctx, text)
	if err != nil {
		return nil, err
	}

	keyPoints := textproc.SelectKeyPoints(textproc.KeySentences(text), numberOfCards)
	if len(keyPoints) == 0 {
		g.log.Info("no key statements found in input")
		return []GeneratedPair{}, nil
	}

	pairs := make([]GeneratedPair, len(keyPoints))
	var eg errgroup.Group
	eg.SetLimit(g.opts.Concurrency)
	for i, point := range keyPoints {
		eg.Go(func() error {
			pairs[i] = GeneratedPair{
				Question: g.questions.Synthesize(ctx, point),
				Answer:   point,
			}
			return nil
		})
	}
	_ = eg.Wait()

	return pairs, nil
}

// ProcessPDFText normalizes text extracted from a PDF and summarizes it when
// it is too long to use directly.
func (g *FlashcardGenerator) ProcessPDFText(ctx context.Context, raw string) (string, error) {
	return g.condense(ctx, textproc.Normalize(raw))
}

// GenerateQuestions asks the model for questions chunk by chunk until n
// have been collected. Unlike Generate it has no fallback: a failed model
// call aborts with ErrQuestionGenerationFailed.
func (g *FlashcardGenerator) GenerateQuestions(ctx context.Context, text string, n int) ([]string, error) {
	if n <= 0 {
		return nil, ErrInvalidCardCount
	}

	var questions []string
	for i, chunk := range textproc.SplitIntoChunks(text, g.opts.ChunkMaxChars) {
		if len(questions) >= n {
			break
		}
		raw, err := g.generator.Generate(ctx, chunk, ai.GenerateOptions{
			MaxNewTokens: chunkQuestionMaxTokens,
			Temperature:  questionTemperature,
			TopP:         chunkQuestionTopP,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %w", ErrQuestionGenerationFailed, i, err)
		}
		questions = append(questions, textproc.ExtractQuestions(raw)...)
	}

	if len(questions) > n {
		questions = questions[:n]
	}
	if questions == nil {
		questions = []string{}
	}
	return questions, nil
}

func (g *FlashcardGenerator) condense(ctx context.Context, text string) (string, error) {
	chars := utf8.RuneCountInString(text)
	if chars <= MaxInputCharsBeforeSummarization {
		return text, nil
	}

	g.log.Info("summarizing long input", zap.Int("chars", chars), zap.Int("target", SummaryTargetLength))
	summary, err := g.summarizer.Summarize(ctx, text, SummaryTargetLength)
	if err != nil {
		g.log.Error("summarization failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSummarizationFailed, err)
	}
	if summary == "" {
		return "", fmt.Errorf("%w: %w", ErrSummarizationFailed, ai.ErrEmptyResponse)
	}
	return summary, nil
}
