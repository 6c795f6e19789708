package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ai-flashcards/internal/ai"
	"ai-flashcards/internal/textproc"
)

const (
	questionPrompt      = "Generate a question based on this text: %s"
	questionTemperature = 0.7
	questionMaxTokens   = 64
	fallbackPrefixChars = 50
)

// QuestionSynthesizer turns a statement into a question whose answer is
// that statement. It never fails: when the model errors or produces no
// usable question, a templated fallback is returned instead.
type QuestionSynthesizer struct {
	generator ai.TextGenerator
	log       *zap.Logger
}

func NewQuestionSynthesizer(generator ai.TextGenerator, log *zap.Logger) *QuestionSynthesizer {
	return &QuestionSynthesizer{generator: generator, log: log}
}

func (q *QuestionSynthesizer) Synthesize(ctx context.Context, statement string) string {
	raw, err := q.generator.Generate(ctx, fmt.Sprintf(questionPrompt, statement), ai.GenerateOptions{
		MaxNewTokens: questionMaxTokens,
		Temperature:  questionTemperature,
	})
	if err != nil {
		q.log.Warn("question generation failed, using fallback", zap.Error(err))
		return FallbackQuestion(statement)
	}

	if questions := textproc.ExtractQuestions(raw); len(questions) > 0 {
		return questions[0]
	}

	q.log.Debug("no question in generated text, using fallback", zap.String("generated", raw))
	return FallbackQuestion(statement)
}

// FallbackQuestion builds the templated question used when synthesis
// produces nothing usable.
func FallbackQuestion(statement string) string {
	prefix := []rune(statement)
	if len(prefix) > fallbackPrefixChars {
		prefix = prefix[:fallbackPrefixChars]
	}
	return `What is meant by "` + string(prefix) + `..."?`
}
