package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ai-flashcards/internal/models"
)

// ProgressCallback is called during generation to report progress.
type ProgressCallback func(step, message string, current, total int)

type GenerateRequest struct {
	Count int
	Tags  []string
}

// IngestionService coordinates text extraction, flashcard generation and
// persistence for one request.
type IngestionService struct {
	content   *ContentService
	generator *FlashcardGenerator
	cards     *FlashcardService
	log       *zap.Logger
}

func NewIngestionService(content *ContentService, generator *FlashcardGenerator, cards *FlashcardService, log *zap.Logger) *IngestionService {
	return &IngestionService{
		content:   content,
		generator: generator,
		cards:     cards,
		log:       log,
	}
}

// FromText generates and saves flashcards for pasted text. Text without
// usable sentences saves nothing and returns an empty slice.
func (s *IngestionService) FromText(ctx context.Context, userID, text string, req GenerateRequest, progress ProgressCallback) ([]models.Flashcard, error) {
	report(progress, "generate", "Generating flashcards", 10, 100)
	pairs, err := s.generator.Generate(ctx, text, req.Count)
	if err != nil {
		return nil, err
	}

	report(progress, "save", fmt.Sprintf("Saving %d flashcards", len(pairs)), 80, 100)
	saved, err := s.cards.SaveGenerated(ctx, userID, pairs, req.Tags)
	if err != nil {
		return nil, err
	}

	s.log.Info("flashcards generated",
		zap.String("user", userID),
		zap.Int("requested", req.Count),
		zap.Int("saved", len(saved)),
	)
	report(progress, "complete", "Processing complete", 100, 100)
	return saved, nil
}

// FromDocument extracts text from a stored upload and generates flashcards
// from it. Uploads that yield no text fail with ErrEmptyExtraction.
func (s *IngestionService) FromDocument(ctx context.Context, userID string, doc models.Document, req GenerateRequest, progress ProgressCallback) ([]models.Flashcard, error) {
	report(progress, "extract", "Extracting text from "+doc.OriginalName, 0, 100)

	var text string
	if doc.IsPDF() {
		raw, err := s.content.ExtractTextFromPDF(ctx, doc)
		if err != nil {
			return nil, err
		}
		if text, err = s.generator.ProcessPDFText(ctx, raw); err != nil {
			return nil, err
		}
	} else {
		var err error
		if text, err = s.content.ExtractTextFromImage(ctx, doc); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(text) == "" {
		s.log.Info("upload produced no text", zap.String("document", doc.ID), zap.String("mime", doc.MIMEType))
		return nil, fmt.Errorf("%s: %w", doc.OriginalName, ErrEmptyExtraction)
	}

	return s.FromText(ctx, userID, text, req, progress)
}

func report(progress ProgressCallback, step, message string, current, total int) {
	if progress != nil {
		progress(step, message, current, total)
	}
}
