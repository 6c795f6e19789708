package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"ai-flashcards/internal/models"
	"ai-flashcards/internal/ocr"
)

var (
	ErrPDFExtractionFailed   = errors.New("pdf extraction failed")
	ErrImageExtractionFailed = errors.New("image extraction failed")
	// ErrEmptyExtraction marks an upload that decoded fine but held no text.
	ErrEmptyExtraction = errors.New("no text could be extracted")
)

// UploadSource resolves a stored upload to its bytes.
type UploadSource interface {
	Open(ctx context.Context, doc models.Document) (io.ReadCloser, error)
}

// TextRecognizer runs OCR on one image. *ocr.Pool satisfies it with a
// scoped session per call.
type TextRecognizer interface {
	Recognize(ctx context.Context, img ocr.Image) (string, error)
}

// ContentService extracts raw text from uploaded PDFs and images.
type ContentService struct {
	uploads UploadSource
	pdf     *PDFService
	ocr     TextRecognizer
	log     *zap.Logger
}

func NewContentService(uploads UploadSource, pdf *PDFService, recognizer TextRecognizer, log *zap.Logger) *ContentService {
	return &ContentService{uploads: uploads, pdf: pdf, ocr: recognizer, log: log}
}

func (s *ContentService) ExtractTextFromPDF(ctx context.Context, doc models.Document) (string, error) {
	data, err := s.read(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPDFExtractionFailed, err)
	}

	text, err := s.pdf.ExtractText(data)
	if err != nil {
		s.log.Error("pdf extraction failed", zap.String("document", doc.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrPDFExtractionFailed, err)
	}
	return text, nil
}

// ExtractTextFromImage returns the recognized text, which may be empty.
func (s *ContentService) ExtractTextFromImage(ctx context.Context, doc models.Document) (string, error) {
	data, err := s.read(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageExtractionFailed, err)
	}

	text, err := s.ocr.Recognize(ctx, ocr.Image{Data: data, MIMEType: doc.MIMEType})
	if err != nil {
		s.log.Error("image extraction failed", zap.String("document", doc.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrImageExtractionFailed, err)
	}
	return text, nil
}

func (s *ContentService) read(ctx context.Context, doc models.Document) ([]byte, error) {
	rc, err := s.uploads.Open(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", doc.ID, err)
	}
	return data, nil
}
