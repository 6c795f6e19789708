package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ai-flashcards/internal/ai"
	"ai-flashcards/internal/models"
	"ai-flashcards/internal/ocr"
)

type ingestionFixture struct {
	svc     *IngestionService
	cards   *FlashcardService
	uploads memoryUploads
}

func newIngestionFixture(t *testing.T, recognized string) ingestionFixture {
	t.Helper()
	conn := openTestDB(t)
	cards := NewFlashcardService(conn)
	uploads := memoryUploads{}

	gen := funcGenerator(func(_ context.Context, prompt string, _ ai.GenerateOptions) (string, error) {
		return "What does this statement describe?", nil
	})
	engine := engineFunc(func(context.Context, ocr.Image) (string, error) {
		return recognized, nil
	})

	content := NewContentService(uploads, NewPDFService(), ocr.NewPool(engine, 1, zap.NewNop()), zap.NewNop())
	generator := NewFlashcardGenerator(&mockSummarizer{}, gen, GeneratorOptions{}, zap.NewNop())
	return ingestionFixture{
		svc:     NewIngestionService(content, generator, cards, zap.NewNop()),
		cards:   cards,
		uploads: uploads,
	}
}

func TestIngestion_FromTextPersists(t *testing.T) {
	f := newIngestionFixture(t, "")
	ctx := context.Background()

	var steps []string
	saved, err := f.svc.FromText(ctx, "user-1", strings.Join(fiveSentences, " "), GenerateRequest{Count: 2, Tags: []string{"biology"}},
		func(step, _ string, _, _ int) { steps = append(steps, step) })

	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, card := range saved {
		assert.Equal(t, "What does this statement describe?", card.Question)
		assert.Equal(t, models.DifficultyMedium, card.Difficulty)
		assert.Equal(t, models.StringList{"biology"}, card.Tags)
	}
	assert.Equal(t, []string{"generate", "save", "complete"}, steps)

	list, page, err := f.cards.List(ctx, "user-1", FlashcardFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, page.Total)
}

func TestIngestion_FromTextWithoutSentences(t *testing.T) {
	f := newIngestionFixture(t, "")

	saved, err := f.svc.FromText(context.Background(), "user-1", "no punctuation here", GenerateRequest{Count: 5}, nil)

	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestIngestion_FromDocumentImage(t *testing.T) {
	f := newIngestionFixture(t, "Chlorophyll absorbs mostly blue and red light.\nGreen light is reflected by the leaves.")
	f.uploads["img"] = []byte("image bytes")

	saved, err := f.svc.FromDocument(context.Background(), "user-1",
		models.Document{ID: "img", OriginalName: "notes.png", MIMEType: "image/png"}, GenerateRequest{Count: 5}, nil)

	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Chlorophyll absorbs mostly blue and red light.", saved[0].Answer)
}

func TestIngestion_FromDocumentEmptyImage(t *testing.T) {
	f := newIngestionFixture(t, "   \n ")
	f.uploads["img"] = []byte("image bytes")

	_, err := f.svc.FromDocument(context.Background(), "user-1",
		models.Document{ID: "img", OriginalName: "blank.png", MIMEType: "image/png"}, GenerateRequest{Count: 5}, nil)

	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestIngestion_FromDocumentPDF(t *testing.T) {
	f := newIngestionFixture(t, "")
	f.uploads["pdf"] = buildPDF("BT /F1 12 Tf 72 712 Td (Neurons transmit signals using electrical impulses.) Tj ET")

	saved, err := f.svc.FromDocument(context.Background(), "user-1",
		models.Document{ID: "pdf", OriginalName: "notes.pdf", MIMEType: "application/pdf"}, GenerateRequest{Count: 3}, nil)

	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Contains(t, saved[0].Answer, "Neurons transmit signals using electrical impulses.")
}

func TestIngestion_FromDocumentBadPDF(t *testing.T) {
	f := newIngestionFixture(t, "")
	f.uploads["pdf"] = []byte("not a pdf at all")

	_, err := f.svc.FromDocument(context.Background(), "user-1",
		models.Document{ID: "pdf", OriginalName: "bad.pdf", MIMEType: "application/pdf"}, GenerateRequest{Count: 3}, nil)

	assert.ErrorIs(t, err, ErrPDFExtractionFailed)
}
