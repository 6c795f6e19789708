package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ai-flashcards/internal/models"
)

// ErrNotFound is returned when a record does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

// DocumentService stores uploads on disk and records them in the database.
// It resolves stored documents back to byte streams for the extractors.
type DocumentService struct {
	db        *sqlx.DB
	uploadDir string
}

func NewDocumentService(db *sqlx.DB, uploadDir string) *DocumentService {
	return &DocumentService{db: db, uploadDir: uploadDir}
}

func (s *DocumentService) Create(ctx context.Context, userID, original, mimeType string, src io.Reader) (*models.Document, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}

	doc := &models.Document{
		ID:           uuid.NewString(),
		UserID:       userID,
		OriginalName: filepath.Base(original),
		MIMEType:     mimeType,
		UploadedAt:   time.Now().UTC(),
	}
	doc.StoredPath = filepath.Join(s.uploadDir, doc.ID+strings.ToLower(filepath.Ext(original)))

	out, err := os.Create(doc.StoredPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(doc.StoredPath)
		return nil, fmt.Errorf("write file: %w", err)
	}
	doc.SizeBytes = size

	if _, err := s.db.NamedExecContext(ctx, `
		INSERT INTO documents (id, user_id, original_name, stored_path, mime_type, size_bytes, uploaded_at)
		VALUES (:id, :user_id, :original_name, :stored_path, :mime_type, :size_bytes, :uploaded_at);
	`, doc); err != nil {
		_ = os.Remove(doc.StoredPath)
		return nil, fmt.Errorf("insert document: %w", err)
	}

	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.GetContext(ctx, &doc, `
		SELECT id, user_id, original_name, stored_path, mime_type, size_bytes, uploaded_at
		FROM documents WHERE id = ? AND user_id = ?;
	`, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// Open returns the stored bytes of doc.
func (s *DocumentService) Open(_ context.Context, doc models.Document) (io.ReadCloser, error) {
	f, err := os.Open(doc.StoredPath)
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", doc.ID, err)
	}
	return f, nil
}
