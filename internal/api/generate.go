package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ai-flashcards/internal/models"
	"ai-flashcards/internal/services"
	"ai-flashcards/pkg/validator"
)

const (
	pdfSubject   = "PDF"
	imageSubject = "image"

	maxJobFiles       = 10
	multipartOverhead = 64 << 10
)

type generateTextRequest struct {
	Text  string   `json:"text" validate:"required"`
	Count *int     `json:"count"`
	Tags  []string `json:"tags"`
}

type generateQuestionsRequest struct {
	Text  string `json:"text" validate:"required"`
	Count *int   `json:"count"`
}

func (s *Server) handleGenerateFromText(w http.ResponseWriter, r *http.Request) {
	var payload generateTextRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(payload.Text) == "" || validator.ValidateStruct(payload) != nil {
		writeError(w, http.StatusBadRequest, "Text content is required")
		return
	}

	req := services.GenerateRequest{Count: countOrDefault(payload.Count), Tags: splitList(payload.Tags)}
	saved, err := s.ingestion.FromText(r.Context(), UserIDFromContext(r.Context()), payload.Text, req, nil)
	if err != nil {
		s.fail(w, r, "text", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var payload generateQuestionsRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(payload.Text) == "" || validator.ValidateStruct(payload) != nil {
		writeError(w, http.StatusBadRequest, "Text content is required")
		return
	}

	questions, err := s.generator.GenerateQuestions(r.Context(), payload.Text, countOrDefault(payload.Count))
	if err != nil {
		s.fail(w, r, "text", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleGenerateFromPDF(w http.ResponseWriter, r *http.Request) {
	s.generateFromUpload(w, r, "pdf", pdfSubject)
}

func (s *Server) handleGenerateFromImage(w http.ResponseWriter, r *http.Request) {
	s.generateFromUpload(w, r, "image", imageSubject)
}

// generateFromUpload stores the single file in field and runs it through
// the extraction pipeline matching subject.
func (s *Server) generateFromUpload(w http.ResponseWriter, r *http.Request, field, subject string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.fail(w, r, subject, err)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No "+subject+" file uploaded")
		return
	}
	req, err := generateRequestFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	up, err := openUpload(files[0], s.opts.MaxUploadBytes)
	if err != nil {
		s.log.Info("upload rejected", zap.String("name", files[0].Filename), zap.Error(err))
		s.fail(w, r, subject, err)
		return
	}
	defer up.file.Close()

	if isPDF := up.mimeType == "application/pdf"; isPDF != (subject == pdfSubject) {
		writeError(w, http.StatusBadRequest, "Expected a "+subject+" file")
		return
	}

	userID := UserIDFromContext(r.Context())
	doc, err := s.documents.Create(r.Context(), userID, up.name, up.mimeType, up.file)
	if err != nil {
		s.fail(w, r, subject, err)
		return
	}

	saved, err := s.ingestion.FromDocument(r.Context(), userID, *doc, req, nil)
	if err != nil {
		s.fail(w, r, subject, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// generateRequestFromForm reads count and tags from a multipart form.
func generateRequestFromForm(r *http.Request) (services.GenerateRequest, error) {
	req := services.GenerateRequest{Count: services.DefaultCardCount}
	if raw := strings.TrimSpace(r.FormValue("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New("count must be a number")
		}
		req.Count = n
	}
	if r.MultipartForm != nil {
		req.Tags = splitList(r.MultipartForm.Value["tags"])
	}
	return req, nil
}

func countOrDefault(count *int) int {
	if count == nil {
		return services.DefaultCardCount
	}
	return *count
}

// generationSubject names an upload kind in error messages.
func generationSubject(doc models.Document) string {
	if doc.IsPDF() {
		return pdfSubject
	}
	return imageSubject
}

// pendingDocument is an upload stored before its job started.
type pendingDocument struct {
	index int
	doc   models.Document
}

func (s *Server) handleCreateGenerationJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJobFiles*s.opts.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.fail(w, r, "upload", err)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	if len(files) > maxJobFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d files per job", maxJobFiles))
		return
	}
	req, err := generateRequestFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Filename
	}
	userID := UserIDFromContext(r.Context())
	jobID := s.jobs.CreateJob(userID, names)

	// uploads are stored now because the multipart temp files go away with the request
	pending := make([]pendingDocument, 0, len(files))
	for i, header := range files {
		up, err := openUpload(header, s.opts.MaxUploadBytes)
		if err != nil {
			s.log.Info("upload rejected", zap.String("name", header.Filename), zap.Error(err))
			_, msg := classify("upload", err)
			s.jobs.MarkFileError(jobID, i, msg)
			continue
		}
		doc, err := s.documents.Create(r.Context(), userID, up.name, up.mimeType, up.file)
		up.file.Close()
		if err != nil {
			s.log.Error("store upload", zap.String("name", header.Filename), zap.Error(err))
			s.jobs.MarkFileError(jobID, i, "Error processing file")
			continue
		}
		pending = append(pending, pendingDocument{index: i, doc: *doc})
	}

	s.jobs.MarkProcessing(jobID)
	go s.runGenerationJob(jobID, userID, req, pending)

	snapshot, _ := s.jobs.GetJob(jobID, userID)
	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.GetJob(chi.URLParam(r, "id"), UserIDFromContext(r.Context()))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) runGenerationJob(jobID, userID string, req services.GenerateRequest, pending []pendingDocument) {
	defer s.jobs.MarkFinished(jobID)

	for _, p := range pending {
		idx := p.index
		s.jobs.MarkFileStarted(jobID, idx)
		progress := func(step, message string, current, total int) {
			s.jobs.UpdateFileProgress(jobID, idx, step, message, current, total)
		}

		saved, err := s.ingestion.FromDocument(s.jobCtx, userID, p.doc, req, progress)
		if err != nil {
			_, msg := classify(generationSubject(p.doc), err)
			s.log.Warn("generation job file failed",
				zap.String("job", jobID),
				zap.String("document", p.doc.ID),
				zap.Error(err),
			)
			s.jobs.MarkFileError(jobID, idx, msg)
			continue
		}

		ids := make([]string, len(saved))
		for i, card := range saved {
			ids[i] = card.ID
		}
		s.jobs.MarkFileComplete(jobID, idx, JobResult{
			DocumentID:   p.doc.ID,
			Flashcards:   len(saved),
			FlashcardIDs: ids,
		})
	}
}
