package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ai-flashcards/internal/services"
)

const (
	maxMultipartMemory    = 8 << 20 // 8 MB
	defaultRequestTimeout = 2 * time.Minute
	defaultMaxUploadBytes = 10 << 20
	jobRetention          = time.Hour
	jobSweepInterval      = 10 * time.Minute
)

// Services are the application services the HTTP layer exposes.
type Services struct {
	Flashcards *services.FlashcardService
	Sessions   *services.StudySessionService
	Documents  *services.DocumentService
	Ingestion  *services.IngestionService
	Generator  *services.FlashcardGenerator
}

type Options struct {
	JWTSecret      string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	router     chi.Router
	flashcards *services.FlashcardService
	sessions   *services.StudySessionService
	documents  *services.DocumentService
	ingestion  *services.IngestionService
	generator  *services.FlashcardGenerator
	jobs       *JobManager
	opts       Options
	log        *zap.Logger

	// jobCtx outlives requests and is cancelled by Close.
	jobCtx    context.Context
	cancelJob context.CancelFunc
}

func NewServer(svc Services, opts Options, log *zap.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:     chi.NewRouter(),
		flashcards: svc.Flashcards,
		sessions:   svc.Sessions,
		documents:  svc.Documents,
		ingestion:  svc.Ingestion,
		generator:  svc.Generator,
		jobs:       NewJobManager(),
		opts:       opts,
		log:        log,
		jobCtx:     jobCtx,
		cancelJob:  cancel,
	}
	s.routes()
	go s.sweepJobs(jobSweepInterval)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// sweepJobs drops finished jobs older than jobRetention until Close.
func (s *Server) sweepJobs(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.jobCtx.Done():
			return
		case now := <-ticker.C:
			if n := s.jobs.Prune(now.Add(-jobRetention)); n > 0 {
				s.log.Debug("pruned finished jobs", zap.Int("count", n))
			}
		}
	}
}

// Close cancels generation jobs that are still running and stops the job sweeper.
func (s *Server) Close() {
	s.cancelJob()
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth([]byte(s.opts.JWTSecret), s.log))

			r.Route("/flashcards", func(r chi.Router) {
				r.Post("/", s.handleCreateFlashcard)
				r.Get("/", s.handleListFlashcards)

				r.Route("/generate", func(r chi.Router) {
					r.Post("/text", s.handleGenerateFromText)
					r.Post("/pdf", s.handleGenerateFromPDF)
					r.Post("/image", s.handleGenerateFromImage)
					r.Post("/questions", s.handleGenerateQuestions)
					r.Post("/jobs", s.handleCreateGenerationJob)
					r.Get("/jobs/{id}", s.handleJobStatus)
				})

				r.Get("/{id}", s.handleGetFlashcard)
				r.Put("/{id}", s.handleUpdateFlashcard)
				r.Delete("/{id}", s.handleDeleteFlashcard)
			})

			r.Route("/study-sessions", func(r chi.Router) {
				r.Post("/", s.handleCreateSession)
				r.Get("/", s.handleListSessions)
				r.Get("/stats/performance", s.handleSessionStats)
				r.Get("/{id}", s.handleGetSession)
				r.Put("/{id}", s.handleUpdateSession)
			})
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps service errors onto status codes. subject names the resource
// or upload kind in user-facing messages.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, subject string, err error) {
	status, msg := classify(subject, err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}

func classify(subject string, err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, subject + " not found"
	case errors.Is(err, services.ErrEmptyExtraction):
		return http.StatusBadRequest, "Could not extract text from " + subject
	case errors.Is(err, services.ErrInvalidCardCount),
		errors.Is(err, services.ErrInvalidFlashcard),
		errors.Is(err, services.ErrInvalidSession),
		errors.Is(err, errUnsupportedUpload):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errUploadTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "File exceeds the upload size limit"
	case errors.Is(err, services.ErrSummarizationFailed):
		return http.StatusInternalServerError, "Error generating flashcards"
	case errors.Is(err, services.ErrQuestionGenerationFailed):
		return http.StatusInternalServerError, "Error generating questions"
	case errors.Is(err, services.ErrPDFExtractionFailed), errors.Is(err, services.ErrImageExtractionFailed):
		return http.StatusInternalServerError, "Error processing file"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// queryInt reads a positive integer query parameter, falling back on
// missing or malformed values.
func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

// splitList flattens repeated and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
