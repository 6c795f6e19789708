package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ai-flashcards/internal/services"
	"ai-flashcards/pkg/validator"
)

const sessionSubject = "Study session"

type createSessionRequest struct {
	FlashcardIDs []string `json:"flashcardIds" validate:"required,min=1,dive,required"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateStruct(payload); err != nil {
		writeError(w, http.StatusBadRequest, "Flashcard IDs array is required")
		return
	}

	session, err := s.sessions.Create(r.Context(), UserIDFromContext(r.Context()), payload.FlashcardIDs)
	if err != nil {
		s.fail(w, r, sessionSubject, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, page, err := s.sessions.List(r.Context(), UserIDFromContext(r.Context()),
		queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		s.fail(w, r, sessionSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"studySessions": sessions,
		"pagination":    page,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, sessionSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var payload services.SessionUpdate
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	session, err := s.sessions.Update(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), payload)
	if err != nil {
		s.fail(w, r, sessionSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.sessions.Stats(r.Context(), UserIDFromContext(r.Context()),
		queryInt(r, "days", services.DefaultStatsDays))
	if err != nil {
		s.fail(w, r, sessionSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
