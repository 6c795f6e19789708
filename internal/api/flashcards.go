package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ai-flashcards/internal/models"
	"ai-flashcards/internal/services"
)

const flashcardSubject = "Flashcard"

func (s *Server) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	var payload services.FlashcardInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	card, err := s.flashcards.Create(r.Context(), UserIDFromContext(r.Context()), payload)
	if err != nil {
		s.fail(w, r, flashcardSubject, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := services.FlashcardFilter{
		Tags:       splitList(query["tags"]),
		Difficulty: models.Difficulty(query.Get("difficulty")),
		SortBy:     query.Get("sortBy"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
	}
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "difficulty must be easy, medium or hard")
		return
	}

	cards, page, err := s.flashcards.List(r.Context(), UserIDFromContext(r.Context()), filter)
	if err != nil {
		s.fail(w, r, flashcardSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"flashcards": cards,
		"pagination": page,
	})
}

func (s *Server) handleGetFlashcard(w http.ResponseWriter, r *http.Request) {
	card, err := s.flashcards.Get(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, flashcardSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleUpdateFlashcard(w http.ResponseWriter, r *http.Request) {
	var payload services.FlashcardUpdate
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	card, err := s.flashcards.Update(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), payload)
	if err != nil {
		s.fail(w, r, flashcardSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	if err := s.flashcards.Delete(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, flashcardSubject, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Flashcard deleted successfully"})
}
