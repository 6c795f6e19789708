package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ai-flashcards/internal/models"
)

// ErrInvalidFlashcard is returned for cards with a blank or too-short side.
var ErrInvalidFlashcard = errors.New("invalid flashcard")

const (
	SortCreatedAt  = "createdAt"
	SortNextReview = "nextReview"
	SortDifficulty = "difficulty"

	defaultFlashcardLimit = 20
	maxFlashcardLimit     = 100
	minQuestionChars      = 3
)

const flashcardColumns = `id, user_id, question, answer, tags, difficulty, next_review, review_count,
	correct_count, incorrect_count, last_reviewed, created_at, updated_at`

type FlashcardInput struct {
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Tags       []string          `json:"tags"`
	Difficulty models.Difficulty `json:"difficulty"`
}

// FlashcardUpdate is a partial update; nil fields are left unchanged.
// Result records a review in the same call.
type FlashcardUpdate struct {
	Question   *string              `json:"question"`
	Answer     *string              `json:"answer"`
	Tags       []string             `json:"tags"`
	Difficulty *models.Difficulty   `json:"difficulty"`
	NextReview *time.Time           `json:"nextReview"`
	Result     *models.ReviewResult `json:"result"`
}

type FlashcardFilter struct {
	Tags       []string
	Difficulty models.Difficulty
	SortBy     string
	Page       int
	Limit      int
}

type FlashcardService struct {
	db *sqlx.DB
}

func NewFlashcardService(db *sqlx.DB) *FlashcardService {
	return &FlashcardService{db: db}
}

// ValidateFlashcard checks that the question has at least three characters
// and the answer is not blank, both after trimming.
func ValidateFlashcard(question, answer string) error {
	if utf8.RuneCountInString(strings.TrimSpace(question)) < minQuestionChars {
		return fmt.Errorf("%w: question must be at least %d characters", ErrInvalidFlashcard, minQuestionChars)
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("%w: answer is required", ErrInvalidFlashcard)
	}
	return nil
}

func (s *FlashcardService) Create(ctx context.Context, userID string, in FlashcardInput) (*models.Flashcard, error) {
	if err := ValidateFlashcard(in.Question, in.Answer); err != nil {
		return nil, err
	}
	if in.Difficulty == "" {
		in.Difficulty = models.DifficultyMedium
	}
	if !in.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidFlashcard, in.Difficulty)
	}

	card := newFlashcard(userID, in.Question, in.Answer, in.Tags, in.Difficulty, time.Now().UTC())
	if err := insertFlashcard(ctx, s.db, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// SaveGenerated persists generated pairs as new medium-difficulty cards due
// now, in one transaction. Pairs with a blank side are skipped.
func (s *FlashcardService) SaveGenerated(ctx context.Context, userID string, pairs []GeneratedPair, tags []string) (saved []models.Flashcard, err error) {
	saved = make([]models.Flashcard, 0, len(pairs))
	if len(pairs) == 0 {
		return saved, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, pair := range pairs {
		if strings.TrimSpace(pair.Question) == "" || strings.TrimSpace(pair.Answer) == "" {
			continue
		}
		card := newFlashcard(userID, pair.Question, pair.Answer, tags, models.DifficultyMedium, now)
		if err = insertFlashcard(ctx, tx, &card); err != nil {
			return nil, err
		}
		saved = append(saved, card)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit generated flashcards: %w", err)
	}
	return saved, nil
}

func (s *FlashcardService) Get(ctx context.Context, userID, id string) (*models.Flashcard, error) {
	return getFlashcard(ctx, s.db, userID, id)
}

func (s *FlashcardService) List(ctx context.Context, userID string, filter FlashcardFilter) ([]models.Flashcard, models.Pagination, error) {
	page := max(filter.Page, 1)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFlashcardLimit
	}
	limit = min(limit, maxFlashcardLimit)

	where := []string{"user_id = ?"}
	args := []any{userID}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = ?")
		args = append(args, filter.Difficulty)
	}
	if len(filter.Tags) > 0 {
		clause, tagArgs, err := sqlx.In(`EXISTS (SELECT 1 FROM json_each(flashcards.tags) WHERE json_each.value IN (?))`, filter.Tags)
		if err != nil {
			return nil, models.Pagination{}, fmt.Errorf("expand tag filter: %w", err)
		}
		where = append(where, clause)
		args = append(args, tagArgs...)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM flashcards WHERE `+cond, args...); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count flashcards: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM flashcards WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		flashcardColumns, cond, flashcardOrder(filter.SortBy))
	cards := []models.Flashcard{}
	if err := s.db.SelectContext(ctx, &cards, query, append(args, limit, (page-1)*limit)...); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list flashcards: %w", err)
	}

	return cards, models.NewPagination(total, page, limit), nil
}

// Update applies a partial update and, when Result is set, records the
// review in the same transaction. Nothing is written if any part is invalid.
func (s *FlashcardService) Update(ctx context.Context, userID, id string, upd FlashcardUpdate) (_ *models.Flashcard, err error) {
	if upd.Difficulty != nil && !upd.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidFlashcard, *upd.Difficulty)
	}
	if upd.Result != nil && !upd.Result.Valid() {
		return nil, fmt.Errorf("%w: unknown review result %q", ErrInvalidFlashcard, *upd.Result)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	card, err := getFlashcard(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}

	if upd.Question != nil {
		card.Question = strings.TrimSpace(*upd.Question)
	}
	if upd.Answer != nil {
		card.Answer = strings.TrimSpace(*upd.Answer)
	}
	if err = ValidateFlashcard(card.Question, card.Answer); err != nil {
		return nil, err
	}
	if upd.Tags != nil {
		card.Tags = cleanTags(upd.Tags)
	}
	if upd.Difficulty != nil {
		card.Difficulty = *upd.Difficulty
	}
	if upd.NextReview != nil {
		card.NextReview = upd.NextReview.UTC()
	}
	card.UpdatedAt = time.Now().UTC()

	if _, err = tx.NamedExecContext(ctx, `
		UPDATE flashcards
		SET question = :question, answer = :answer, tags = :tags, difficulty = :difficulty,
		    next_review = :next_review, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id;
	`, card); err != nil {
		return nil, fmt.Errorf("update flashcard: %w", err)
	}

	if upd.Result != nil {
		if err = recordReview(ctx, tx, userID, id, *upd.Result, card.UpdatedAt); err != nil {
			return nil, err
		}
		if card, err = getFlashcard(ctx, tx, userID, id); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit flashcard update: %w", err)
	}
	return card, nil
}

func (s *FlashcardService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return fmt.Errorf("delete flashcard: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("flashcard %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordReview bumps the review counters of a card and stamps lastReviewed.
// A skip only counts as a review.
func (s *FlashcardService) RecordReview(ctx context.Context, userID, id string, result models.ReviewResult) error {
	return recordReview(ctx, s.db, userID, id, result, time.Now().UTC())
}

// CountOwned returns how many of ids are cards owned by userID.
func (s *FlashcardService) CountOwned(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(DISTINCT id) FROM flashcards WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("expand id filter: %w", err)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count owned flashcards: %w", err)
	}
	return n, nil
}

func recordReview(ctx context.Context, exec sqlx.ExecerContext, userID, id string, result models.ReviewResult, at time.Time) error {
	if !result.Valid() {
		return fmt.Errorf("%w: unknown review result %q", ErrInvalidFlashcard, result)
	}
	var correct, incorrect int
	switch result {
	case models.ReviewCorrect:
		correct = 1
	case models.ReviewIncorrect:
		incorrect = 1
	}

	res, err := exec.ExecContext(ctx, `
		UPDATE flashcards
		SET review_count = review_count + 1,
		    correct_count = correct_count + ?,
		    incorrect_count = incorrect_count + ?,
		    last_reviewed = ?,
		    updated_at = ?
		WHERE id = ? AND user_id = ?;
	`, correct, incorrect, at, at, id, userID)
	if err != nil {
		return fmt.Errorf("record review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("flashcard %s: %w", id, ErrNotFound)
	}
	return nil
}

func getFlashcard(ctx context.Context, q sqlx.QueryerContext, userID, id string) (*models.Flashcard, error) {
	var card models.Flashcard
	err := sqlx.GetContext(ctx, q, &card,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("flashcard %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get flashcard: %w", err)
	}
	return &card, nil
}

func newFlashcard(userID, question, answer string, tags []string, difficulty models.Difficulty, now time.Time) models.Flashcard {
	return models.Flashcard{
		ID:         uuid.NewString(),
		UserID:     userID,
		Question:   strings.TrimSpace(question),
		Answer:     strings.TrimSpace(answer),
		Tags:       cleanTags(tags),
		Difficulty: difficulty,
		NextReview: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func insertFlashcard(ctx context.Context, exec sqlx.ExtContext, card *models.Flashcard) error {
	if _, err := sqlx.NamedExecContext(ctx, exec, `
		INSERT INTO flashcards (id, user_id, question, answer, tags, difficulty, next_review,
		                        review_count, correct_count, incorrect_count, last_reviewed, created_at, updated_at)
		VALUES (:id, :user_id, :question, :answer, :tags, :difficulty, :next_review,
		        :review_count, :correct_count, :incorrect_count, :last_reviewed, :created_at, :updated_at);
	`, card); err != nil {
		return fmt.Errorf("insert flashcard: %w", err)
	}
	return nil
}

func flashcardOrder(sortBy string) string {
	switch sortBy {
	case SortNextReview:
		return "next_review ASC, created_at DESC"
	case SortDifficulty:
		return "CASE difficulty WHEN 'easy' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END ASC, created_at DESC"
	default:
		return "created_at DESC, id"
	}
}

// cleanTags trims, drops blanks and de-duplicates while keeping order.
func cleanTags(tags []string) models.StringList {
	out := make(models.StringList, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
