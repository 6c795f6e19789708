package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ai-flashcards/internal/models"
)

// ErrInvalidSession is returned for study sessions that reference unknown
// cards or carry malformed results.
var ErrInvalidSession = errors.New("invalid study session")

const (
	defaultSessionLimit = 10
	maxSessionLimit     = 50
	DefaultStatsDays    = 30
	dayLayout           = "2006-01-02"
)

const sessionColumns = `id, user_id, flashcard_ids, start_time, end_time, total_time_ms,
	correct_count, incorrect_count, created_at, updated_at`

type StudyResultInput struct {
	FlashcardID string              `json:"flashcardId"`
	Result      models.ReviewResult `json:"result"`
	TimeTaken   int64               `json:"timeTaken"`
}

type SessionUpdate struct {
	Results  []StudyResultInput `json:"results"`
	Complete bool               `json:"complete"`
}

type StatsOverview struct {
	TotalSessions     int     `json:"totalSessions"`
	CompletedSessions int     `json:"completedSessions"`
	TotalTimeMs       int64   `json:"totalTime"`
	TotalCorrect      int     `json:"totalCorrect"`
	TotalIncorrect    int     `json:"totalIncorrect"`
	Accuracy          float64 `json:"accuracy"`
}

type DailyStat struct {
	Date      string  `json:"date"`
	Sessions  int     `json:"sessions"`
	Reviewed  int     `json:"reviewed"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Accuracy  float64 `json:"accuracy"`
}

type StudyStats struct {
	Days      int           `json:"days"`
	Overview  StatsOverview `json:"overview"`
	DailyData []DailyStat   `json:"dailyData"`
}

type StudySessionService struct {
	db    *sqlx.DB
	cards *FlashcardService
}

func NewStudySessionService(db *sqlx.DB, cards *FlashcardService) *StudySessionService {
	return &StudySessionService{db: db, cards: cards}
}

func (s *StudySessionService) Create(ctx context.Context, userID string, flashcardIDs []string) (*models.StudySession, error) {
	ids := cleanTags(flashcardIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one flashcard is required", ErrInvalidSession)
	}

	owned, err := s.cards.CountOwned(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if owned != len(ids) {
		return nil, fmt.Errorf("%w: one or more flashcards not found", ErrInvalidSession)
	}

	now := time.Now().UTC()
	session := models.StudySession{
		ID:           uuid.NewString(),
		UserID:       userID,
		FlashcardIDs: ids,
		StartTime:    now,
		Results:      []models.StudyResult{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NamedExecContext(ctx, `
		INSERT INTO study_sessions (id, user_id, flashcard_ids, start_time, end_time, total_time_ms,
		                            correct_count, incorrect_count, created_at, updated_at)
		VALUES (:id, :user_id, :flashcard_ids, :start_time, :end_time, :total_time_ms,
		        :correct_count, :incorrect_count, :created_at, :updated_at);
	`, &session); err != nil {
		return nil, fmt.Errorf("insert study session: %w", err)
	}
	return &session, nil
}

func (s *StudySessionService) List(ctx context.Context, userID string, page, limit int) ([]models.StudySession, models.Pagination, error) {
	page = max(page, 1)
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	limit = min(limit, maxSessionLimit)

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM study_sessions WHERE user_id = ?`, userID); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count study sessions: %w", err)
	}

	sessions := []models.StudySession{}
	if err := s.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = ? ORDER BY start_time DESC LIMIT ? OFFSET ?;
	`, userID, limit, (page-1)*limit); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list study sessions: %w", err)
	}
	for i := range sessions {
		sessions[i].Results = []models.StudyResult{}
	}

	return sessions, models.NewPagination(total, page, limit), nil
}

func (s *StudySessionService) Get(ctx context.Context, userID, id string) (*models.StudySession, error) {
	session, err := getSession(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}

	results := []models.StudyResult{}
	if err := s.db.SelectContext(ctx, &results, `
		SELECT session_id, flashcard_id, result, time_taken_ms, recorded_at
		FROM study_results WHERE session_id = ? ORDER BY id;
	`, id); err != nil {
		return nil, fmt.Errorf("list study results: %w", err)
	}
	session.Results = results
	return session, nil
}

// Update appends results to a session, applies each to its flashcard and
// optionally completes the session, all in one transaction.
func (s *StudySessionService) Update(ctx context.Context, userID, id string, upd SessionUpdate) (_ *models.StudySession, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	session, err := getSession(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}

	inSession := make(map[string]struct{}, len(session.FlashcardIDs))
	for _, cardID := range session.FlashcardIDs {
		inSession[cardID] = struct{}{}
	}

	now := time.Now().UTC()
	for _, r := range upd.Results {
		if _, ok := inSession[r.FlashcardID]; !ok {
			return nil, fmt.Errorf("%w: flashcard %s is not part of this session", ErrInvalidSession, r.FlashcardID)
		}
		if !r.Result.Valid() {
			return nil, fmt.Errorf("%w: unknown result %q", ErrInvalidSession, r.Result)
		}
		if r.TimeTaken < 0 {
			return nil, fmt.Errorf("%w: negative time taken", ErrInvalidSession)
		}

		if _, err = tx.ExecContext(ctx, `
			INSERT INTO study_results (session_id, flashcard_id, result, time_taken_ms, recorded_at)
			VALUES (?, ?, ?, ?, ?);
		`, id, r.FlashcardID, r.Result, r.TimeTaken, now); err != nil {
			return nil, fmt.Errorf("insert study result: %w", err)
		}

		switch r.Result {
		case models.ReviewCorrect:
			session.CorrectCount++
		case models.ReviewIncorrect:
			session.IncorrectCount++
		}

		if err = recordReview(ctx, tx, userID, r.FlashcardID, r.Result, now); err != nil {
			// a card deleted mid-session keeps its result on the session
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			err = nil
		}
	}

	if upd.Complete && session.EndTime == nil {
		session.EndTime = &now
		session.TotalTimeMs = now.Sub(session.StartTime).Milliseconds()
	}
	session.UpdatedAt = now

	if _, err = tx.NamedExecContext(ctx, `
		UPDATE study_sessions
		SET correct_count = :correct_count, incorrect_count = :incorrect_count,
		    end_time = :end_time, total_time_ms = :total_time_ms, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id;
	`, session); err != nil {
		return nil, fmt.Errorf("update study session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit study session: %w", err)
	}
	return s.Get(ctx, userID, id)
}

// Stats summarizes the sessions and results of the last days days.
func (s *StudySessionService) Stats(ctx context.Context, userID string, days int) (*StudyStats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var sessions []models.StudySession
	if err := s.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = ? AND start_time >= ?;
	`, userID, since); err != nil {
		return nil, fmt.Errorf("load sessions for stats: %w", err)
	}

	var results []models.StudyResult
	if err := s.db.SelectContext(ctx, &results, `
		SELECT r.session_id, r.flashcard_id, r.result, r.time_taken_ms, r.recorded_at
		FROM study_results r
		JOIN study_sessions ss ON ss.id = r.session_id
		WHERE ss.user_id = ? AND r.recorded_at >= ?;
	`, userID, since); err != nil {
		return nil, fmt.Errorf("load results for stats: %w", err)
	}

	stats := &StudyStats{Days: days, DailyData: []DailyStat{}}
	daily := make(map[string]*DailyStat)
	day := func(t time.Time) *DailyStat {
		key := t.UTC().Format(dayLayout)
		d, ok := daily[key]
		if !ok {
			d = &DailyStat{Date: key}
			daily[key] = d
		}
		return d
	}

	for _, session := range sessions {
		stats.Overview.TotalSessions++
		if session.EndTime != nil {
			stats.Overview.CompletedSessions++
		}
		stats.Overview.TotalTimeMs += session.TotalTimeMs
		stats.Overview.TotalCorrect += session.CorrectCount
		stats.Overview.TotalIncorrect += session.IncorrectCount
		day(session.StartTime).Sessions++
	}
	stats.Overview.Accuracy = accuracy(stats.Overview.TotalCorrect, stats.Overview.TotalIncorrect)

	for _, r := range results {
		d := day(r.RecordedAt)
		d.Reviewed++
		switch r.Result {
		case models.ReviewCorrect:
			d.Correct++
		case models.ReviewIncorrect:
			d.Incorrect++
		}
	}

	for _, d := range daily {
		d.Accuracy = accuracy(d.Correct, d.Incorrect)
		stats.DailyData = append(stats.DailyData, *d)
	}
	sort.Slice(stats.DailyData, func(i, j int) bool {
		return stats.DailyData[i].Date < stats.DailyData[j].Date
	})
	return stats, nil
}

func getSession(ctx context.Context, q sqlx.QueryerContext, userID, id string) (*models.StudySession, error) {
	var session models.StudySession
	err := sqlx.GetContext(ctx, q, &session,
		`SELECT `+sessionColumns+` FROM study_sessions WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("study session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get study session: %w", err)
	}
	return &session, nil
}

// accuracy is the percentage of graded answers that were correct, to one
// decimal place.
func accuracy(correct, incorrect int) float64 {
	graded := correct + incorrect
	if graded == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(graded)*1000) / 10
}
