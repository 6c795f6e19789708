package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type ReviewResult string

const (
	ReviewCorrect   ReviewResult = "correct"
	ReviewIncorrect ReviewResult = "incorrect"
	ReviewSkip      ReviewResult = "skip"
)

func (r ReviewResult) Valid() bool {
	switch r {
	case ReviewCorrect, ReviewIncorrect, ReviewSkip:
		return true
	}
	return false
}

// StringList is stored as a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

type Flashcard struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"userId"`
	Question       string     `db:"question" json:"question"`
	Answer         string     `db:"answer" json:"answer"`
	Tags           StringList `db:"tags" json:"tags"`
	Difficulty     Difficulty `db:"difficulty" json:"difficulty"`
	NextReview     time.Time  `db:"next_review" json:"nextReview"`
	ReviewCount    int        `db:"review_count" json:"reviewCount"`
	CorrectCount   int        `db:"correct_count" json:"correctCount"`
	IncorrectCount int        `db:"incorrect_count" json:"incorrectCount"`
	LastReviewed   *time.Time `db:"last_reviewed" json:"lastReviewed,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

type Document struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	OriginalName string    `db:"original_name" json:"originalName"`
	StoredPath   string    `db:"stored_path" json:"-"`
	MIMEType     string    `db:"mime_type" json:"mimeType"`
	SizeBytes    int64     `db:"size_bytes" json:"sizeBytes"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploadedAt"`
}

func (d Document) IsPDF() bool {
	return d.MIMEType == "application/pdf"
}

type StudySession struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"userId"`
	FlashcardIDs   StringList    `db:"flashcard_ids" json:"flashcardIds"`
	StartTime      time.Time     `db:"start_time" json:"startTime"`
	EndTime        *time.Time    `db:"end_time" json:"endTime,omitempty"`
	TotalTimeMs    int64         `db:"total_time_ms" json:"totalTime"`
	CorrectCount   int           `db:"correct_count" json:"correctCount"`
	IncorrectCount int           `db:"incorrect_count" json:"incorrectCount"`
	Results        []StudyResult `db:"-" json:"results"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

type StudyResult struct {
	SessionID   string       `db:"session_id" json:"-"`
	FlashcardID string       `db:"flashcard_id" json:"flashcardId"`
	Result      ReviewResult `db:"result" json:"result"`
	TimeTakenMs int64        `db:"time_taken_ms" json:"timeTaken"`
	RecordedAt  time.Time    `db:"recorded_at" json:"recordedAt"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Pages: pages}
}
