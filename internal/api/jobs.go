package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"

	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusComplete   = "complete"
	FileStatusError      = "error"
)

// GenerationJob tracks background flashcard generation over several uploads.
// FinishedAt stays zero while the job runs.
type GenerationJob struct {
	ID         string         `json:"jobId"`
	UserID     string         `json:"-"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	FinishedAt time.Time      `json:"finishedAt,omitzero"`
	Files      []FileProgress `json:"files"`
	Error      string         `json:"error,omitempty"`
}

// FileProgress is the per-file state clients poll.
type FileProgress struct {
	Index   int        `json:"index"`
	Name    string     `json:"name"`
	Status  string     `json:"status"`
	Step    string     `json:"step,omitempty"`
	Message string     `json:"message,omitempty"`
	Percent int        `json:"percent"`
	Result  *JobResult `json:"result,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// JobResult is the outcome for one uploaded file.
type JobResult struct {
	DocumentID   string   `json:"documentId,omitempty"`
	Flashcards   int      `json:"flashcards"`
	FlashcardIDs []string `json:"flashcardIds,omitempty"`
}

type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*GenerationJob
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*GenerationJob),
	}
}

func (m *JobManager) CreateJob(userID string, fileNames []string) string {
	files := make([]FileProgress, len(fileNames))
	for i, name := range fileNames {
		files[i] = FileProgress{
			Index:  i,
			Name:   name,
			Status: FileStatusPending,
		}
	}
	now := time.Now().UTC()
	job := &GenerationJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Files:     files,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID
}

// GetJob returns a snapshot of the job if it exists and belongs to userID.
func (m *JobManager) GetJob(id, userID string) (*GenerationJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok || job.UserID != userID {
		return nil, false
	}
	return job.clone(), true
}

func (m *JobManager) MarkProcessing(id string) {
	m.withJob(id, func(job *GenerationJob) {
		job.Status = JobStatusProcessing
	})
}

// MarkFinished completes the job, or fails it when no file succeeded.
func (m *JobManager) MarkFinished(id string) {
	m.withJob(id, func(job *GenerationJob) {
		job.FinishedAt = time.Now().UTC()
		for _, file := range job.Files {
			if file.Status == FileStatusComplete {
				job.Status = JobStatusComplete
				return
			}
		}
		job.Status = JobStatusFailed
		job.Error = "no file could be processed"
	})
}

// Prune drops jobs that finished before cutoff and returns how many were removed.
func (m *JobManager) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		if !job.FinishedAt.IsZero() && job.FinishedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

func (m *JobManager) MarkFileStarted(id string, index int) {
	m.withJob(id, func(job *GenerationJob) {
		if file := job.file(index); file != nil {
			file.Status = FileStatusProcessing
			file.Step = ""
			file.Message = "Starting"
			file.Percent = 0
			file.Error = ""
		}
	})
}

func (m *JobManager) UpdateFileProgress(id string, index int, step, message string, current, total int) {
	m.withJob(id, func(job *GenerationJob) {
		if file := job.file(index); file != nil {
			file.Status = FileStatusProcessing
			file.Step = step
			file.Message = message
			file.Percent = percent(current, total)
		}
	})
}

func (m *JobManager) MarkFileComplete(id string, index int, result JobResult) {
	m.withJob(id, func(job *GenerationJob) {
		if file := job.file(index); file != nil {
			file.Status = FileStatusComplete
			file.Step = "complete"
			file.Message = "Processing complete"
			file.Percent = 100
			file.Result = &result
			file.Error = ""
		}
	})
}

func (m *JobManager) MarkFileError(id string, index int, message string) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "processing error"
	}
	m.withJob(id, func(job *GenerationJob) {
		if file := job.file(index); file != nil {
			file.Status = FileStatusError
			file.Step = "error"
			file.Message = msg
			file.Error = msg
			file.Percent = 100
		}
	})
}

func (m *JobManager) withJob(id string, fn func(job *GenerationJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

func (job *GenerationJob) file(index int) *FileProgress {
	if index < 0 || index >= len(job.Files) {
		return nil
	}
	return &job.Files[index]
}

func (job *GenerationJob) clone() *GenerationJob {
	cp := *job
	cp.Files = make([]FileProgress, len(job.Files))
	for i, file := range job.Files {
		cp.Files[i] = file
		if file.Result != nil {
			res := *file.Result
			res.FlashcardIDs = append([]string(nil), file.Result.FlashcardIDs...)
			cp.Files[i].Result = &res
		}
	}
	return &cp
}

func percent(current, total int) int {
	if total <= 0 || current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return current * 100 / total
}
