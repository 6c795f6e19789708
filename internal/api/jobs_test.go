package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobManager_PruneDropsOnlyOldFinishedJobs(t *testing.T) {
	m := NewJobManager()
	finished := m.CreateJob("user-1", []string{"a.png"})
	running := m.CreateJob("user-1", []string{"b.png"})

	m.MarkFileComplete(finished, 0, JobResult{Flashcards: 1})
	m.MarkFinished(finished)
	m.MarkProcessing(running)

	assert.Zero(t, m.Prune(time.Now().Add(-time.Hour)))
	_, ok := m.GetJob(finished, "user-1")
	assert.True(t, ok)

	assert.Equal(t, 1, m.Prune(time.Now().Add(time.Second)))
	_, ok = m.GetJob(finished, "user-1")
	assert.False(t, ok)
	_, ok = m.GetJob(running, "user-1")
	assert.True(t, ok)
}

func TestJobManager_MarkFinished(t *testing.T) {
	m := NewJobManager()
	ok := m.CreateJob("user-1", []string{"a.png", "b.txt"})
	failed := m.CreateJob("user-1", []string{"c.txt"})

	m.MarkFileComplete(ok, 0, JobResult{Flashcards: 2})
	m.MarkFileError(ok, 1, "unsupported")
	m.MarkFinished(ok)
	m.MarkFileError(failed, 0, "")
	m.MarkFinished(failed)

	job, _ := m.GetJob(ok, "user-1")
	assert.Equal(t, JobStatusComplete, job.Status)
	assert.False(t, job.FinishedAt.IsZero())

	job, _ = m.GetJob(failed, "user-1")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "processing error", job.Files[0].Error)

	_, found := m.GetJob(ok, "user-2")
	assert.False(t, found)
}
