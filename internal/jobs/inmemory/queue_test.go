package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finsight/internal/jobs"
)

func TestQueue_ProcessesJobToCompletion(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	done := make(chan string, 1)
	handler := func(ctx context.Context, job *jobs.VideoJob) error {
		job.VideoURI = "https://example.com/video.mp4"
		done <- job.JobID
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx, handler))

	job := &jobs.VideoJob{Prompt: "a cat surfing"}
	require.NoError(t, q.PublishGenerateVideo(ctx, job))
	assert.NotEmpty(t, job.JobID)

	jobID := <-done

	require.Eventually(t, func() bool {
		saved, err := store.GetJob(ctx, jobID)
		return err == nil && saved.Status == jobs.JobStatusCompleted
	}, time.Second, 10*time.Millisecond)

	saved, err := store.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/video.mp4", saved.VideoURI)
	assert.NotNil(t, saved.StartedAt)
	assert.NotNil(t, saved.CompletedAt)
}

func TestQueue_FailedJobIsNotRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	attempts := make(chan struct{}, 10)
	handler := func(ctx context.Context, job *jobs.VideoJob) error {
		attempts <- struct{}{}
		return errors.New("model unavailable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx, handler))

	job := &jobs.VideoJob{Prompt: "sunset timelapse"}
	require.NoError(t, q.PublishGenerateVideo(ctx, job))

	<-attempts

	require.Eventually(t, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusFailed
	}, time.Second, 10*time.Millisecond)

	saved, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "model unavailable", saved.Error)

	select {
	case <-attempts:
		t.Fatal("failed job was retried")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQueue_PublishAfterCloseFails(t *testing.T) {
	q := NewQueue(1, nil)
	require.NoError(t, q.Close())

	err := q.PublishGenerateVideo(context.Background(), &jobs.VideoJob{Prompt: "x"})
	require.Error(t, err)
}

func TestStore_CopySemantics(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.VideoJob{JobID: "j1", Prompt: "original", Status: jobs.JobStatusPending}
	require.NoError(t, store.SaveJob(ctx, job))

	job.Prompt = "mutated after save"

	saved, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "original", saved.Prompt)

	saved.Status = jobs.JobStatusFailed
	again, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, again.Status)
}

func TestStore_ListJobsFilterAndOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	for i, status := range []jobs.JobStatus{jobs.JobStatusPending, jobs.JobStatusCompleted, jobs.JobStatusPending} {
		job := &jobs.VideoJob{
			JobID:     string(rune('a' + i)),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.SaveJob(ctx, job))
	}

	pending, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "c", pending[0].JobID) // newest first

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].JobID)
}

func TestStore_SaveJobRequiresID(t *testing.T) {
	store := NewStore()
	err := store.SaveJob(context.Background(), &jobs.VideoJob{})
	require.Error(t, err)
}
