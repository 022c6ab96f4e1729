// Package jobs defines the asynchronous job infrastructure used for
// long-running AI operations. Video generation runs for minutes, so the
// API enqueues a job and clients poll its status.
package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound means the requested job ID is not tracked.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// VideoJob tracks one video generation request from enqueue to
// completion. Failed jobs are not retried; the caller may submit a new
// job manually.
type VideoJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Prompt is the text the video is generated from.
	Prompt string `json:"prompt"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// VideoURI is where the finished video can be fetched from.
	VideoURI string `json:"video_uri,omitempty"`

	// Error contains failure details if the job failed.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Publisher enqueues jobs for asynchronous processing.
type Publisher interface {
	PublishGenerateVideo(ctx context.Context, job *VideoJob) error

	// Close releases the publisher's resources.
	Close() error
}

// JobHandler processes a single job. A returned error marks the job
// failed.
type JobHandler func(ctx context.Context, job *VideoJob) error

// Consumer drains the queue.
type Consumer interface {
	// Start begins consuming jobs, invoking handler for each one.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobStore tracks job state so clients can poll progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *VideoJob) error
	GetJob(ctx context.Context, jobID string) (*VideoJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*VideoJob, error)
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Status JobStatus
	Limit  int
}
