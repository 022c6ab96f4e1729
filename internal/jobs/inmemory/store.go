package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/finsight/internal/jobs"
)

// Store is an in-memory implementation of jobs.JobStore, safe for
// concurrent use. Job state is lost on restart, which is acceptable:
// finished videos are addressed by URI, and pending ones can be
// resubmitted.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.VideoJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.VideoJob)}
}

// SaveJob saves or updates a job. Copies are stored so callers cannot
// mutate tracked state from outside.
func (s *Store) SaveJob(ctx context.Context, job *jobs.VideoJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.VideoJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs retrieves jobs matching the filter, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.VideoJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*jobs.VideoJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		out = append(out, &jobCopy)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

var _ jobs.JobStore = (*Store)(nil)
