package api

import (
	"context"
	"errors"
	"fmt"

	"shortsdub/internal/ledger"
	"shortsdub/internal/pipeline"
)

// JobReader abstracts ledger interactions needed for API queries.
type JobReader interface {
	List(ctx context.Context, limit int) ([]ledger.Job, error)
	Get(ctx context.Context, id string) (ledger.Job, []ledger.Event, error)
	Stats(ctx context.Context) (map[pipeline.State]int, error)
}

// JobService exposes read-only ledger operations returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns the newest jobs with per-state counts.
func (s *JobService) List(ctx context.Context, limit int) (JobListResponse, error) {
	if s == nil || s.store == nil {
		return JobListResponse{Jobs: []Job{}}, nil
	}
	jobs, err := s.store.List(ctx, limit)
	if err != nil {
		return JobListResponse{}, err
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return JobListResponse{}, err
	}
	return JobListResponse{Jobs: FromLedgerJobs(jobs), Stats: MergeStats(stats)}, nil
}

// Describe fetches a single job and its transitions.
func (s *JobService) Describe(ctx context.Context, id string) (JobDetailResponse, error) {
	if s == nil || s.store == nil {
		return JobDetailResponse{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job, events, err := s.store.Get(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return JobDetailResponse{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return JobDetailResponse{}, err
	}
	return JobDetailResponse{Job: FromLedgerJob(job), Events: FromLedgerEvents(events)}, nil
}
