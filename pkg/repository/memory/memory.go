package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process job store used for local runs and tests
type Memory struct {
	mu   sync.RWMutex
	jobs map[types.JobID]*model.IngestionJob
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		jobs: make(map[types.JobID]*model.IngestionJob),
	}
}

func (m *Memory) PutJob(ctx context.Context, job *model.IngestionJob) error {
	if job.ID == "" {
		return goerr.New("job ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *job
	if job.Summary != nil {
		summary := *job.Summary
		copied.Summary = &summary
	}
	m.jobs[job.ID] = &copied

	return nil
}

func (m *Memory) GetJob(ctx context.Context, id types.JobID) (*model.IngestionJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrJobNotFound, "job not found", goerr.V("id", id))
	}

	copied := *job
	if job.Summary != nil {
		summary := *job.Summary
		copied.Summary = &summary
	}

	return &copied, nil
}

func (m *Memory) ListJobs(ctx context.Context, notebookID types.NotebookID) ([]*model.IngestionJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var jobs []*model.IngestionJob
	for _, job := range m.jobs {
		if notebookID != "" && job.NotebookID != notebookID {
			continue
		}
		copied := *job
		if job.Summary != nil {
			summary := *job.Summary
			copied.Summary = &summary
		}
		jobs = append(jobs, &copied)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return jobs, nil
}

func (m *Memory) Close() error {
	return nil
}
