package core

import (
	"errors"
	"sync"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrDuplicateID   = errors.New("job id already exists")
	ErrNotCancelable = errors.New("job is not cancelable")
)

// Registry is the single source of truth for all jobs. One mutex guards the
// whole map; it is held only for the duration of a read, copy or mutation,
// never across the worker's page sleeps. Reads hand out copies so callers
// cannot race the worker on a live record.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	nextSeq uint64
}

func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
	}
}

func (r *Registry) Insert(job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; ok {
		return ErrDuplicateID
	}
	r.nextSeq++
	job.seq = r.nextSeq
	r.jobs[job.ID] = job
	return nil
}

func (r *Registry) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns a snapshot of all jobs in unspecified order.
func (r *Registry) List() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Mutate applies fn to the job identified by id as a single atomic
// read-modify-write. If fn returns an error the job is left untouched only
// insofar as fn itself did not modify it; fn is expected to validate before
// mutating. The returned Job is a copy taken after fn ran.
func (r *Registry) Mutate(id string, fn func(*Job) error) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	if err := fn(job); err != nil {
		return *job, err
	}
	return *job, nil
}
