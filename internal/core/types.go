package core

import (
	"time"
)

type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusPrinting JobStatus = "printing"
	JobStatusDone     JobStatus = "done"
	JobStatusCanceled JobStatus = "canceled"
	JobStatusError    JobStatus = "error"
)

// Valid reports whether s is one of the five known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusPrinting, JobStatusDone, JobStatusCanceled, JobStatusError:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from s.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusDone, JobStatusCanceled, JobStatusError:
		return true
	}
	return false
}

// Job is one submitted document and its processing lifecycle. Once inserted
// into the registry a Job is owned by it; callers only ever see copies.
type Job struct {
	ID        string
	Title     string
	Filename  string
	Payload   []byte
	Pages     int
	Status    JobStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	// cancelRequested is set at most once, under the registry lock, and is
	// observed only by the worker at page boundaries.
	cancelRequested bool

	// seq is assigned by the registry at insert time and strictly increases
	// with submission order. Listings sort by it.
	seq uint64
}

func (j *Job) touch(status JobStatus) {
	j.Status = status
	j.UpdatedAt = time.Now().UTC()
}

type QueueStats struct {
	Queued   int
	Printing int
	Done     int
	Canceled int
	Error    int
	Total    int
}
