package core

import (
	"errors"
	"testing"
	"time"
)

func newTestJob(id string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		Filename:  "doc.pdf",
		Payload:   []byte("%PDF"),
		Pages:     3,
		Status:    JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRegistryInsertAndGet(t *testing.T) {
	r := NewRegistry()

	if err := r.Insert(newTestJob("j1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	job, ok := r.Get("j1")
	if !ok {
		t.Fatal("Get did not find inserted job")
	}
	if job.Status != JobStatusQueued {
		t.Fatalf("Status = %s, want queued", job.Status)
	}
}

func TestRegistryInsertDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.Insert(newTestJob("j1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := r.Insert(newTestJob("j1")); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second Insert err = %v, want ErrDuplicateID", err)
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	if err := r.Insert(newTestJob("j1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	job, _ := r.Get("j1")
	job.Status = JobStatusDone

	stored, _ := r.Get("j1")
	if stored.Status != JobStatusQueued {
		t.Fatalf("mutating a Get copy changed the stored record: %s", stored.Status)
	}
}

func TestRegistryMutate(t *testing.T) {
	r := NewRegistry()
	if err := r.Insert(newTestJob("j1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	job, err := r.Mutate("j1", func(j *Job) error {
		j.touch(JobStatusPrinting)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if job.Status != JobStatusPrinting {
		t.Fatalf("returned Status = %s, want printing", job.Status)
	}
	if job.UpdatedAt.Before(job.CreatedAt) {
		t.Fatal("UpdatedAt went backwards")
	}

	stored, _ := r.Get("j1")
	if stored.Status != JobStatusPrinting {
		t.Fatalf("stored Status = %s, want printing", stored.Status)
	}
}

func TestRegistryMutateNotFound(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Mutate("missing", func(j *Job) error { return nil }); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Mutate err = %v, want ErrJobNotFound", err)
	}
}

func TestRegistryMutateFnError(t *testing.T) {
	r := NewRegistry()
	if err := r.Insert(newTestJob("j1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	sentinel := errors.New("rejected")
	if _, err := r.Mutate("j1", func(j *Job) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("Mutate err = %v, want sentinel", err)
	}
}

func TestRegistryListSnapshot(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"j1", "j2", "j3"} {
		if err := r.Insert(newTestJob(id)); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}

	jobs := r.List()
	if len(jobs) != 3 {
		t.Fatalf("List returned %d jobs, want 3", len(jobs))
	}
}

func TestRegistrySeqIncreasesWithInsertOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"j1", "j2"} {
		if err := r.Insert(newTestJob(id)); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}

	first, _ := r.Get("j1")
	second, _ := r.Get("j2")
	if first.seq >= second.seq {
		t.Fatalf("seq not increasing: %d then %d", first.seq, second.seq)
	}
}
