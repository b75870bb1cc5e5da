package core

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultPageDelay = 200 * time.Millisecond

// WebhookSender delivers job lifecycle events to external subscribers.
// Delivery is best-effort and must never block or fail job processing.
type WebhookSender interface {
	SendJobEvent(event string, job Job) error
}

// Lifecycle event names handed to the WebhookSender.
const (
	EventJobQueued    = "job_queued"
	EventJobStarted   = "job_started"
	EventJobCompleted = "job_completed"
	EventJobCanceled  = "job_canceled"
	EventJobFailed    = "job_failed"
)

// errJobTerminal signals that a dequeued record already reached a terminal
// status and must not be printed.
var errJobTerminal = errors.New("job already terminal")

// Queue owns the job registry, the dispatch FIFO and the single print
// worker, and exposes the submit/get/list/cancel/payload operations the
// transport layer binds to.
//
// Printing is modeled as one physical device: exactly one worker drains the
// FIFO in submission order and never begins a job before the previous one
// reached a terminal status. Within a job, cancellation is cooperative and
// checked once per page, which bounds cancel latency to one page duration.
type Queue struct {
	registry      *Registry
	dispatch      *fifo
	printer       PagePrinter
	webhookSender WebhookSender
	metrics       *Metrics
	logger        *log.Logger

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
}

func NewQueue(printer PagePrinter, ws WebhookSender, metrics *Metrics, logger *log.Logger) *Queue {
	if printer == nil {
		printer = NewSimulatedPrinter(DefaultPageDelay)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Queue{
		registry:      NewRegistry(),
		dispatch:      newFIFO(),
		printer:       printer,
		webhookSender: ws,
		metrics:       metrics,
		logger:        logger,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the print worker. It is a no-op if the queue already runs.
// The queue is one-shot: Start after Stop does not relaunch the worker.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running || q.stopped {
		return
	}
	q.running = true
	go q.worker()
}

// Stop closes the dispatch queue and waits for the worker to exit. An
// in-flight job is abandoned at its next page boundary; all state is
// process-lifetime, so nothing needs flushing.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.stopped = true
	q.mu.Unlock()

	close(q.stopCh)
	q.dispatch.Close()
	<-q.done
}

// Submit registers a new job and hands its ID to the worker. It never blocks
// on the worker: the dispatch queue is unbounded. Inputs are assumed to have
// passed ingestion validation already, except for the page count which is
// re-checked because the whole worker loop depends on it.
func (q *Queue) Submit(title, filename string, payload []byte, pages int) (Job, error) {
	if pages < 1 {
		return Job{}, fmt.Errorf("page count must be at least 1, got %d", pages)
	}
	if filename == "" {
		filename = "document.pdf"
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Title:     title,
		Filename:  filename,
		Payload:   payload,
		Pages:     pages,
		Status:    JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := q.registry.Insert(job); err != nil {
		return Job{}, fmt.Errorf("failed to register job: %w", err)
	}

	// Copy before Push: once the ID is on the queue the worker may mutate
	// the record at any time.
	snapshot := *job
	q.dispatch.Push(job.ID)

	q.metrics.jobSubmitted()
	q.metrics.setQueueDepth(q.dispatch.Len())
	q.notify(EventJobQueued, snapshot)

	return snapshot, nil
}

func (q *Queue) Get(id string) (Job, error) {
	job, ok := q.registry.Get(id)
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

// List returns jobs ordered by submission time ascending. When status is
// non-empty only jobs with exactly that status are returned, same ordering.
func (q *Queue) List(status JobStatus) []Job {
	all := q.registry.List()

	jobs := make([]Job, 0, len(all))
	for _, job := range all {
		if status != "" && job.Status != status {
			continue
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].seq < jobs[j].seq
	})
	return jobs
}

// Cancel cancels the job identified by id. A queued job flips to canceled
// before the call returns. A printing job only gets its cancellation flag
// set; the worker observes it at the next page boundary, so the returned
// record still reads printing and callers must re-poll to see the
// transition. Terminal jobs return ErrNotCancelable.
func (q *Queue) Cancel(id string) (Job, error) {
	job, err := q.registry.Mutate(id, func(j *Job) error {
		if j.Status.Terminal() {
			return ErrNotCancelable
		}
		if j.Status == JobStatusQueued {
			j.touch(JobStatusCanceled)
			return nil
		}
		j.cancelRequested = true
		return nil
	})
	if err != nil {
		// On ErrNotCancelable the copy still carries the job's terminal
		// state so the transport can report it.
		return job, err
	}

	if job.Status == JobStatusCanceled {
		q.metrics.jobFinished(job.Status)
		q.notify(EventJobCanceled, job)
	}
	return job, nil
}

// Payload returns the filename and the exact bytes captured at submission.
func (q *Queue) Payload(id string) (string, []byte, error) {
	job, ok := q.registry.Get(id)
	if !ok {
		return "", nil, ErrJobNotFound
	}
	return job.Filename, job.Payload, nil
}

func (q *Queue) Stats() QueueStats {
	stats := QueueStats{}
	for _, job := range q.registry.List() {
		stats.Total++
		switch job.Status {
		case JobStatusQueued:
			stats.Queued++
		case JobStatusPrinting:
			stats.Printing++
		case JobStatusDone:
			stats.Done++
		case JobStatusCanceled:
			stats.Canceled++
		case JobStatusError:
			stats.Error++
		}
	}
	return stats
}

func (q *Queue) worker() {
	defer close(q.done)

	for {
		id, ok := q.dispatch.Pop()
		if !ok {
			return
		}
		q.metrics.setQueueDepth(q.dispatch.Len())
		q.processJob(id)
	}
}

// processJob drives one job through its lifecycle. Any fault is contained
// here: the job ends in error status and the worker moves on to the next ID.
func (q *Queue) processJob(id string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Printf("worker: panic while printing job %s: %v", id, r)
			q.failJob(id)
		}
	}()

	// The canceled check and the printing transition share one critical
	// section: a queued job canceled between dequeue and here must stay
	// canceled, never be revived to printing.
	started := time.Now()
	job, err := q.registry.Mutate(id, func(j *Job) error {
		if j.Status.Terminal() {
			return errJobTerminal
		}
		j.touch(JobStatusPrinting)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			q.logger.Printf("worker: job %s no longer in registry, skipping", id)
		}
		return
	}
	q.notify(EventJobStarted, job)

	printed := 0
	for page := 1; page <= job.Pages; page++ {
		select {
		case <-q.stopCh:
			return
		default:
		}

		if cur, ok := q.registry.Get(id); ok && cur.cancelRequested {
			job, _ = q.registry.Mutate(id, func(j *Job) error {
				j.touch(JobStatusCanceled)
				return nil
			})
			q.logger.Printf("worker: job %s canceled after %d of %d pages", id, printed, job.Pages)
			q.finishJob(job, started)
			return
		}

		if err := q.printer.PrintPage(id, page); err != nil {
			q.logger.Printf("worker: printing page %d of job %s failed: %v", page, id, err)
			q.failJob(id)
			return
		}
		printed++
		q.metrics.pagePrinted()
	}

	if printed == job.Pages {
		job, _ = q.registry.Mutate(id, func(j *Job) error {
			j.touch(JobStatusDone)
			return nil
		})
		q.finishJob(job, started)
	}
}

func (q *Queue) failJob(id string) {
	job, err := q.registry.Mutate(id, func(j *Job) error {
		j.touch(JobStatusError)
		return nil
	})
	if err != nil {
		return
	}
	q.metrics.jobFinished(job.Status)
	q.notify(EventJobFailed, job)
}

func (q *Queue) finishJob(job Job, started time.Time) {
	q.metrics.jobFinished(job.Status)
	q.metrics.observeJobDuration(job.Status, time.Since(started))

	switch job.Status {
	case JobStatusDone:
		q.notify(EventJobCompleted, job)
	case JobStatusCanceled:
		q.notify(EventJobCanceled, job)
	}
}

func (q *Queue) notify(event string, job Job) {
	if q.webhookSender == nil {
		return
	}
	if err := q.webhookSender.SendJobEvent(event, job); err != nil {
		q.logger.Printf("webhook: failed to queue %s event for job %s: %v", event, job.ID, err)
	}
}
