package core

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsExposition(t *testing.T) {
	metrics := NewMetrics()
	q := NewQueue(NewSimulatedPrinter(0), nil, metrics, discardLogger())

	if _, err := q.Submit("", "doc.pdf", []byte("%PDF"), 1); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "printq_jobs_submitted_total 1") {
		t.Fatal("exposition is missing the submitted jobs counter")
	}
	if !strings.Contains(body, "printq_dispatch_queue_depth") {
		t.Fatal("exposition is missing the queue depth gauge")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.jobSubmitted()
	m.jobFinished(JobStatusDone)
	m.pagePrinted()
	m.setQueueDepth(3)
	m.observeJobDuration(JobStatusDone, 0)
}
