package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printq/internal/core"
	"github.com/orrn/printq/internal/ingest"
)

// Inspector validates an uploaded document and returns its page count.
type Inspector interface {
	Inspect(contentType string, data []byte) (int, error)
}

type JobShortResponse struct {
	JobID     string    `json:"job_id"`
	Filename  string    `json:"filename"`
	Pages     int       `json:"pages"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type JobResponse struct {
	JobID     string    `json:"job_id"`
	Title     string    `json:"title,omitempty"`
	Filename  string    `json:"filename"`
	Pages     int       `json:"pages"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type QueueResponse struct {
	Queued   int `json:"queued"`
	Printing int `json:"printing"`
	Done     int `json:"done"`
	Canceled int `json:"canceled"`
	Error    int `json:"error"`
	Total    int `json:"total"`
}

type JobHandler struct {
	queue  *core.Queue
	ingest Inspector
}

func NewJobHandler(queue *core.Queue, inspector Inspector) *JobHandler {
	return &JobHandler{
		queue:  queue,
		ingest: inspector,
	}
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	pages, err := h.ingest.Inspect(contentType, data)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedType) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := c.PostForm("title")

	job, err := h.queue.Submit(title, fileHeader.Filename, data, pages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit job"})
		return
	}

	c.JSON(http.StatusCreated, JobShortResponse{
		JobID:     job.ID,
		Filename:  job.Filename,
		Pages:     job.Pages,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
	})
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	status := core.JobStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status '%s'", status)})
		return
	}

	jobs := h.queue.List(status)

	responses := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, jobToResponse(job))
	}

	c.JSON(http.StatusOK, responses)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.queue.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, jobToResponse(job))
}

func (h *JobHandler) CancelJob(c *gin.Context) {
	job, err := h.queue.Cancel(c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		if errors.Is(err, core.ErrNotCancelable) {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("cannot cancel job in status '%s'", job.Status)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel job"})
		return
	}

	// For a printing job this still reads printing: cancellation is
	// cooperative and the worker applies it at the next page boundary.
	c.JSON(http.StatusOK, jobToResponse(job))
}

func (h *JobHandler) DownloadFile(c *gin.Context) {
	filename, data, err := h.queue.Payload(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *JobHandler) GetQueue(c *gin.Context) {
	stats := h.queue.Stats()

	c.JSON(http.StatusOK, QueueResponse{
		Queued:   stats.Queued,
		Printing: stats.Printing,
		Done:     stats.Done,
		Canceled: stats.Canceled,
		Error:    stats.Error,
		Total:    stats.Total,
	})
}

func jobToResponse(job core.Job) JobResponse {
	return JobResponse{
		JobID:     job.ID,
		Title:     job.Title,
		Filename:  job.Filename,
		Pages:     job.Pages,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/jobs", h.ListJobs)
	r.POST("/jobs", h.CreateJob)
	r.GET("/jobs/queue", h.GetQueue)
	r.GET("/jobs/:id", h.GetJob)
	r.POST("/jobs/:id/cancel", h.CancelJob)
	r.GET("/jobs/:id/file", h.DownloadFile)
}
