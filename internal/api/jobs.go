package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"study-buddy/internal/models"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"

	defaultJobRetention = time.Hour
)

// AnalysisJob tracks one asynchronous analysis that the frontend polls.
type AnalysisJob struct {
	ID        string                  `json:"jobId"`
	Kind      string                  `json:"kind"`
	Status    string                  `json:"status"`
	Step      string                  `json:"step,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Percent   int                     `json:"percent"`
	Result    *models.SyllabusOutline `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

type JobManager struct {
	mu        sync.RWMutex
	jobs      map[string]*AnalysisJob
	retention time.Duration
	now       func() time.Time
}

// NewJobManager keeps finished jobs for retention before pruning them.
func NewJobManager(retention time.Duration) *JobManager {
	if retention <= 0 {
		retention = defaultJobRetention
	}
	return &JobManager{
		jobs:      make(map[string]*AnalysisJob),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *JobManager) CreateJob(kind string) (string, *AnalysisJob) {
	now := m.now()
	job := &AnalysisJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.pruneLocked(now)
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID, job.clone()
}

func (m *JobManager) GetJob(id string) (*AnalysisJob, bool) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

func (m *JobManager) MarkProcessing(id string) {
	m.withJob(id, func(job *AnalysisJob) {
		job.Status = JobStatusProcessing
		job.Message = "Starting"
	})
}

func (m *JobManager) UpdateProgress(id string, step, message string, current, total int) {
	m.withJob(id, func(job *AnalysisJob) {
		job.Status = JobStatusProcessing
		job.Step = step
		job.Message = message
		job.Percent = percent(current, total)
	})
}

func (m *JobManager) MarkComplete(id string, result *models.SyllabusOutline) {
	m.withJob(id, func(job *AnalysisJob) {
		job.Status = JobStatusComplete
		job.Step = "complete"
		job.Message = "Analysis complete"
		job.Percent = 100
		job.Result = result
		job.Error = ""
	})
}

func (m *JobManager) MarkFailed(id string, message string) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "analysis failed"
	}
	m.withJob(id, func(job *AnalysisJob) {
		job.Status = JobStatusFailed
		job.Step = "error"
		job.Message = msg
		job.Error = msg
		job.Percent = 100
	})
}

func (m *JobManager) withJob(id string, fn func(job *AnalysisJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = m.now()
}

func (m *JobManager) pruneLocked(now time.Time) {
	for id, job := range m.jobs {
		if !job.finished() {
			continue
		}
		if now.Sub(job.UpdatedAt) > m.retention {
			delete(m.jobs, id)
		}
	}
}

func (job *AnalysisJob) finished() bool {
	return job.Status == JobStatusComplete || job.Status == JobStatusFailed
}

// clone copies the job. Result is shared: an outline is never modified once
// it has been attached to a job.
func (job *AnalysisJob) clone() *AnalysisJob {
	if job == nil {
		return nil
	}
	copyJob := *job
	return &copyJob
}

func percent(current, total int) int {
	if total <= 0 {
		if current <= 0 {
			return 0
		}
		if current > 100 {
			return 100
		}
		return current
	}
	if current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return int((float64(current) / float64(total)) * 100)
}
