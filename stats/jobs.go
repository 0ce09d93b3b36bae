package stats

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState tracks a batch job through its lifecycle.
type JobState string

const (
	JobPending    JobState = "pending"
	JobInProgress JobState = "in_progress"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Job is one tracked batch operation.
type Job struct {
	ID        string    `json:"id"`
	State     JobState  `json:"state"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobStore tracks batch jobs and expires entries whose last update is
// older than ttl. A background sweep keeps the map from growing without
// bound.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
	stop chan struct{}
}

// NewJobStore starts a store sweeping at a quarter of ttl (default 1h).
func NewJobStore(ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *JobStore) sweepLoop() {
	ticker := time.NewTicker(s.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Close stops the background sweep.
func (s *JobStore) Close() {
	close(s.stop)
}

// Sweep drops jobs not updated within ttl and reports how many went.
func (s *JobStore) Sweep() int {
	cutoff := time.Now().UTC().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Create registers a pending job for total items.
func (s *JobStore) Create(total int) *Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		State:     JobPending,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	out := *job
	return &out
}

func (s *JobStore) Start(id string) bool    { return s.transition(id, JobInProgress, "") }
func (s *JobStore) Complete(id string) bool { return s.transition(id, JobCompleted, "") }

func (s *JobStore) Fail(id, errMsg string) bool { return s.transition(id, JobFailed, errMsg) }

func (s *JobStore) transition(id string, state JobState, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.State = state
	if errMsg != "" {
		job.Error = errMsg
	}
	job.UpdatedAt = time.Now().UTC()
	return true
}

// Advance increments the completed counter of a running job.
func (s *JobStore) Advance(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Completed++
		job.UpdatedAt = time.Now().UTC()
	}
}

// Get returns a copy of the job.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	out := *job
	return &out, true
}

// Len reports how many jobs are currently tracked.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
