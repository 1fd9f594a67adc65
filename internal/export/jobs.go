package export

import (
	"sync"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
)

// JobStore tracks background export jobs. The in-memory implementation is the
// only shared mutable state this subsystem introduces across requests; a
// durable implementation can be swapped in behind this interface.
type JobStore interface {
	Put(job *model.ExportJob)
	// Get returns the job or nil for empty/unknown ids; it never errors.
	Get(id string) *model.ExportJob
	Complete(id string, artifact []byte, contentType, fileName string)
	Fail(id string, errMsg string)
	// Cleanup removes jobs whose expiry has passed and reports how many.
	Cleanup(now time.Time) int
}

type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.ExportJob
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*model.ExportJob),
	}
}

func (s *MemoryJobStore) Put(job *model.ExportJob) {
	if job == nil || job.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Store a copy; transitions applied by the worker must not reach
	// references the caller already handed out.
	cp := *job
	s.jobs[job.ID] = &cp
}

func (s *MemoryJobStore) Get(id string) *model.ExportJob {
	if id == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	// Copy so pollers never observe a half-applied transition.
	cp := *job
	return &cp
}

func (s *MemoryJobStore) Complete(id string, artifact []byte, contentType, fileName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Status = model.JobStatusCompleted
	job.Artifact = artifact
	job.ContentType = contentType
	job.FileName = fileName
	job.EstimatedSize = int64(len(artifact))
}

func (s *MemoryJobStore) Fail(id string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Status = model.JobStatusFailed
	job.Error = errMsg
}

func (s *MemoryJobStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if !job.ExpiresAt.IsZero() && job.ExpiresAt.Before(now) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
