package export

import (
	"testing"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJobStore(t *testing.T) {
	t.Run("empty and unknown ids return nil", func(t *testing.T) {
		store := NewMemoryJobStore()
		assert.Nil(t, store.Get(""))
		assert.Nil(t, store.Get("no-such-job"))
	})

	t.Run("put then get returns a copy", func(t *testing.T) {
		store := NewMemoryJobStore()
		store.Put(&model.ExportJob{ID: "job-1", Status: model.JobStatusProcessing})

		got := store.Get("job-1")
		require.NotNil(t, got)
		got.Status = model.JobStatusFailed

		again := store.Get("job-1")
		assert.Equal(t, model.JobStatusProcessing, again.Status)
	})

	t.Run("put stores a copy", func(t *testing.T) {
		store := NewMemoryJobStore()
		job := &model.ExportJob{ID: "job-put", Status: model.JobStatusProcessing}
		store.Put(job)

		store.Complete("job-put", []byte("data"), ContentTypeCSV, "export.csv")

		// the caller's reference must not see the transition
		assert.Equal(t, model.JobStatusProcessing, job.Status)
		assert.Nil(t, job.Artifact)
	})

	t.Run("complete attaches the artifact", func(t *testing.T) {
		store := NewMemoryJobStore()
		store.Put(&model.ExportJob{ID: "job-2", Status: model.JobStatusProcessing})

		store.Complete("job-2", []byte("csv,data"), ContentTypeCSV, "export.csv")

		job := store.Get("job-2")
		require.NotNil(t, job)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		assert.Equal(t, []byte("csv,data"), job.Artifact)
		assert.Equal(t, ContentTypeCSV, job.ContentType)
		assert.Equal(t, int64(8), job.EstimatedSize)
	})

	t.Run("fail records the error", func(t *testing.T) {
		store := NewMemoryJobStore()
		store.Put(&model.ExportJob{ID: "job-3", Status: model.JobStatusProcessing})

		store.Fail("job-3", "render blew up")

		job := store.Get("job-3")
		require.NotNil(t, job)
		assert.Equal(t, model.JobStatusFailed, job.Status)
		assert.Equal(t, "render blew up", job.Error)
	})

	t.Run("cleanup removes only expired jobs", func(t *testing.T) {
		store := NewMemoryJobStore()
		now := time.Now().UTC()
		store.Put(&model.ExportJob{ID: "expired", ExpiresAt: now.Add(-time.Minute)})
		store.Put(&model.ExportJob{ID: "live", ExpiresAt: now.Add(time.Hour)})
		store.Put(&model.ExportJob{ID: "no-expiry"})

		removed := store.Cleanup(now)
		assert.Equal(t, 1, removed)
		assert.Nil(t, store.Get("expired"))
		assert.NotNil(t, store.Get("live"))
		assert.NotNil(t, store.Get("no-expiry"))
	})
}
