package export

import (
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/logger"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/worker"
)

// WorkerDispatcher runs background export renders on a shared goroutine pool.
// Jobs are plain closures; anything else enqueued is dropped with a log line.
type WorkerDispatcher struct {
	pool *worker.WorkerManager
}

func NewWorkerDispatcher(bufferSize, workers int) *WorkerDispatcher {
	pool := worker.NewWorkerManager(bufferSize, workers, nil)
	pool.SetWorker(func(workerIndex int, job interface{}) {
		fn, ok := job.(func())
		if !ok {
			logger.Error("invalid export job type", "worker", workerIndex)
			return
		}
		fn()
	})
	return &WorkerDispatcher{pool: pool}
}

// Start blocks until the pool exits; run it on its own goroutine.
func (d *WorkerDispatcher) Start() error {
	return d.pool.Start()
}

func (d *WorkerDispatcher) Enqueue(job interface{}) {
	d.pool.Enqueue(job)
}

func (d *WorkerDispatcher) Stop() {
	d.pool.Exit()
}
