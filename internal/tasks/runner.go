// internal/tasks/runner.go
package tasks

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Runner executes fire-and-forget background tasks. Tasks carry their own
// persistence of outcomes; the runner only provides a goroutine, a timeout
// context, panic containment and a task id for log correlation.
type Runner struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Runner{timeout: timeout}
}

// Go schedules fn on its own goroutine and returns the task id immediately.
// The context is detached from the HTTP request so the task survives the
// client disconnecting.
func (r *Runner) Go(name string, fn func(ctx context.Context)) string {
	taskID := uuid.NewString()
	logger := logrus.WithFields(logrus.Fields{"task": name, "task_id": taskID})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithFields(logrus.Fields{
					"panic": rec,
					"stack": string(debug.Stack()),
				}).Error("Background task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		logger.Info("Background task started")
		fn(ctx)
		logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Background task finished")
	}()

	return taskID
}

// Wait blocks until all scheduled tasks finish. Used on shutdown and in
// tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
