// internal/tasks/runner_test.go
package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunnerExecutesTask(t *testing.T) {
	runner := NewRunner(time.Second)

	var ran atomic.Bool
	taskID := runner.Go("test", func(ctx context.Context) {
		ran.Store(true)
	})
	runner.Wait()

	assert.NotEmpty(t, taskID)
	assert.True(t, ran.Load())
}

func TestRunnerContainsPanics(t *testing.T) {
	runner := NewRunner(time.Second)

	runner.Go("panics", func(ctx context.Context) {
		panic("boom")
	})

	// Wait returning at all proves the panic did not escape the goroutine.
	runner.Wait()
}

func TestRunnerAppliesTimeout(t *testing.T) {
	runner := NewRunner(10 * time.Millisecond)

	var expired atomic.Bool
	runner.Go("slow", func(ctx context.Context) {
		select {
		case <-ctx.Done():
			expired.Store(true)
		case <-time.After(time.Second):
		}
	})
	runner.Wait()

	assert.True(t, expired.Load())
}
