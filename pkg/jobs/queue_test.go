package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesEnqueuedJobs(t *testing.T) {
	done := make(chan Job, 1)
	handler := func(_ context.Context, job Job) error {
		done <- job
		return nil
	}

	q := NewQueue("test-runs", handler, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "generate", Payload: "cfg-1"}))

	select {
	case job := <-done:
		assert.Equal(t, "cfg-1", job.Payload)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was never handled")
	}
}

// A handler error puts the job back on the queue, so completion accounting
// must never live inside an erroring handler path.
func TestQueueRetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	done := make(chan struct{})
	handler := func(_ context.Context, _ Job) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("transient failure")
		}
		close(done)
		return nil
	}

	q := NewQueue("test-retries", handler, QueueConfig{Workers: 1, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "generate", Payload: "cfg-1"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("failed job was not retried")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "j1"}))
}
