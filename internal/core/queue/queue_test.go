package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClientMissingAddr(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.Error(t, err)
}

func TestEnqueueAndLen(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Enqueue(ctx, "work", "do.thing", "item1", 3))
	require.NoError(t, c.Enqueue(ctx, "work", "do.thing", "item2", 3))

	n, err := c.Len(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestWorkerDispatchesFIFO(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 2)
	w := NewWorker(c, "work")
	w.Register("do.thing", func(_ context.Context, itemID string) error {
		seen <- itemID
		return nil
	})

	require.NoError(t, c.Enqueue(ctx, "work", "do.thing", "item1", 3))
	require.NoError(t, c.Enqueue(ctx, "work", "do.thing", "item2", 3))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Equal(t, "item1", waitFor(t, seen))
	assert.Equal(t, "item2", waitFor(t, seen))

	cancel()
	require.NoError(t, <-done)
}

func TestWorkerRetriesThenParksJob(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	w := NewWorker(c, "work")
	w.Register("do.thing", func(context.Context, string) error {
		calls.Add(1)
		return errors.New("boom")
	})

	require.NoError(t, c.Enqueue(ctx, "work", "do.thing", "item1", 2))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		failed, err := c.FailedJobs(context.Background(), "work")
		return err == nil && len(failed) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), calls.Load())

	failed, err := c.FailedJobs(context.Background(), "work")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "item1", failed[0].ItemID)
	assert.Equal(t, "boom", failed[0].LastError)
	assert.Equal(t, 0, failed[0].RetriesLeft)
}

func TestWorkerParksUnregisteredTask(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(c, "work")
	require.NoError(t, c.Enqueue(ctx, "work", "nobody.home", "item1", 3))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		failed, err := c.FailedJobs(context.Background(), "work")
		return err == nil && len(failed) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func waitFor(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job")
		return ""
	}
}
