package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"docuchat/internal/core"
)

const keyPrefix = "queue:"

// Job is one queued invocation of a named task bound to a single item id.
// Jobs carry no state beyond that: all durable state lives in the item row
// and its artifacts, so a retried job re-derives everything from scratch.
type Job struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	ItemID      string `json:"item_id"`
	RetriesLeft int    `json:"retries_left"`
	MaxRetries  int    `json:"max_retries"`
	LastError   string `json:"last_error,omitempty"`
}

// Client submits jobs to named Redis-backed queues. Queues are FIFO; there is
// no ordering guarantee across queues.
type Client struct {
	rdb *redis.Client
}

func NewClient(ctx context.Context, addr string) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error { return c.rdb.Close() }

// Enqueue submits a job and returns as soon as Redis accepts it; it never
// waits on a worker.
func (c *Client) Enqueue(ctx context.Context, queueName, task, itemID string, maxRetries int) error {
	job := &Job{
		ID:          uuid.NewString(),
		Task:        task,
		ItemID:      itemID,
		RetriesLeft: maxRetries,
		MaxRetries:  maxRetries,
	}
	if err := c.push(ctx, queueName, job); err != nil {
		return fmt.Errorf("enqueue %s on %s: %w", task, queueName, err)
	}
	log.Info().Str("queue", queueName).Str("task", task).Str("item_id", itemID).Msg("job enqueued")
	return nil
}

func (c *Client) push(ctx context.Context, queueName string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.rdb.LPush(ctx, keyPrefix+queueName, raw).Err()
}

// Len reports the number of jobs waiting on a queue.
func (c *Client) Len(ctx context.Context, queueName string) (int64, error) {
	return c.rdb.LLen(ctx, keyPrefix+queueName).Result()
}

// FailedJobs returns the jobs parked on a queue's failed list, newest first.
// Permanently failed jobs stay there for operator inspection; nothing retries
// them automatically.
func (c *Client) FailedJobs(ctx context.Context, queueName string) ([]Job, error) {
	raws, err := c.rdb.LRange(ctx, keyPrefix+queueName+":failed", 0, -1).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(raws))
	for _, raw := range raws {
		var j Job
		if err := json.Unmarshal([]byte(raw), &j); err != nil {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

var _ core.JobQueue = (*Client)(nil)
