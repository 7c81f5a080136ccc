package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// TaskFunc executes one job for one item id. It must be safe to re-run from
// scratch: failed jobs are re-enqueued with the same item id.
type TaskFunc func(ctx context.Context, itemID string) error

// Worker consumes named queues and dispatches jobs to registered task funcs.
// Each queue gets one sequential consumer, so jobs on the same queue execute
// FIFO one at a time; queues run independently of each other.
type Worker struct {
	client *Client
	queues []string
	tasks  map[string]TaskFunc
}

func NewWorker(client *Client, queues ...string) *Worker {
	return &Worker{client: client, queues: queues, tasks: make(map[string]TaskFunc)}
}

// Register binds a task name to its implementation. Not safe to call after
// Run has started.
func (w *Worker) Register(task string, fn TaskFunc) {
	w.tasks[task] = fn
}

// Run consumes all configured queues until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range w.queues {
		q := q
		g.Go(func() error { return w.consume(gctx, q) })
	}
	return g.Wait()
}

func (w *Worker) consume(ctx context.Context, queueName string) error {
	key := keyPrefix + queueName
	for {
		res, err := w.client.rdb.BRPop(ctx, time.Second, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Str("queue", queueName).Msg("queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Error().Err(err).Str("queue", queueName).Msg("dropping undecodable job")
			continue
		}
		w.dispatch(ctx, queueName, &job)
	}
}

func (w *Worker) dispatch(ctx context.Context, queueName string, job *Job) {
	fn, ok := w.tasks[job.Task]
	if !ok {
		log.Error().Str("task", job.Task).Str("queue", queueName).Msg("no handler registered for task")
		w.fail(ctx, queueName, job, "no handler registered")
		return
	}

	log.Info().Str("queue", queueName).Str("task", job.Task).Str("item_id", job.ItemID).Msg("job started")
	err := fn(ctx, job.ItemID)
	if err == nil {
		log.Info().Str("queue", queueName).Str("task", job.Task).Str("item_id", job.ItemID).Msg("job finished")
		return
	}

	if job.RetriesLeft > 0 {
		job.RetriesLeft--
		job.LastError = err.Error()
		log.Warn().Err(err).Str("task", job.Task).Str("item_id", job.ItemID).
			Int("retries_left", job.RetriesLeft).Msg("job failed, requeueing")
		if perr := w.client.push(ctx, queueName, job); perr != nil {
			log.Error().Err(perr).Str("task", job.Task).Msg("requeue failed")
		}
		return
	}

	log.Error().Err(err).Str("task", job.Task).Str("item_id", job.ItemID).Msg("job permanently failed")
	w.fail(ctx, queueName, job, err.Error())
}

// fail parks the job on the queue's failed list for operators.
func (w *Worker) fail(ctx context.Context, queueName string, job *Job, msg string) {
	job.LastError = msg
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := w.client.rdb.LPush(ctx, keyPrefix+queueName+":failed", raw).Err(); err != nil {
		log.Error().Err(err).Str("queue", queueName).Msg("recording failed job")
	}
}
