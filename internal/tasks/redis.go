package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	QueueKey      = "judge:tasks"      // Pending tasks, pushed left and popped right
	DeadLetterKey = "judge:tasks:dead" // Failed tasks as DeadLetter JSON
	popTimeout    = time.Second        // BRPOP block time between context checks
)

// RedisQueue dispatches tasks through a Redis list so that separate worker processes
// can run them.
type RedisQueue struct {
	client  *redis.Client
	key     string
	deadKey string
}

// NewRedisQueue creates a RedisQueue on the default keys.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: QueueKey, deadKey: DeadLetterKey}
}

// Dispatch pushes t onto the queue.
func (q *RedisQueue) Dispatch(ctx context.Context, t Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Len returns the number of pending tasks.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Consume runs workers goroutines that pop and execute tasks until ctx ends.
func (q *RedisQueue) Consume(ctx context.Context, registry *Registry, workers int, timeout time.Duration) error {
	if workers <= 0 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.consumeLoop(ctx, registry, timeout)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (q *RedisQueue) consumeLoop(ctx context.Context, registry *Registry, timeout time.Duration) {
	for ctx.Err() == nil {
		t, raw, ok, err := q.pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[DISPATCH] redis pop failed: %v", err)
			sleep(ctx, popTimeout)
			continue
		}
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			// BRPOP outlived the cancel; hand the task back to the next consumer.
			if err := q.client.RPush(context.WithoutCancel(ctx), q.key, raw).Err(); err != nil {
				log.Printf("[DISPATCH] failed to requeue task %s after cancel: %v", t.ID, err)
			}
			return
		}
		if err := execute(registry, t, timeout); err != nil {
			if dlErr := q.deadLetter(context.WithoutCancel(ctx), t, err); dlErr != nil {
				log.Printf("[DISPATCH] failed to dead-letter task %s: %v", t.ID, dlErr)
			}
		}
	}
}

// pop waits up to popTimeout for a task and returns it with its raw payload.
// ok is false when none arrived.
func (q *RedisQueue) pop(ctx context.Context) (Task, string, bool, error) {
	res, err := q.client.BRPop(ctx, popTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return Task{}, "", false, nil
	}
	if err != nil {
		return Task{}, "", false, err
	}
	// res is [key, value]
	var t Task
	if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
		log.Printf("[DISPATCH] dropping malformed task: %v", err)
		return Task{}, "", false, nil
	}
	return t, res[1], true, nil
}

func (q *RedisQueue) deadLetter(ctx context.Context, t Task, cause error) error {
	data, err := json.Marshal(DeadLetter{Task: t, Error: cause.Error(), FailedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.deadKey, data).Err()
}

// DeadLetters returns every dead letter, most recent first.
func (q *RedisQueue) DeadLetters(ctx context.Context) ([]DeadLetter, error) {
	items, err := q.client.LRange(ctx, q.deadKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}
	out := make([]DeadLetter, 0, len(items))
	for _, item := range items {
		var dl DeadLetter
		if err := json.Unmarshal([]byte(item), &dl); err != nil {
			continue
		}
		out = append(out, dl)
	}
	return out, nil
}

// Replay requeues dead letters whose attempt count is below maxAttempts, incrementing
// the attempt. Tasks at the limit stay dead. It returns the number requeued.
func (q *RedisQueue) Replay(ctx context.Context, maxAttempts int) (int, error) {
	n, err := q.client.LLen(ctx, q.deadKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count dead letters: %w", err)
	}

	replayed := 0
	for i := int64(0); i < n; i++ {
		item, err := q.client.RPop(ctx, q.deadKey).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return replayed, fmt.Errorf("failed to pop dead letter: %w", err)
		}

		var dl DeadLetter
		if err := json.Unmarshal([]byte(item), &dl); err != nil {
			log.Printf("[DISPATCH] dropping malformed dead letter: %v", err)
			continue
		}
		if dl.Task.Attempt >= maxAttempts {
			if err := q.client.LPush(ctx, q.deadKey, item).Err(); err != nil {
				return replayed, fmt.Errorf("failed to keep dead letter: %w", err)
			}
			continue
		}

		dl.Task.Attempt++
		dl.Task.EnqueuedAt = time.Now().UTC()
		if err := q.Dispatch(ctx, dl.Task); err != nil {
			if pushErr := q.client.LPush(context.WithoutCancel(ctx), q.deadKey, item).Err(); pushErr != nil {
				log.Printf("[DISPATCH] lost dead letter for task %s: %v", dl.Task.ID, pushErr)
			}
			return replayed, err
		}
		replayed++
	}
	if replayed > 0 {
		log.Printf("[DISPATCH] replayed %d dead letters", replayed)
	}
	return replayed, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
