package tasks

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned when the pool's queue has no room.
	ErrQueueFull = errors.New("task queue is full")
	// ErrPoolClosed is returned by Dispatch after Close.
	ErrPoolClosed = errors.New("task pool is closed")
)

// DefaultMaxDeadLetters bounds the dead letters a Pool keeps in memory.
const DefaultMaxDeadLetters = 100

// PoolConfig sizes a Pool.
type PoolConfig struct {
	Workers        int
	QueueSize      int
	TaskTimeout    time.Duration
	MaxDeadLetters int
}

// Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	registry *Registry
	queue    chan Task
	timeout  time.Duration
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	deadMu  sync.Mutex
	dead    []DeadLetter
	maxDead int
}

// NewPool starts cfg.Workers goroutines consuming a queue of cfg.QueueSize tasks.
func NewPool(registry *Registry, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MaxDeadLetters <= 0 {
		cfg.MaxDeadLetters = DefaultMaxDeadLetters
	}

	p := &Pool{
		registry: registry,
		queue:    make(chan Task, cfg.QueueSize),
		timeout:  cfg.TaskTimeout,
		maxDead:  cfg.MaxDeadLetters,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

// Dispatch queues t. It never blocks; a full queue returns ErrQueueFull.
func (p *Pool) Dispatch(_ context.Context, t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.queue {
		if err := execute(p.registry, t, p.timeout); err != nil {
			p.addDead(t, err)
		}
	}
}

func (p *Pool) addDead(t Task, err error) {
	p.deadMu.Lock()
	defer p.deadMu.Unlock()
	p.dead = append(p.dead, DeadLetter{Task: t, Error: err.Error(), FailedAt: time.Now().UTC()})
	if over := len(p.dead) - p.maxDead; over > 0 {
		p.dead = append([]DeadLetter(nil), p.dead[over:]...)
	}
}

// DeadLetters returns the most recent failed tasks, oldest first.
func (p *Pool) DeadLetters() []DeadLetter {
	p.deadMu.Lock()
	defer p.deadMu.Unlock()
	return append([]DeadLetter(nil), p.dead...)
}

// Close stops accepting tasks and waits for queued ones to finish or ctx to end.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Printf("[DISPATCH] pool closed with tasks still running: %v", ctx.Err())
		return ctx.Err()
	}
}
