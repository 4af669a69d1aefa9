// Package janitor runs periodic housekeeping: removing orphaned clone directories and
// replaying dead-lettered analysis tasks.
package janitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes working directories older than a maximum age.
type Sweeper interface {
	Sweep(maxAge time.Duration) (int, error)
}

// Replayer requeues dead-lettered tasks below an attempt limit.
type Replayer interface {
	Replay(ctx context.Context, maxAttempts int) (int, error)
}

// Config schedules the janitor jobs. Specs use the six-field cron format with seconds.
type Config struct {
	SweepSpec   string
	MaxAge      time.Duration
	ReplaySpec  string
	MaxAttempts int
}

// DefaultConfig sweeps every ten minutes and replays dead letters every half hour.
func DefaultConfig() Config {
	return Config{
		SweepSpec:   "0 */10 * * * *",
		MaxAge:      time.Hour,
		ReplaySpec:  "0 */30 * * * *",
		MaxAttempts: 3,
	}
}

// Janitor owns a cron scheduler.
type Janitor struct {
	cron     *cron.Cron
	cfg      Config
	sweeper  Sweeper
	replayer Replayer
}

// New creates a Janitor. replayer may be nil when tasks are not queued in Redis.
func New(cfg Config, sweeper Sweeper, replayer Replayer) (*Janitor, error) {
	j := &Janitor{cron: cron.New(cron.WithSeconds()), cfg: cfg, sweeper: sweeper, replayer: replayer}

	if sweeper != nil {
		if _, err := j.cron.AddFunc(cfg.SweepSpec, j.SweepNow); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSpec, err)
		}
	}
	if replayer != nil {
		if _, err := j.cron.AddFunc(cfg.ReplaySpec, j.ReplayNow); err != nil {
			return nil, fmt.Errorf("invalid replay schedule %q: %w", cfg.ReplaySpec, err)
		}
	}
	return j, nil
}

// Start runs the scheduler in the background.
func (j *Janitor) Start() {
	log.Printf("[JANITOR] started with %d jobs", len(j.cron.Entries()))
	j.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx ends.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// SweepNow removes stale clone directories once.
func (j *Janitor) SweepNow() {
	if j.sweeper == nil {
		return
	}
	removed, err := j.sweeper.Sweep(j.cfg.MaxAge)
	if err != nil {
		log.Printf("[JANITOR] sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[JANITOR] removed %d stale working directories", removed)
	}
}

// ReplayNow requeues dead letters once.
func (j *Janitor) ReplayNow() {
	if j.replayer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := j.replayer.Replay(ctx, j.cfg.MaxAttempts); err != nil {
		log.Printf("[JANITOR] replay failed: %v", err)
	}
}
