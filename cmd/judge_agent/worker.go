package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/hackathon-judge/internal/config"
	"github.com/jonathan/hackathon-judge/internal/janitor"
	"github.com/jonathan/hackathon-judge/internal/orchestrator"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued analysis tasks from Redis",
	Long:  "Runs market and code analysis consumers against the Redis task queue until interrupted. Dead letters are replayed on a schedule.",
	RunE:  runWorker,
}

var workerConcurrency int

func init() {
	workerCmd.Flags().IntVarP(&workerConcurrency, "concurrency", "c", 0, "Number of consumers (overrides WORKER_POOL_SIZE)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Dispatcher != config.DispatchRedis {
		return fmt.Errorf("the worker command needs DISPATCHER=%s, got %q", config.DispatchRedis, cfg.Dispatcher)
	}
	if workerConcurrency > 0 {
		cfg.WorkerPoolSize = workerConcurrency
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := newModels(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	w, err := newWorkers(ctx, cfg, st, m)
	if err != nil {
		return err
	}

	queue, client, err := newRedisQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if cfg.JanitorEnabled {
		jan, err := janitor.New(janitorConfig(cfg), w.workspace, queue)
		if err != nil {
			return fmt.Errorf("failed to create janitor: %w", err)
		}
		jan.Start()
		defer jan.Stop(context.Background())
	}

	log.Printf("[DISPATCH] consuming with %d workers from %s", cfg.WorkerPoolSize, cfg.RedisAddr)
	err = queue.Consume(ctx, orchestrator.NewRegistry(w.market, w.code), cfg.WorkerPoolSize, taskTimeout(cfg))
	if errors.Is(err, context.Canceled) {
		log.Printf("[DISPATCH] consumers stopped")
		return nil
	}
	return err
}
