package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/hackathon-judge/internal/chat"
	"github.com/jonathan/hackathon-judge/internal/config"
	"github.com/jonathan/hackathon-judge/internal/janitor"
	"github.com/jonathan/hackathon-judge/internal/orchestrator"
	"github.com/jonathan/hackathon-judge/internal/projectsearch"
	"github.com/jonathan/hackathon-judge/internal/server"
	"github.com/jonathan/hackathon-judge/internal/tasks"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveConsume bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that accepts project submissions, runs the analysis agents in the background and serves search, chat and admin endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveConsume, "consume", true, "With the redis dispatcher, also run analysis consumers in this process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	m, err := newModels(ctx, cfg)
	if err != nil {
		st.Close()
		return err
	}

	w, err := newWorkers(ctx, cfg, st, m)
	if err != nil {
		m.Close()
		st.Close()
		return err
	}
	registry := orchestrator.NewRegistry(w.market, w.code)

	// Background lifecycle: consumers and the janitor stop when the server shuts down.
	bgCtx, cancelBackground := context.WithCancel(ctx)
	var shutdown []func(context.Context)

	var dispatcher tasks.Dispatcher
	var replayer janitor.Replayer
	switch cfg.Dispatcher {
	case config.DispatchRedis:
		queue, client, err := newRedisQueue(ctx, cfg)
		if err != nil {
			cancelBackground()
			m.Close()
			st.Close()
			return err
		}
		dispatcher, replayer = queue, queue
		if serveConsume {
			go func() {
				_ = queue.Consume(bgCtx, registry, cfg.WorkerPoolSize, taskTimeout(cfg))
			}()
		}
		shutdown = append(shutdown, func(context.Context) { _ = client.Close() })
	default:
		pool := newPool(cfg, registry)
		dispatcher = pool
		shutdown = append(shutdown, func(ctx context.Context) {
			if err := pool.Close(ctx); err != nil {
				log.Printf("Warning: worker pool did not drain: %v", err)
			}
		})
	}

	if cfg.JanitorEnabled {
		jan, err := janitor.New(janitorConfig(cfg), w.workspace, replayer)
		if err != nil {
			cancelBackground()
			m.Close()
			st.Close()
			return fmt.Errorf("failed to create janitor: %w", err)
		}
		jan.Start()
		shutdown = append([]func(context.Context){jan.Stop}, shutdown...)
	}

	var auth *config.AuthConfig
	if a, err := config.NewAuthConfig(); err != nil {
		log.Printf("Warning: admin routes disabled: %v", err)
	} else {
		auth = a
	}

	srv := server.New(server.Config{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        auth,
	}, server.Deps{
		Store:     st,
		Submitter: orchestrator.New(st, dispatcher),
		Searcher:  projectsearch.New(st, m.embedder),
		Chat:      chat.New(st, m.client, newSpeech(cfg)),
	})

	srv.OnShutdown(func(ctx context.Context) {
		cancelBackground()
		for _, fn := range shutdown {
			fn(ctx)
		}
		m.Close()
		st.Close()
	})

	log.Printf("store=%s dispatcher=%s search_tool=%s clone_dir=%s", cfg.StoreBackend, cfg.Dispatcher, cfg.SearchTool, cfg.CloneDir)
	return srv.Start()
}
