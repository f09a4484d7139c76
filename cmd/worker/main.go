package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/efebarandurmaz/archrecover/internal/archstore"
	"github.com/efebarandurmaz/archrecover/internal/archstore/neo4j"
	"github.com/efebarandurmaz/archrecover/internal/config"
	"github.com/efebarandurmaz/archrecover/internal/observability"
	temporalmod "github.com/efebarandurmaz/archrecover/internal/temporal"

	temporalclient "go.temporal.io/sdk/client"
)

func main() {
	configPath := "configs/archrecover.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	// The graph store is optional; workflows that ask for storage fail
	// without it.
	var repo archstore.Repository
	if cfg.Graph.URI != "" {
		r, err := neo4j.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			logger.Warn("neo4j unavailable, model storage disabled", "uri", cfg.Graph.URI, "error", err)
		} else {
			repo = r
			defer r.Close(ctx)
		}
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Repository: repo,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	w.Stop()
	fmt.Println("Worker stopped")
}
