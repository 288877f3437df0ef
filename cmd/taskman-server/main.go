package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskman/internal/agent"
	"taskman/internal/config"
	"taskman/internal/logging"
	"taskman/internal/server"
	"taskman/internal/store"
	"taskman/internal/task"
)

const shutdownGrace = 10 * time.Second

func main() {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found, continuing")
		}
	}

	cfg := config.Load(nil)
	logging.SetDefaultLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewComponentLogger("Main")

	taskStore, err := store.Open(cfg.DBPath, logging.NewComponentLogger("Store"))
	if err != nil {
		logger.Error("failed to open task store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = taskStore.Close() }()

	service := task.NewService(taskStore)

	if !cfg.Foundry.Configured() {
		logger.Warn("foundry agent not configured; /chat/agent-a will report upstream failure")
	}
	if !cfg.Graph.Configured() {
		logger.Warn("graph agent not configured; /chat/agent-b will report upstream failure")
	}
	agentA := agent.NewFoundryClient(cfg.Foundry, cfg.AgentTimeout, logging.NewComponentLogger("FoundryAgent"))
	agentB := agent.NewGraphClient(cfg.Graph, cfg.AgentTimeout, logging.NewComponentLogger("GraphAgent"))

	srv := server.New(cfg, service, agentA, agentB, logging.NewComponentLogger("Server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("received %s", sig)
	case err := <-errCh:
		if err != nil {
			logger.Error("server error: %v", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error: %v", err)
		os.Exit(1)
	}
}
