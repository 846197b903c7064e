package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"solar-analytics/internal/api"
	"solar-analytics/internal/config"
	"solar-analytics/internal/db"
	"solar-analytics/internal/dispatch"
	"solar-analytics/internal/kafka"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/orchestrator"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Connect to database
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	// Alert dispatch worker pool
	dispatcher := dispatch.New(logger, cfg)
	var wg sync.WaitGroup
	dispatcher.Start(&wg)

	// Analysis pipeline
	orch := orchestrator.New(logger)

	ctx, cancel := context.WithCancel(context.Background())

	// Observation ingestion; new data invalidates cached reports
	var consumer *kafka.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = kafka.NewConsumer(cfg, dbConn, logger, orch.Invalidate)
		consumer.Start(ctx, &wg)
	} else {
		logger.Warnf("KAFKA_BROKER not set, ingestion disabled")
	}

	// Start API server
	router := api.NewRouter(dbConn, logger, cfg, orch, dispatcher)
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	if consumer != nil {
		consumer.Close()
	}
	dispatcher.Stop()
	wg.Wait()
	logger.Infof("Service stopped")
}
