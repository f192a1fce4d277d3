package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"repartition/internal/amqp"
	"repartition/internal/config"
	"repartition/internal/log"
	"repartition/internal/registre"
	gregistre "repartition/internal/registre/google"
	"repartition/internal/storage"
	"repartition/internal/worker"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting repartition export worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The Google Sheets register is optional; file exports always run.
	var reg registre.Appender
	if cfg.RegistreEnabled() {
		client, err := gregistre.NewClient(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize register client", log.FieldError, err)
			os.Exit(1)
		}
		reg = client
		logger.Info("Register client initialized", "spreadsheet_id", cfg.RegistreSpreadsheetID)
	} else {
		logger.Info("Register disabled - no REGISTRE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, reg, cfg.ExportDir, cfg.ExportBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catch up on anything queued while the worker was down.
	logger.Info("Processing pending exports from previous runs")
	if err := exportWorker.ProcessPendingAffaires(ctx); err != nil {
		logger.Error("Startup export pass failed", log.FieldError, err)
		// Keep going; the periodic pass retries.
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeAffaireExport(gctx, func(msg *amqp.AffaireExportMessage) error {
			return exportWorker.HandleExportMessage(gctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := exportWorker.ProcessPendingAffaires(gctx); err != nil {
					logger.Error("Periodic export pass failed", log.FieldError, err)
				}
			}
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Worker context cancelled")
	}
	cancel()

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
