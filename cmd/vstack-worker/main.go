package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	vamqp "vstack/internal/amqp"
	"vstack/internal/cli"
	applog "vstack/internal/log"
	"vstack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cli.SetupLogger(applog.ComponentWorker)

	slog.Info("Starting vstack-worker")

	cfg := cli.LoadAndValidateConfig()

	store, err := cli.OpenStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.DataBackend != "sqlite" {
		slog.Warn("Memory backend selected, ingested transactions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	budgets, err := services.NewBudgetService(ctx, store, cfg.SaveDebounce)
	if err != nil {
		slog.Error("Failed to initialize budget service", "error", err)
		os.Exit(1)
	}
	ingest := services.NewIngestService(budgets, store)

	amqpClient, err := vamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeSMS(gctx, ingest.HandleMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()

		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := budgets.Close(flushCtx); err != nil {
			slog.Error("Failed to flush budget state", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker shutdown complete")
}
