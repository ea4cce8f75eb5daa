package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	vamqp "vstack/internal/amqp"
	"vstack/internal/cli"
	apphttp "vstack/internal/http"
	applog "vstack/internal/log"
	"vstack/internal/report"
	"vstack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cli.SetupLogger(applog.ComponentApp)

	cfg := cli.LoadAndValidateConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := cli.OpenStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	budgets, err := services.NewBudgetService(ctx, store, cfg.SaveDebounce)
	if err != nil {
		slog.Error("Failed to initialize budget service", "error", err)
		os.Exit(1)
	}

	sender, err := report.NewSender(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize report mailer", "error", err)
		os.Exit(1)
	}
	checks := services.NewMonthlyCheckService(budgets, store, sender, cfg.ReportTo, cfg.ReportCheckInterval)

	// AMQP is optional here: without it the SMS enqueue endpoint answers
	// 503 and ingest runs only through the worker.
	var publisher apphttp.SMSPublisher
	if cfg.AMQPURL != "" {
		client, err := vamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("AMQP unavailable, SMS enqueue disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, budgets, checks, store, publisher)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting vstack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := checks.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := budgets.Close(shutdownCtx); err != nil {
			slog.Error("Failed to flush budget state", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
