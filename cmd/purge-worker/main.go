package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"registripe/internal/purge"
	"registripe/internal/registration"
	"registripe/internal/worker"
	"registripe/pkg/config"
	"registripe/pkg/models"
	"registripe/pkg/postgres"
	"registripe/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[Worker] Starting purge-worker...")

	cfg := config.LoadForService("WORKER")

	// Connect to PostgreSQL
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Worker] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(context.Background(), db, "worker"); err != nil {
		log.Fatalf("[Worker] Failed to run migrations: %v", err)
	}

	// Connect to RabbitMQ
	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("[Worker] Failed to connect to RabbitMQ: %v", err)
	}
	defer rmqConn.Close()

	task := purge.NewTask(registration.NewStore(db), purge.Config{
		UnsubmittedTTL: cfg.UnsubmittedTTL,
		UnconfirmedTTL: cfg.UnconfirmedTTL,
	})
	log.Printf("[Worker] Thresholds: unsubmitted=%s unconfirmed=%s interval=%s",
		task.UnsubmittedTTL, task.UnconfirmedTTL, cfg.PurgeInterval)

	runner := worker.NewRunner(db, task, cfg.PurgeInterval)
	runner.RunOnStart = cfg.PurgeOnStart

	consumerCfg := rabbitmq.ConsumerConfig{
		QueueName:    "registripe.tasks.purge",
		DLQName:      "dlq.registripe.tasks.purge",
		RoutingKeys:  []string{string(models.TaskRegistrationPurge)},
		ConsumerName: "purge-worker",
	}
	if err := rabbitmq.SetupConsumer(rmqConn, consumerCfg, runner.HandleMessage); err != nil {
		log.Fatalf("[Worker] Failed to setup consumer: %v", err)
	}

	// Metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
	go func() {
		log.Printf("[Worker] Metrics listening on port %s", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Worker] Metrics server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	log.Println("[Worker] Running. Waiting for ticks and triggers...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Worker] Shutting down...")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Println("[Worker] Exited gracefully")
}
