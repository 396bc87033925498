package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"registripe/internal/purge"
	"registripe/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Purger runs the registration purge task.
type Purger interface {
	Run(ctx context.Context) (purge.Result, error)
	Preview(ctx context.Context) (purge.Result, error)
}

// Runner invokes the purge task on a fixed interval and on demand when a
// trigger message arrives.
type Runner struct {
	DB         *sql.DB
	Task       Purger
	Interval   time.Duration
	RunOnStart bool
}

// NewRunner creates a new Runner.
func NewRunner(db *sql.DB, task Purger, interval time.Duration) *Runner {
	return &Runner{DB: db, Task: task, Interval: interval, RunOnStart: true}
}

// Start runs the task every Interval until ctx is cancelled. A failed run is
// logged and retried on the next tick.
func (r *Runner) Start(ctx context.Context) {
	if r.RunOnStart {
		r.tick(ctx)
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Worker] Scheduler stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.Task.Run(ctx); err != nil {
		log.Printf("[Worker] Scheduled purge failed: %v", err)
	}
}

// HandleMessage processes a task trigger delivered over RabbitMQ.
func (r *Runner) HandleMessage(delivery amqp.Delivery) error {
	var trigger models.TaskTrigger
	if err := json.Unmarshal(delivery.Body, &trigger); err != nil {
		log.Printf("[Worker] Failed to unmarshal trigger: %v correlation_id=%s", err, delivery.CorrelationId)
		return err
	}
	if trigger.Task != models.TaskRegistrationPurge {
		log.Printf("[Worker] Unknown task %q trigger_id=%s correlation_id=%s", trigger.Task, trigger.TriggerID, trigger.CorrelationID)
		return fmt.Errorf("unknown task %q", trigger.Task)
	}

	log.Printf("[Worker] Processing trigger: task=%s trigger_id=%s dry_run=%t correlation_id=%s",
		trigger.Task, trigger.TriggerID, trigger.DryRun, trigger.CorrelationID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Idempotency check
	var exists bool
	err := r.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM idempotency_keys WHERE event_id = $1)", trigger.TriggerID).Scan(&exists)
	if err != nil {
		log.Printf("[Worker] Error checking idempotency: %v correlation_id=%s", err, trigger.CorrelationID)
		return err
	}
	if exists {
		log.Printf("[Worker] Duplicate trigger ignored: trigger_id=%s correlation_id=%s", trigger.TriggerID, trigger.CorrelationID)
		return nil
	}

	var res purge.Result
	if trigger.DryRun {
		res, err = r.Task.Preview(ctx)
	} else {
		res, err = r.Task.Run(ctx)
	}
	if err != nil {
		log.Printf("[Worker] Purge failed: %v trigger_id=%s correlation_id=%s", err, trigger.TriggerID, trigger.CorrelationID)
		return err
	}

	_, _ = r.DB.ExecContext(ctx, "INSERT INTO idempotency_keys (event_id) VALUES ($1) ON CONFLICT DO NOTHING", trigger.TriggerID)

	log.Printf("[Worker] Trigger done: trigger_id=%s deleted=%d cancelled=%d dry_run=%t correlation_id=%s",
		trigger.TriggerID, res.Deleted, res.Cancelled, res.DryRun, trigger.CorrelationID)
	return nil
}
