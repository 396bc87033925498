// Package purge removes stale event registrations.
//
// Each run performs two independent sweeps. Unsubmitted registrations older
// than UnsubmittedTTL are deleted. Unconfirmed registrations older than
// UnconfirmedTTL are cancelled, not deleted. Valid registrations are never
// matched.
package purge

import (
	"context"
	"log"
	"time"

	"registripe/pkg/models"
)

const (
	DefaultUnsubmittedTTL = 20 * time.Minute
	DefaultUnconfirmedTTL = 6 * time.Hour
)

// Accepted grace periods. A value must be above the lower bound and at most
// the upper bound.
const (
	minUnsubmittedTTL = 15 * time.Minute
	maxUnsubmittedTTL = 20 * time.Minute
	minUnconfirmedTTL = 5 * time.Hour
	maxUnconfirmedTTL = 8 * time.Hour
)

// Store is the subset of the registration store the task needs.
type Store interface {
	DeleteStale(ctx context.Context, status models.RegistrationStatus, before time.Time) (int64, error)
	CancelStale(ctx context.Context, before time.Time) (int64, error)
	CountStale(ctx context.Context, status models.RegistrationStatus, before time.Time) (int64, error)
}

// Config holds the grace periods. Zero selects the default; values outside
// the accepted range are logged and replaced by the default.
type Config struct {
	UnsubmittedTTL time.Duration
	UnconfirmedTTL time.Duration
}

// Result describes what a run changed, or would change for a dry run.
type Result struct {
	Deleted   int64     `json:"deleted"`
	Cancelled int64     `json:"cancelled"`
	DryRun    bool      `json:"dry_run"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

// Task is the registration purge task.
type Task struct {
	Store          Store
	UnsubmittedTTL time.Duration
	UnconfirmedTTL time.Duration
	Now            func() time.Time
}

// NewTask creates a purge task over store.
func NewTask(store Store, cfg Config) *Task {
	return &Task{
		Store:          store,
		UnsubmittedTTL: boundedTTL("unsubmitted", cfg.UnsubmittedTTL, DefaultUnsubmittedTTL, minUnsubmittedTTL, maxUnsubmittedTTL),
		UnconfirmedTTL: boundedTTL("unconfirmed", cfg.UnconfirmedTTL, DefaultUnconfirmedTTL, minUnconfirmedTTL, maxUnconfirmedTTL),
		Now:            time.Now,
	}
}

func boundedTTL(name string, d, def, lo, hi time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	if d <= lo || d > hi {
		log.Printf("[Purge] Ignoring %s ttl=%s outside (%s, %s], using %s", name, d, lo, hi, def)
		return def
	}
	return d
}

// Run performs both sweeps against a single reference time. A store error
// from the first sweep stops the run and is returned as is.
func (t *Task) Run(ctx context.Context) (Result, error) {
	now := t.Now()
	res := Result{StartedAt: now}

	deleted, err := t.PurgeUnsubmitted(ctx, now)
	if err != nil {
		t.finish(&res, "error")
		return res, err
	}
	res.Deleted = deleted
	registrationsPurged.WithLabelValues("deleted").Add(float64(deleted))

	cancelled, err := t.CancelUnconfirmed(ctx, now)
	if err != nil {
		t.finish(&res, "error")
		return res, err
	}
	res.Cancelled = cancelled

	t.finish(&res, "success")
	registrationsPurged.WithLabelValues("cancelled").Add(float64(cancelled))
	log.Printf("[Purge] Run complete: deleted=%d cancelled=%d duration=%s", res.Deleted, res.Cancelled, res.Duration)
	return res, nil
}

// PurgeUnsubmitted deletes Unsubmitted registrations created at or before
// now minus UnsubmittedTTL.
func (t *Task) PurgeUnsubmitted(ctx context.Context, now time.Time) (int64, error) {
	return t.Store.DeleteStale(ctx, models.StatusUnsubmitted, now.Add(-t.UnsubmittedTTL))
}

// CancelUnconfirmed cancels Unconfirmed registrations created at or before
// now minus UnconfirmedTTL.
func (t *Task) CancelUnconfirmed(ctx context.Context, now time.Time) (int64, error) {
	return t.Store.CancelStale(ctx, now.Add(-t.UnconfirmedTTL))
}

// Preview counts what Run would change right now without touching the store.
func (t *Task) Preview(ctx context.Context) (Result, error) {
	now := t.Now()
	res := Result{StartedAt: now, DryRun: true}

	deleted, err := t.Store.CountStale(ctx, models.StatusUnsubmitted, now.Add(-t.UnsubmittedTTL))
	if err != nil {
		return res, err
	}
	cancelled, err := t.Store.CountStale(ctx, models.StatusUnconfirmed, now.Add(-t.UnconfirmedTTL))
	if err != nil {
		return res, err
	}

	res.Deleted = deleted
	res.Cancelled = cancelled
	res.Duration = t.Now().Sub(now).String()
	return res, nil
}

func (t *Task) finish(res *Result, outcome string) {
	elapsed := t.Now().Sub(res.StartedAt)
	res.Duration = elapsed.String()
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(elapsed.Seconds())
}
