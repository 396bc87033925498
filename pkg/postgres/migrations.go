package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// RunMigrations creates the tables a service needs. Every statement is
// idempotent so services can run it on each start.
func RunMigrations(ctx context.Context, db *sql.DB, service string) error {
	for i, m := range getServiceMigrations(service) {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d for %s: %w", i+1, service, err)
		}
	}
	log.Printf("[Postgres] Migrations completed for service: %s", service)
	return nil
}

var registrationsSchema = []string{
	`CREATE TABLE IF NOT EXISTS event_registrations (
		id VARCHAR(36) PRIMARY KEY,
		event_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Unsubmitted',
		created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS event_registrations_status_created_idx
		ON event_registrations (status, created)`,
}

var idempotencySchema = []string{
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		event_id VARCHAR(36) PRIMARY KEY,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func getServiceMigrations(service string) []string {
	switch service {
	case "worker":
		return append(append([]string{}, registrationsSchema...), idempotencySchema...)
	default:
		return registrationsSchema
	}
}
