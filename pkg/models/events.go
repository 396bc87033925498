package models

import "time"

// TaskType names a maintenance task that can be triggered over the message bus.
type TaskType string

const (
	TaskRegistrationPurge TaskType = "task.registration-purge"
)

// TaskTrigger asks a worker to run a maintenance task.
type TaskTrigger struct {
	TriggerID     string    `json:"trigger_id"`
	CorrelationID string    `json:"correlation_id"`
	Task          TaskType  `json:"task"`
	DryRun        bool      `json:"dry_run"`
	RequestedAt   time.Time `json:"requested_at"`
}
