package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"registripe/internal/purge"
	"registripe/pkg/middleware"
	"registripe/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventPublisher defines the interface for publishing task triggers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte, correlationID string) error
}

// PurgeTask is the registration purge task as seen by the API.
type PurgeTask interface {
	Run(ctx context.Context) (purge.Result, error)
	Preview(ctx context.Context) (purge.Result, error)
}

// TaskHandler exposes maintenance tasks over HTTP.
type TaskHandler struct {
	Task      PurgeTask
	Publisher EventPublisher
}

// NewTaskHandler creates a new TaskHandler. pub may be nil, in which case
// async requests are refused.
func NewTaskHandler(task PurgeTask, pub EventPublisher) *TaskHandler {
	return &TaskHandler{Task: task, Publisher: pub}
}

// RunPurge godoc
// @Summary      Run the registration purge task
// @Description  Deletes stale Unsubmitted registrations and cancels stale Unconfirmed ones
// @Tags         tasks
// @Produce      json
// @Param        dry_run  query     bool  false  "Only count what would change"
// @Param        async    query     bool  false  "Enqueue for the purge worker instead of running inline"
// @Success      200      {object}  purge.Result
// @Success      202      {object}  models.TaskTrigger
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Router       /tasks/registration-purge [post]
func (h *TaskHandler) RunPurge(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dry_run must be a boolean"})
		return
	}
	async, err := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "async must be a boolean"})
		return
	}

	if async {
		h.enqueue(c, dryRun, correlationID)
		return
	}

	var res purge.Result
	if dryRun {
		res, err = h.Task.Preview(c.Request.Context())
	} else {
		res, err = h.Task.Run(c.Request.Context())
	}
	if err != nil {
		log.Printf("[API] Purge failed: %v dry_run=%t correlation_id=%s", err, dryRun, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purge failed"})
		return
	}

	log.Printf("[API] Purge done: deleted=%d cancelled=%d dry_run=%t correlation_id=%s",
		res.Deleted, res.Cancelled, res.DryRun, correlationID)
	c.JSON(http.StatusOK, res)
}

func (h *TaskHandler) enqueue(c *gin.Context, dryRun bool, correlationID string) {
	if h.Publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue not configured"})
		return
	}

	trigger := models.TaskTrigger{
		TriggerID:     uuid.New().String(),
		CorrelationID: correlationID,
		Task:          models.TaskRegistrationPurge,
		DryRun:        dryRun,
		RequestedAt:   time.Now().UTC(),
	}
	body, _ := json.Marshal(trigger)

	if err := h.Publisher.Publish(c.Request.Context(), string(trigger.Task), body, correlationID); err != nil {
		log.Printf("[API] Error publishing trigger: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue purge"})
		return
	}

	log.Printf("[API] Purge enqueued: trigger_id=%s correlation_id=%s", trigger.TriggerID, correlationID)
	c.JSON(http.StatusAccepted, trigger)
}
