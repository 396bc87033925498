package api

import (
	"errors"
	"log"
	"net/http"

	"registripe/internal/registration"
	"registripe/pkg/middleware"
	"registripe/pkg/models"

	"github.com/gin-gonic/gin"
)

// RegistrationHandler handles registration HTTP requests.
type RegistrationHandler struct {
	Store *registration.Store
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(store *registration.Store) *RegistrationHandler {
	return &RegistrationHandler{Store: store}
}

// CreateRegistration godoc
// @Summary      Start a registration
// @Description  Creates a registration in Unsubmitted status
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateRegistrationRequest  true  "Registration details"
// @Success      201      {object}  models.Registration
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /registrations [post]
func (h *RegistrationHandler) CreateRegistration(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.Store.Create(c.Request.Context(), req)
	if err != nil {
		log.Printf("[API] Error creating registration: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create registration"})
		return
	}

	log.Printf("[API] Registration created: id=%s event_id=%s correlation_id=%s", reg.ID, reg.EventID, correlationID)
	c.JSON(http.StatusCreated, reg)
}

// GetRegistration godoc
// @Summary      Get a registration by ID
// @Tags         registrations
// @Produce      json
// @Param        id   path      string  true  "Registration ID"
// @Success      200  {object}  models.Registration
// @Failure      404  {object}  map[string]string
// @Router       /registrations/{id} [get]
func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	reg, err := h.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch registration")
		return
	}
	c.JSON(http.StatusOK, reg)
}

// ListRegistrations godoc
// @Summary      List registrations
// @Description  Returns registrations newest first, optionally filtered by status
// @Tags         registrations
// @Produce      json
// @Param        status  query     string  false  "Unsubmitted, Unconfirmed, Valid or Cancelled"
// @Success      200     {array}   models.Registration
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /registrations [get]
func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	status := models.RegistrationStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	regs, err := h.Store.List(c.Request.Context(), status)
	if err != nil {
		log.Printf("[API] Error listing registrations: %v correlation_id=%s", err, middleware.GetCorrelationID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch registrations"})
		return
	}
	c.JSON(http.StatusOK, regs)
}

// RegistrationStats godoc
// @Summary      Count registrations by status
// @Tags         registrations
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      500  {object}  map[string]string
// @Router       /registrations/stats [get]
func (h *RegistrationHandler) RegistrationStats(c *gin.Context) {
	counts, err := h.Store.CountByStatus(c.Request.Context())
	if err != nil {
		log.Printf("[API] Error counting registrations: %v correlation_id=%s", err, middleware.GetCorrelationID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count registrations"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// SubmitRegistration godoc
// @Summary      Submit a registration
// @Description  Moves an Unsubmitted registration to Unconfirmed
// @Tags         registrations
// @Produce      json
// @Param        id   path      string  true  "Registration ID"
// @Success      200  {object}  models.Registration
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /registrations/{id}/submit [post]
func (h *RegistrationHandler) SubmitRegistration(c *gin.Context) {
	h.transition(c, models.StatusUnsubmitted, models.StatusUnconfirmed)
}

// ConfirmRegistration godoc
// @Summary      Confirm a registration
// @Description  Moves an Unconfirmed registration to Valid
// @Tags         registrations
// @Produce      json
// @Param        id   path      string  true  "Registration ID"
// @Success      200  {object}  models.Registration
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /registrations/{id}/confirm [post]
func (h *RegistrationHandler) ConfirmRegistration(c *gin.Context) {
	h.transition(c, models.StatusUnconfirmed, models.StatusValid)
}

func (h *RegistrationHandler) transition(c *gin.Context, from, to models.RegistrationStatus) {
	id := c.Param("id")
	reg, err := h.Store.Transition(c.Request.Context(), id, from, to)
	if err != nil {
		h.writeError(c, err, "failed to update registration")
		return
	}

	log.Printf("[API] Registration %s: id=%s from=%s correlation_id=%s", to, id, from, middleware.GetCorrelationID(c))
	c.JSON(http.StatusOK, reg)
}

func (h *RegistrationHandler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, registration.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "registration not found"})
	case errors.Is(err, registration.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] %s: %v correlation_id=%s", msg, err, middleware.GetCorrelationID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
