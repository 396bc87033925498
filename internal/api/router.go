package api

import (
	"net/http"

	"registripe/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter creates and configures the Gin router.
func NewRouter(rh *RegistrationHandler, th *TaskHandler) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery(), middleware.CorrelationID(), middleware.RequestLog("API"))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Registration routes
	regs := r.Group("/registrations")
	regs.POST("", rh.CreateRegistration)
	regs.GET("", rh.ListRegistrations)
	regs.GET("/stats", rh.RegistrationStats)
	regs.GET("/:id", rh.GetRegistration)
	regs.POST("/:id/submit", rh.SubmitRegistration)
	regs.POST("/:id/confirm", rh.ConfirmRegistration)

	// Maintenance tasks
	r.POST("/tasks/registration-purge", th.RunPurge)

	return r
}
