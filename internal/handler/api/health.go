package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"VolaPulse/pkg/logger"
)

// HealthHandler serves the ops health endpoint.
type HealthHandler struct {
	log       *logger.Logger
	queueType string
	mode      string
	started   time.Time
}

func NewHealthHandler(log *logger.Logger, queueType, mode string) *HealthHandler {
	return &HealthHandler{
		log:       log,
		queueType: queueType,
		mode:      mode,
		started:   time.Now(),
	}
}

// RegisterRoutes mounts the health endpoint on the ops server.
func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
}

func (h *HealthHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"queue_type":     h.queueType,
		"output_mode":    h.mode,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}
