package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything readiness can probe, such as the Redis row cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	dependencies map[string]Pinger
}

func NewHandler(dependencies map[string]Pinger) *Handler {
	return &Handler{dependencies: dependencies}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, NewSuccessResponse(gin.H{"status": "alive"}))
}

// ReadinessCheck probes each registered dependency with a short deadline and
// reports per-dependency health.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	if status != http.StatusOK {
		c.JSON(status, NewErrorResponse("not ready"))
		return
	}
	c.JSON(status, NewSuccessResponse(checks))
}
