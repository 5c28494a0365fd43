package v1

import (
	"net/http"

	"github.com/flexprice/invoicer/internal/logger"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

type HealthHandler struct {
	storage Pinger
	logger  *logger.Logger
}

func NewHealthHandler(
	storage Pinger,
	logger *logger.Logger,
) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		logger:  logger,
	}
}

// @Summary Health check
// @Description Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.storage.Ping(); err != nil {
		h.logger.Errorw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
