package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orpheus-av/orpheus/internal/player"
)

// HealthResponse represents the response from the health check endpoint
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Time   string `json:"time"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	controller playbackController
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(controller playbackController) *HealthHandler {
	return &HealthHandler{controller: controller}
}

// Check handles the health check endpoint
func (h *HealthHandler) Check(c *gin.Context) {
	snap := h.controller.Snapshot()

	response := HealthResponse{
		Status: "ok",
		State:  snap.State.String(),
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if snap.State == player.StateError {
		response.Status = "degraded"
	}

	c.JSON(http.StatusOK, response)
}

// SetupHealthRoutes registers health check routes
func SetupHealthRoutes(apiGroup *gin.RouterGroup, controller playbackController) {
	handler := NewHealthHandler(controller)
	apiGroup.GET("/health", handler.Check)
}
