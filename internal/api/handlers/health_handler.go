package handlers

import (
	"net/http"

	"norelock.dev/mediagate/backend/internal/services/system"
	"norelock.dev/mediagate/backend/internal/utils"
)

// RootMessage is returned by GET /.
const RootMessage = "Backend Manga + Music running"

// HealthHandler handles HTTP requests related to system health.
type HealthHandler struct {
	logger    *utils.Logger
	healthSvc *system.HealthService
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *utils.Logger, healthSvc *system.HealthService) *HealthHandler {
	return &HealthHandler{
		logger:    logger.Named("health_handler"),
		healthSvc: healthSvc,
	}
}

// Root answers the liveness banner.
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": RootMessage})
}

// Check handles requests to check the health of the system. Degraded optional
// components still answer 200.
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	health := h.healthSvc.GetHealth()

	statusCode := http.StatusOK
	if health.Status == system.StatusDown {
		h.logger.Warn("Health check reports down", "components", len(health.Components))
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, statusCode, health)
}
