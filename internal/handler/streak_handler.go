package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Negixaab/runningbuddy/internal/middleware"
	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/service"
	"github.com/Negixaab/runningbuddy/pkg/response"
)

// StreakHandler handles HTTP requests for streaks
type StreakHandler struct {
	service *service.StreakService
}

// NewStreakHandler creates a new streak handler
func NewStreakHandler(service *service.StreakService) *StreakHandler {
	return &StreakHandler{service: service}
}

// GetStreak handles GET /api/v1/users/streak
func (h *StreakHandler) GetStreak(c *gin.Context) {
	streak, err := h.service.Compute(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to get streak")
		return
	}
	response.Success(c, models.Streak{Streak: streak})
}
