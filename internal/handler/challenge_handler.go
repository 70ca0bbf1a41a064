package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Negixaab/runningbuddy/internal/middleware"
	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/service"
	"github.com/Negixaab/runningbuddy/pkg/response"
)

// ChallengeHandler handles HTTP requests for challenges
type ChallengeHandler struct {
	service *service.ChallengeService
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(service *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

type startChallengeRequest struct {
	Deadline *time.Time `json:"deadline"`
}

type endChallengeRequest struct {
	Status models.ChallengeStatus `json:"status"`
}

// GetChallenges handles GET /api/v1/challenges
func (h *ChallengeHandler) GetChallenges(c *gin.Context) {
	templates, err := h.service.ListAvailable(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to get challenges")
		return
	}
	response.Success(c, templates)
}

// GetToday handles GET /api/v1/challenges/today
func (h *ChallengeHandler) GetToday(c *gin.Context) {
	uc, err := h.service.GetOrAssignDaily(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to get today's challenge")
		return
	}
	response.Success(c, uc)
}

// GetActive handles GET /api/v1/challenges/active; data is null when none is active
func (h *ChallengeHandler) GetActive(c *gin.Context) {
	uc, err := h.service.GetActive(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to get active challenge")
		return
	}
	if uc == nil {
		response.Success(c, nil)
		return
	}
	response.Success(c, uc)
}

// StartChallenge handles POST /api/v1/challenges/:id/start, where :id is a template id
func (h *ChallengeHandler) StartChallenge(c *gin.Context) {
	var req startChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: deadline must be an RFC 3339 timestamp")
		return
	}

	var deadline time.Time
	if req.Deadline != nil {
		deadline = *req.Deadline
	}

	uc, err := h.service.StartTimed(c.Request.Context(), middleware.UserID(c), c.Param("id"), deadline)
	if err != nil {
		respondError(c, err, "Failed to start challenge")
		return
	}
	response.Created(c, uc)
}

// EndChallenge handles POST /api/v1/challenges/:id/end, where :id is an instance id
func (h *ChallengeHandler) EndChallenge(c *gin.Context) {
	var req endChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: status is required")
		return
	}

	if err := h.service.End(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status); err != nil {
		respondError(c, err, "Failed to end challenge")
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "status": req.Status})
}
