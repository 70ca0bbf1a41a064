package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Negixaab/runningbuddy/internal/middleware"
	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/service"
	"github.com/Negixaab/runningbuddy/internal/spatial"
	"github.com/Negixaab/runningbuddy/pkg/response"
)

// RunHandler handles HTTP requests for runs
type RunHandler struct {
	service *service.RunService
}

// NewRunHandler creates a new run handler
func NewRunHandler(service *service.RunService) *RunHandler {
	return &RunHandler{service: service}
}

type createRunRequest struct {
	Name        string          `json:"name"`
	Distance    *float64        `json:"distance"`
	Duration    *float64        `json:"duration"`
	StartTime   *time.Time      `json:"start_time"`
	PathGeoJSON json.RawMessage `json:"path_geojson"`
}

// CreateRun handles POST /api/v1/runs
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid run payload: distance and duration must be numbers")
		return
	}

	path, err := parsePathGeoJSON(req.PathGeoJSON)
	if err != nil {
		response.BadRequest(c, "Invalid path_geojson: "+err.Error())
		return
	}

	run, err := h.service.Create(c.Request.Context(), middleware.UserID(c), models.RunInput{
		Name:            req.Name,
		DistanceKm:      req.Distance,
		DurationSeconds: req.Duration,
		StartTime:       req.StartTime,
		Path:            path,
	})
	if err != nil {
		respondError(c, err, "Failed to create run")
		return
	}

	response.Created(c, run)
}

// GetRuns handles GET /api/v1/runs
func (h *RunHandler) GetRuns(c *gin.Context) {
	runs, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to get runs")
		return
	}
	response.Success(c, runs)
}

// GetWeeklySummary handles GET /api/v1/runs/summary
func (h *RunHandler) GetWeeklySummary(c *gin.Context) {
	summary, err := h.service.WeeklySummary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to get weekly summary")
		return
	}
	response.Success(c, summary)
}

// parsePathGeoJSON accepts a LineString object or the same object encoded
// as a JSON string. Absent or null means no path.
func parsePathGeoJSON(raw json.RawMessage) ([]models.TrackPoint, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		raw = json.RawMessage(s)
	}

	var ls models.LineString
	if err := json.Unmarshal(raw, &ls); err != nil {
		return nil, errors.New("not a GeoJSON LineString")
	}
	return spatial.DecodeLineString(&ls)
}
