package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Negixaab/runningbuddy/internal/middleware"
	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/recorder"
	"github.com/Negixaab/runningbuddy/internal/service"
	"github.com/Negixaab/runningbuddy/internal/spatial"
)

// Live session message types
const (
	msgPosition = "position"
	msgError    = "error"
	msgStop     = "stop"
	msgTick     = "tick"
	msgSaved    = "saved"

	codeLocationUnavailable = "location_unavailable"
	codeInvalidRun          = "invalid_run"
	codeInternal            = "internal_error"

	writeWait = 10 * time.Second
)

// LiveRunHandler streams a live recording session over a websocket.
// The client forwards its position fixes; the server pushes stats once per
// push interval and persists the run on stop.
type LiveRunHandler struct {
	service      *service.RunService
	upgrader     websocket.Upgrader
	newRecorder  func() *recorder.Recorder
	pushInterval time.Duration
	now          func() time.Time
}

// LiveOption configures a LiveRunHandler
type LiveOption func(*LiveRunHandler)

// WithRecorderFactory replaces the recorder constructor
func WithRecorderFactory(fn func() *recorder.Recorder) LiveOption {
	return func(h *LiveRunHandler) { h.newRecorder = fn }
}

// WithPushInterval sets how often tick messages are sent
func WithPushInterval(d time.Duration) LiveOption {
	return func(h *LiveRunHandler) { h.pushInterval = d }
}

// NewLiveRunHandler creates a new live run handler
func NewLiveRunHandler(service *service.RunService, opts ...LiveOption) *LiveRunHandler {
	h := &LiveRunHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newRecorder:  func() *recorder.Recorder { return recorder.New() },
		pushInterval: recorder.TickInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type clientMessage struct {
	Type      string   `json:"type"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Accuracy  float64  `json:"accuracy"`
	Speed     *float64 `json:"speed"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
	Name      string   `json:"name"`
	Message   string   `json:"message"`
}

type tickMessage struct {
	Type string `json:"type"`
	recorder.Stats
	Points [][2]float64 `json:"points"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type savedMessage struct {
	Type string      `json:"type"`
	Run  *models.Run `json:"run"`
}

func (m clientMessage) position(now time.Time) recorder.Position {
	ts := now
	if m.Timestamp > 0 {
		ts = time.UnixMilli(m.Timestamp)
	}
	return recorder.Position{
		Coordinate: models.Coordinate{
			Latitude:  m.Lat,
			Longitude: m.Lon,
			Accuracy:  m.Accuracy,
			Speed:     m.Speed,
		},
		Timestamp: ts,
	}
}

// StreamRun handles GET /api/v1/runs/live
func (h *LiveRunHandler) StreamRun(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[LiveRun] upgrade failed for user=%s: %v", userID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	src := recorder.NewChannelSource()
	defer src.Close()

	rec := h.newRecorder()
	if err := rec.Start(ctx, src); err != nil {
		log.Printf("[LiveRun] start failed for user=%s: %v", userID, err)
		h.write(conn, errorMessage{Type: msgError, Code: codeLocationUnavailable, Message: err.Error()})
		return
	}

	stops := make(chan string, 1)
	readErrs := make(chan error, 1)
	go h.readLoop(conn, src, stops, readErrs)

	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := rec.Snapshot()
			if err != nil {
				continue
			}
			if err := h.write(conn, tickMessage{Type: msgTick, Stats: stats, Points: spatial.ToLatLon(stats.Path)}); err != nil {
				log.Printf("[LiveRun] write tick failed for user=%s: %v", userID, err)
				rec.Stop()
				return
			}

		case <-rec.Done():
			_, err := rec.Stop()
			log.Printf("[LiveRun] recording failed for user=%s: %v", userID, err)
			h.write(conn, errorMessage{Type: msgError, Code: codeLocationUnavailable, Message: "location unavailable"})
			return

		case name := <-stops:
			h.finish(ctx, conn, rec, userID, name)
			return

		case err := <-readErrs:
			if _, stopErr := rec.Stop(); stopErr != nil && !errors.Is(stopErr, recorder.ErrNotRunning) {
				log.Printf("[LiveRun] stop after disconnect for user=%s: %v", userID, stopErr)
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[LiveRun] read failed for user=%s: %v", userID, err)
			}
			return
		}
	}
}

// finish stops the recorder and persists the trajectory as a run
func (h *LiveRunHandler) finish(ctx context.Context, conn *websocket.Conn, rec *recorder.Recorder, userID, name string) {
	traj, err := rec.Stop()
	if err != nil {
		log.Printf("[LiveRun] stop failed for user=%s: %v", userID, err)
		h.write(conn, errorMessage{Type: msgError, Code: codeLocationUnavailable, Message: "location unavailable"})
		return
	}

	run, err := h.service.Create(ctx, userID, traj.RunInput(name, h.now()))
	if err != nil {
		code := codeInternal
		msg := "failed to save run"
		if errors.Is(err, service.ErrValidation) {
			code = codeInvalidRun
			msg = service.Message(err)
		} else {
			log.Printf("[LiveRun] save failed for user=%s: %v", userID, err)
		}
		h.write(conn, errorMessage{Type: msgError, Code: code, Message: msg})
		return
	}

	log.Printf("[LiveRun] saved run=%s user=%s distance=%.2fkm duration=%ds", run.ID, userID, run.DistanceKm, run.DurationSeconds)
	if err := h.write(conn, savedMessage{Type: msgSaved, Run: run}); err != nil {
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// readLoop is the connection's only reader
func (h *LiveRunHandler) readLoop(conn *websocket.Conn, src *recorder.ChannelSource, stops chan<- string, errs chan<- error) {
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			errs <- err
			return
		}

		switch msg.Type {
		case msgPosition:
			if err := src.Push(msg.position(h.now())); err != nil {
				return
			}
		case msgError:
			reason := msg.Message
			if reason == "" {
				reason = "client reported a location error"
			}
			if err := src.Fail(errors.New(reason)); err != nil {
				return
			}
		case msgStop:
			stops <- msg.Name
			return
		default:
			log.Printf("[LiveRun] ignoring message type %q", msg.Type)
		}
	}
}

func (h *LiveRunHandler) write(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
