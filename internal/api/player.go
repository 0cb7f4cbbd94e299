// Package api provides HTTP handlers for the REST API endpoints.
package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orpheus-av/orpheus/internal/logger"
	"github.com/orpheus-av/orpheus/internal/player"
)

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// playbackController defines the interface required by PlayerHandler
type playbackController interface {
	Snapshot() player.Snapshot
	Subscribe() *player.Subscription
	Submit(action player.Action) error
	ShowControls()
	HideControls()
	EnterFullscreen()
	ExitFullscreen()
	ShowTrackSelector()
	HideTrackSelector()
}

// PlayerHandler handles playback-related API requests
type PlayerHandler struct {
	controller    playbackController
	transportStep int64
}

// NewPlayerHandler creates a new player handler instance. transportStepMs is
// the relative seek distance applied when a rewind or fast-forward request
// carries no explicit amount.
func NewPlayerHandler(controller playbackController, transportStepMs int64) *PlayerHandler {
	return &PlayerHandler{
		controller:    controller,
		transportStep: transportStepMs,
	}
}

// actionRequest is the JSON envelope for POST /player/actions. Type selects
// the action; the remaining fields apply only to the types that need them.
type actionRequest struct {
	Type       string `json:"type" binding:"required"`
	StreamURL  string `json:"stream_url,omitempty"`
	AdTagURL   string `json:"ad_tag_url,omitempty"`
	PositionMs *int64 `json:"position_ms,omitempty"`
	TargetMs   *int64 `json:"target_ms,omitempty"`
	AmountMs   *int64 `json:"amount_ms,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Language   string `json:"language,omitempty"`
}

// viewRequest is the JSON body for POST /player/view
type viewRequest struct {
	Op string `json:"op" binding:"required"`
}

// GetSnapshot handles GET /player
func (h *PlayerHandler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// SubmitAction handles POST /player/actions
func (h *PlayerHandler) SubmitAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	action, err := h.buildAction(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_action",
			Message: err.Error(),
		})
		return
	}

	if err := h.controller.Submit(action); err != nil {
		status, code := actionErrorStatus(err)
		c.JSON(status, ErrorResponse{
			Error:   code,
			Message: err.Error(),
		})
		return
	}

	logger.Log.Debug().
		Str("action", req.Type).
		Msg("Playback action accepted")

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// buildAction maps the request envelope to a playback action.
func (h *PlayerHandler) buildAction(req actionRequest) (player.Action, error) {
	switch req.Type {
	case "init":
		return player.Init{StreamURL: req.StreamURL, AdTagURL: req.AdTagURL}, nil

	case "start":
		return player.Start{PositionMs: req.PositionMs}, nil

	case "retry":
		// Resume from where the last good sample left the playhead
		action := player.Start{}
		if timeline := h.controller.Snapshot().Timeline; timeline != nil {
			pos := timeline.PositionMs
			action.PositionMs = &pos
		}
		return action, nil

	case "pause":
		return player.Pause{}, nil

	case "resume":
		return player.Resume{}, nil

	case "stop":
		return player.Stop{}, nil

	case "seek":
		if req.TargetMs == nil {
			return nil, fmt.Errorf("seek requires target_ms")
		}
		return player.Seek{TargetMs: *req.TargetMs}, nil

	case "rewind":
		return player.Rewind{AmountMs: h.amountOrStep(req.AmountMs)}, nil

	case "fast_forward":
		return player.FastForward{AmountMs: h.amountOrStep(req.AmountMs)}, nil

	case "set_video_track":
		return player.SetVideoTrack{Track: player.VideoTrack{Width: req.Width, Height: req.Height}}, nil

	case "set_audio_track":
		if req.Language == "" {
			return nil, fmt.Errorf("set_audio_track requires language")
		}
		return player.SetAudioTrack{Track: player.AudioTrack{Language: req.Language}}, nil

	case "set_subtitle_track":
		if req.Language == "" {
			return nil, fmt.Errorf("set_subtitle_track requires language")
		}
		return player.SetSubtitleTrack{Track: player.SubtitleTrack{Language: req.Language}}, nil

	default:
		return nil, fmt.Errorf("unknown action type: %q", req.Type)
	}
}

func (h *PlayerHandler) amountOrStep(amount *int64) int64 {
	if amount != nil && *amount > 0 {
		return *amount
	}
	return h.transportStep
}

// actionErrorStatus maps controller boundary errors to HTTP status codes.
func actionErrorStatus(err error) (int, string) {
	switch {
	case player.IsMissingStreamURL(err):
		return http.StatusBadRequest, "missing_stream_url"
	case player.IsNoMediaLoaded(err):
		return http.StatusConflict, "no_media_loaded"
	case player.IsControllerClosed(err):
		return http.StatusServiceUnavailable, "controller_closed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// SetView handles POST /player/view
func (h *PlayerHandler) SetView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	switch req.Op {
	case "show_controls":
		h.controller.ShowControls()
	case "hide_controls":
		h.controller.HideControls()
	case "enter_fullscreen":
		h.controller.EnterFullscreen()
	case "exit_fullscreen":
		h.controller.ExitFullscreen()
	case "show_track_selector":
		h.controller.ShowTrackSelector()
	case "hide_track_selector":
		h.controller.HideTrackSelector()
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_view_op",
			Message: fmt.Sprintf("unknown view op: %q", req.Op),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// StreamEvents handles GET /player/events
// Serves the snapshot stream as server-sent events, starting with the
// snapshot current at connect time.
func (h *PlayerHandler) StreamEvents(c *gin.Context) {
	sub := h.controller.Subscribe()
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	logger.Log.Debug().
		Str("client_ip", c.ClientIP()).
		Msg("Snapshot event stream opened")

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case snap, ok := <-sub.C:
			if !ok {
				// Controller shut down
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		}
	})

	logger.Log.Debug().
		Str("client_ip", c.ClientIP()).
		Msg("Snapshot event stream closed")
}

// SetupPlayerRoutes registers playback routes
func SetupPlayerRoutes(apiGroup *gin.RouterGroup, controller playbackController, transportStepMs int64) {
	handler := NewPlayerHandler(controller, transportStepMs)
	apiGroup.GET("/player", handler.GetSnapshot)
	apiGroup.GET("/player/events", handler.StreamEvents)
	apiGroup.POST("/player/actions", handler.SubmitAction)
	apiGroup.POST("/player/view", handler.SetView)
}
