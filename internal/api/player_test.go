package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orpheus-av/orpheus/internal/logger"
	"github.com/orpheus-av/orpheus/internal/player"
)

func TestMain(m *testing.M) {
	logger.Init("error", false)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeController is a scriptable playbackController double backed by a real
// snapshot store so event streaming behaves like production.
type fakeController struct {
	mu        sync.Mutex
	store     *player.Store
	submitted []player.Action
	submitErr error
	viewOps   []string
}

func newFakeController(initial player.Snapshot) *fakeController {
	return &fakeController{store: player.NewStore(initial, 16)}
}

func (f *fakeController) Snapshot() player.Snapshot       { return f.store.Current() }
func (f *fakeController) Subscribe() *player.Subscription { return f.store.Subscribe() }

func (f *fakeController) Submit(action player.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, action)
	return nil
}

func (f *fakeController) actions() []player.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]player.Action, len(f.submitted))
	copy(out, f.submitted)
	return out
}

func (f *fakeController) view(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewOps = append(f.viewOps, op)
}

func (f *fakeController) views() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.viewOps))
	copy(out, f.viewOps)
	return out
}

func (f *fakeController) ShowControls()      { f.view("show_controls") }
func (f *fakeController) HideControls()      { f.view("hide_controls") }
func (f *fakeController) EnterFullscreen()   { f.view("enter_fullscreen") }
func (f *fakeController) ExitFullscreen()    { f.view("exit_fullscreen") }
func (f *fakeController) ShowTrackSelector() { f.view("show_track_selector") }
func (f *fakeController) HideTrackSelector() { f.view("hide_track_selector") }

func setupTestRouter(ctrl *fakeController) *gin.Engine {
	router := gin.New()
	apiGroup := router.Group("/api")
	SetupPlayerRoutes(apiGroup, ctrl, 15_000)
	SetupHealthRoutes(apiGroup, ctrl)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetSnapshot(t *testing.T) {
	ctrl := newFakeController(player.Snapshot{
		State:              player.StatePlaying,
		AspectRatio:        16.0 / 9.0,
		PlaceholderVisible: false,
		Timeline:           &player.TimelineModel{DurationMs: 600_000, PositionMs: 120_000},
	})
	router := setupTestRouter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/player", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snap player.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, player.StatePlaying, snap.State)
	require.NotNil(t, snap.Timeline)
	assert.Equal(t, int64(120_000), snap.Timeline.PositionMs)
}

func TestSubmitActionMappings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want player.Action
	}{
		{
			"init",
			`{"type":"init","stream_url":"https://cdn.example.com/movie.m3u8","ad_tag_url":"https://ads.example.com/vmap"}`,
			player.Init{StreamURL: "https://cdn.example.com/movie.m3u8", AdTagURL: "https://ads.example.com/vmap"},
		},
		{"start", `{"type":"start"}`, player.Start{}},
		{"pause", `{"type":"pause"}`, player.Pause{}},
		{"resume", `{"type":"resume"}`, player.Resume{}},
		{"stop", `{"type":"stop"}`, player.Stop{}},
		{"seek", `{"type":"seek","target_ms":250000}`, player.Seek{TargetMs: 250_000}},
		{"rewind with amount", `{"type":"rewind","amount_ms":5000}`, player.Rewind{AmountMs: 5_000}},
		{"rewind defaults to transport step", `{"type":"rewind"}`, player.Rewind{AmountMs: 15_000}},
		{"fast forward defaults to transport step", `{"type":"fast_forward"}`, player.FastForward{AmountMs: 15_000}},
		{
			"video track",
			`{"type":"set_video_track","width":1280,"height":720}`,
			player.SetVideoTrack{Track: player.VideoTrack{Width: 1280, Height: 720}},
		},
		{
			"video track auto",
			`{"type":"set_video_track"}`,
			player.SetVideoTrack{Track: player.VideoTrackAuto},
		},
		{
			"audio track",
			`{"type":"set_audio_track","language":"pt"}`,
			player.SetAudioTrack{Track: player.AudioTrack{Language: "pt"}},
		},
		{
			"subtitle track none",
			`{"type":"set_subtitle_track","language":"None"}`,
			player.SetSubtitleTrack{Track: player.SubtitleTrackNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFakeController(player.Snapshot{State: player.StateIdle})
			router := setupTestRouter(ctrl)

			w := postJSON(t, router, "/api/player/actions", tt.body)
			require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

			actions := ctrl.actions()
			require.Len(t, actions, 1)
			assert.Equal(t, tt.want, actions[0])
		})
	}
}

func TestSubmitActionRetryUsesLastPosition(t *testing.T) {
	ctrl := newFakeController(player.Snapshot{
		State:    player.StateError,
		Timeline: &player.TimelineModel{DurationMs: 600_000, PositionMs: 340_000},
	})
	router := setupTestRouter(ctrl)

	w := postJSON(t, router, "/api/player/actions", `{"type":"retry"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	actions := ctrl.actions()
	require.Len(t, actions, 1)
	start, ok := actions[0].(player.Start)
	require.True(t, ok)
	require.NotNil(t, start.PositionMs)
	assert.Equal(t, int64(340_000), *start.PositionMs)
}

func TestSubmitActionRetryWithoutTimeline(t *testing.T) {
	ctrl := newFakeController(player.Snapshot{State: player.StateError})
	router := setupTestRouter(ctrl)

	w := postJSON(t, router, "/api/player/actions", `{"type":"retry"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	actions := ctrl.actions()
	require.Len(t, actions, 1)
	start, ok := actions[0].(player.Start)
	require.True(t, ok)
	assert.Nil(t, start.PositionMs, "no sampled position means start from the beginning")
}

func TestSubmitActionBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing type", `{}`},
		{"unknown type", `{"type":"eject"}`},
		{"seek without target", `{"type":"seek"}`},
		{"audio track without language", `{"type":"set_audio_track"}`},
		{"subtitle track without language", `{"type":"set_subtitle_track"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFakeController(player.Snapshot{})
			router := setupTestRouter(ctrl)

			w := postJSON(t, router, "/api/player/actions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, ctrl.actions())
		})
	}
}

func TestSubmitActionErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		submitErr  error
		wantStatus int
		wantError  string
	}{
		{"missing stream url", player.ErrMissingStreamURL, http.StatusBadRequest, "missing_stream_url"},
		{"no media loaded", player.ErrNoMediaLoaded, http.StatusConflict, "no_media_loaded"},
		{"controller closed", player.ErrControllerClosed, http.StatusServiceUnavailable, "controller_closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFakeController(player.Snapshot{})
			ctrl.submitErr = tt.submitErr
			router := setupTestRouter(ctrl)

			w := postJSON(t, router, "/api/player/actions", `{"type":"pause"}`)
			require.Equal(t, tt.wantStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestSetView(t *testing.T) {
	ctrl := newFakeController(player.Snapshot{})
	router := setupTestRouter(ctrl)

	ops := []string{
		"show_controls", "hide_controls",
		"enter_fullscreen", "exit_fullscreen",
		"show_track_selector", "hide_track_selector",
	}
	for _, op := range ops {
		w := postJSON(t, router, "/api/player/view", `{"op":"`+op+`"}`)
		require.Equal(t, http.StatusAccepted, w.Code)
	}
	assert.Equal(t, ops, ctrl.views())

	w := postJSON(t, router, "/api/player/view", `{"op":"self_destruct"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	ctrl := newFakeController(player.Snapshot{State: player.StatePlaying})
	router := setupTestRouter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "playing", resp.State)
}

func TestHealthCheckDegradedOnError(t *testing.T) {
	ctrl := newFakeController(player.Snapshot{State: player.StateError})
	router := setupTestRouter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestStreamEvents(t *testing.T) {
	ctrl := newFakeController(player.Snapshot{State: player.StateIdle})
	router := setupTestRouter(ctrl)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/player/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)

	readEvent := func() string {
		t.Helper()
		var data string
		deadline := time.After(5 * time.Second)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				line, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				if strings.HasPrefix(line, "data:") {
					data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
					return
				}
			}
		}()
		select {
		case <-done:
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
		return data
	}

	// The snapshot current at connect time arrives first
	var snap player.Snapshot
	require.NoError(t, json.Unmarshal([]byte(readEvent()), &snap))
	assert.Equal(t, player.StateIdle, snap.State)

	ctrl.store.Update(func(prev player.Snapshot) player.Snapshot {
		prev.State = player.StateBuffering
		return prev
	})

	require.NoError(t, json.Unmarshal([]byte(readEvent()), &snap))
	assert.Equal(t, player.StateBuffering, snap.State)

	// Closing the store ends the stream
	ctrl.store.Close()
	_, readErr := reader.ReadString('\n')
	for readErr == nil {
		_, readErr = reader.ReadString('\n')
	}
}
