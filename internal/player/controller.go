// Package player implements the playback controller: it turns asynchronous
// engine events, ad events, user actions, and a periodic position poll into
// one coherent, continuously published snapshot of playback state.
package player

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/orpheus-av/orpheus/internal/config"
	"github.com/orpheus-av/orpheus/internal/engine"
	"github.com/orpheus-av/orpheus/internal/logger"
)

const callQueueDepth = 64

// Controller owns the engine and its ad-loader counterpart and maintains the
// canonical playback snapshot. All shared state lives on a single control
// goroutine: engine callbacks, ad events, user actions, and sampler ticks are
// serialized onto it through a closure queue, so no snapshot update can
// observe another one mid-flight.
type Controller struct {
	engine engine.Engine
	ads    engine.AdsLoader
	store  *Store
	cfg    config.PlayerConfig
	log    zerolog.Logger

	calls   chan func()
	quit    chan struct{}
	runDone chan struct{}

	closeOnce   sync.Once
	mediaLoaded atomic.Bool

	// Control-loop-owned state below; never touched off the run goroutine.
	sampler          *sampler
	videoCatalog     *catalog[VideoTrack]
	audioCatalog     *catalog[AudioTrack]
	subtitleCatalog  *catalog[SubtitleTrack]
	selectedVideo    VideoTrack
	selectedAudio    AudioTrack
	selectedSubtitle SubtitleTrack
}

// New creates a controller bound to the given engine and ads loader and
// starts its control loop. The ads loader may be nil when no ad integration
// is configured. The controller assumes exclusive ownership of both
// collaborators and releases them on Close.
func New(eng engine.Engine, ads engine.AdsLoader, cfg config.PlayerConfig) *Controller {
	c := &Controller{
		engine:           eng,
		ads:              ads,
		cfg:              cfg,
		log:              logger.Component("player"),
		calls:            make(chan func(), callQueueDepth),
		quit:             make(chan struct{}),
		runDone:          make(chan struct{}),
		selectedVideo:    VideoTrackAuto,
		selectedAudio:    AudioTrackAuto,
		selectedSubtitle: SubtitleTrackAuto,
	}
	c.videoCatalog, c.audioCatalog, c.subtitleCatalog = buildCatalogs(nil)

	c.store = NewStore(Snapshot{
		AspectRatio:        cfg.DefaultAspectRatio,
		PlaceholderVisible: true,
		State:              StateIdle,
	}, cfg.SnapshotBufferSize)

	go c.run()

	eng.AddListener(engineEvents{c})
	if ads != nil {
		ads.SetEventListener(c.onAdEvent)
	}

	c.log.Info().
		Dur("sample_interval", cfg.SampleInterval).
		Bool("ads_enabled", ads != nil).
		Msg("Playback controller started")

	return c
}

// Snapshot returns the currently published snapshot
func (c *Controller) Snapshot() Snapshot {
	return c.store.Current()
}

// Subscribe returns a live, continuously updated view of the snapshot
func (c *Controller) Subscribe() *Subscription {
	return c.store.Subscribe()
}

// Submit validates and dispatches a user action onto the control loop.
// Boundary failures (missing stream URL, Start before Init, closed
// controller) are returned to the caller before any engine interaction.
func (c *Controller) Submit(action Action) error {
	switch a := action.(type) {
	case Init:
		if strings.TrimSpace(a.StreamURL) == "" {
			return ErrMissingStreamURL
		}
	case Start:
		if !c.mediaLoaded.Load() {
			return ErrNoMediaLoaded
		}
	}

	if !c.post(func() { c.dispatch(action) }) {
		return ErrControllerClosed
	}

	// Marked at submit time so an immediately following Start is accepted
	// even before the Init closure has run
	if _, ok := action.(Init); ok {
		c.mediaLoaded.Store(true)
	}
	return nil
}

// Close tears the controller down: the sampler is cancelled after one last
// read, the store stops publishing, and the engine and ads loader are
// released exactly once, regardless of playback state. Idempotent.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.runDone
	})
}

// View-state operations. Fire-and-forget: they mutate only snapshot
// presentation flags and are silently dropped once the controller is closed.

// ShowControls makes the playback controls visible
func (c *Controller) ShowControls() { c.setControlsVisible(true) }

// HideControls hides the playback controls
func (c *Controller) HideControls() { c.setControlsVisible(false) }

// EnterFullscreen marks the snapshot as fullscreen
func (c *Controller) EnterFullscreen() { c.setFullscreen(true) }

// ExitFullscreen clears the fullscreen flag
func (c *Controller) ExitFullscreen() { c.setFullscreen(false) }

// ShowTrackSelector makes the track selector visible
func (c *Controller) ShowTrackSelector() { c.setTrackSelectorVisible(true) }

// HideTrackSelector hides the track selector
func (c *Controller) HideTrackSelector() { c.setTrackSelectorVisible(false) }

func (c *Controller) setControlsVisible(visible bool) {
	c.post(func() {
		c.store.Update(func(prev Snapshot) Snapshot {
			prev.ControlsVisible = visible
			return prev
		})
	})
}

func (c *Controller) setFullscreen(enabled bool) {
	c.post(func() {
		c.store.Update(func(prev Snapshot) Snapshot {
			prev.Fullscreen = enabled
			return prev
		})
	})
}

func (c *Controller) setTrackSelectorVisible(visible bool) {
	c.post(func() {
		c.store.Update(func(prev Snapshot) Snapshot {
			prev.TrackSelectorVisible = visible
			return prev
		})
	})
}

// post enqueues fn onto the control loop. Returns false if the controller
// has been closed.
func (c *Controller) post(fn func()) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.calls <- fn:
		return true
	case <-c.quit:
		return false
	}
}

// run is the control loop: the single goroutine on which every state
// transition and snapshot publication happens.
func (c *Controller) run() {
	defer close(c.runDone)

	for {
		select {
		case <-c.quit:
			c.teardown()
			return
		case fn := <-c.calls:
			fn()
		}
	}
}

func (c *Controller) teardown() {
	if c.sampler != nil {
		c.sampleTick()
		c.sampler.stop()
		c.sampler = nil
	}
	c.engine.Release()
	if c.ads != nil {
		c.ads.Release()
	}
	c.store.Close()
	c.log.Info().Msg("Playback controller closed")
}

// dispatch executes one user action. Runs on the control loop.
func (c *Controller) dispatch(action Action) {
	switch a := action.(type) {
	case Init:
		c.engine.SetMediaSource(engine.MediaSource{StreamURL: a.StreamURL, AdTagURL: a.AdTagURL})
		c.log.Info().
			Str("stream_url", a.StreamURL).
			Bool("has_ad_tag", a.AdTagURL != "").
			Msg("Media item loaded")

	case Start:
		c.engine.Prepare()
		c.engine.Play()
		if a.PositionMs != nil {
			c.engine.SeekTo(*a.PositionMs)
		}

	case Pause:
		c.engine.Pause()

	case Resume:
		c.engine.Play()

	case Stop:
		c.engine.Stop()

	case Seek:
		// Target clamping is the engine's responsibility
		c.engine.SeekTo(a.TargetMs)

	case Rewind:
		c.engine.SeekTo(c.engine.Position() - a.AmountMs)

	case FastForward:
		c.engine.SeekTo(c.engine.Position() + a.AmountMs)

	case AttachSurface:
		c.engine.SetVideoSurface(a.Surface)

	case DetachSurface:
		c.engine.SetVideoSurface(nil)

	case SetVideoTrack:
		c.setVideoTrack(a.Track)

	case SetAudioTrack:
		c.setAudioTrack(a.Track)

	case SetSubtitleTrack:
		c.setSubtitleTrack(a.Track)
	}
}

// engineEvents adapts the engine callback surface onto the control loop.
type engineEvents struct {
	c *Controller
}

func (e engineEvents) OnVideoSizeChanged(size engine.VideoSize) {
	e.c.post(func() { e.c.handleVideoSizeChanged(size) })
}

func (e engineEvents) OnIsPlayingChanged(isPlaying bool) {
	e.c.post(func() { e.c.handleIsPlayingChanged(isPlaying) })
}

func (e engineEvents) OnStateChanged(state engine.State) {
	e.c.post(func() { e.c.handleStateChanged(state) })
}

func (e engineEvents) OnError(err error) {
	e.c.log.Error().Err(err).Msg("Engine reported playback error")
}

func (e engineEvents) OnTracksChanged(groups []engine.TrackGroup) {
	e.c.post(func() { e.c.handleTracksChanged(groups) })
}

func (e engineEvents) OnCuesChanged(cues []engine.Cue) {
	e.c.post(func() { e.c.handleCuesChanged(cues) })
}

func (c *Controller) onAdEvent(event engine.AdEvent) {
	c.post(func() { c.handleAdEvent(event) })
}

// handleStateChanged projects the engine state into the canonical playback
// state and applies the side effects bound to the transition: placeholder
// visibility, forced controls on error, and sampler start/stop.
func (c *Controller) handleStateChanged(engState engine.State) {
	state := ProjectState(engState, c.engine.PlayWhenReady(), c.engine.Err())

	c.store.Update(func(prev Snapshot) Snapshot {
		prev.State = state
		if state == StateError {
			// The user needs a visible retry affordance
			prev.ControlsVisible = true
		}
		switch engState {
		case engine.StateReady:
			prev.PlaceholderVisible = false
		case engine.StateEnded, engine.StateIdle:
			prev.PlaceholderVisible = true
		}
		return prev
	})

	if state.PositionBearing() {
		c.startSampling()
	} else {
		c.stopSampling()
	}

	c.log.Debug().
		Str("engine_state", engState.String()).
		Str("state", state.String()).
		Msg("Playback state changed")
}

// handleIsPlayingChanged resolves the one engine signal the pure projection
// cannot: is-playing can flip to false while the engine stays ready, which
// must land on paused rather than an unspecified state.
func (c *Controller) handleIsPlayingChanged(isPlaying bool) {
	var state State
	if isPlaying {
		state = StatePlaying
	} else if c.engine.State() == engine.StateReady {
		state = StatePaused
	} else {
		return
	}

	c.store.Update(func(prev Snapshot) Snapshot {
		prev.State = state
		return prev
	})
}

func (c *Controller) handleVideoSizeChanged(size engine.VideoSize) {
	if !size.Known() {
		return
	}
	ratio := size.PixelAspectRatio
	if ratio <= 0 {
		ratio = 1.0
	}
	aspect := float64(size.Width) / (float64(size.Height) / ratio)

	c.store.Update(func(prev Snapshot) Snapshot {
		prev.AspectRatio = aspect
		return prev
	})
}

// handleTracksChanged rebuilds all three catalogs from scratch and republishes
// the selection model. The current selections survive the rebuild untouched.
func (c *Controller) handleTracksChanged(groups []engine.TrackGroup) {
	c.videoCatalog, c.audioCatalog, c.subtitleCatalog = buildCatalogs(groups)

	model := &TrackSelectionModel{
		SelectedVideo:    c.selectedVideo,
		VideoTracks:      c.videoCatalog.tracks(),
		SelectedAudio:    c.selectedAudio,
		AudioTracks:      c.audioCatalog.tracks(),
		SelectedSubtitle: c.selectedSubtitle,
		SubtitleTracks:   c.subtitleCatalog.tracks(),
	}

	c.store.Update(func(prev Snapshot) Snapshot {
		prev.Tracks = model
		return prev
	})

	c.log.Debug().
		Int("video_tracks", len(model.VideoTracks)).
		Int("audio_tracks", len(model.AudioTracks)).
		Int("subtitle_tracks", len(model.SubtitleTracks)).
		Msg("Track catalogs rebuilt")
}

func (c *Controller) handleCuesChanged(cues []engine.Cue) {
	copied := make([]engine.Cue, len(cues))
	copy(copied, cues)

	c.store.Update(func(prev Snapshot) Snapshot {
		prev.Cues = copied
		return prev
	})
}

// handleAdEvent feeds the two ad-lifecycle events the controller consumes.
// Everything else from the ad collaborator is ignored.
func (c *Controller) handleAdEvent(event engine.AdEvent) {
	switch event.Type {
	case engine.AdEventProgress:
		brk := &AdBreak{
			Index:      event.Pod.Position,
			TotalAds:   event.Pod.TotalAds,
			DurationMs: c.engine.Duration(),
			PositionMs: c.engine.Position(),
		}
		c.store.Update(func(prev Snapshot) Snapshot {
			ads := prev.Ads.clone()
			if ads == nil {
				// First ad event creates the ad model lazily
				ads = &AdModel{Markers: []AdMarker{}}
			}
			ads.CurrentBreak = brk
			prev.Ads = ads
			return prev
		})

	case engine.AdEventCompleted:
		c.store.Update(func(prev Snapshot) Snapshot {
			if prev.Ads == nil || prev.Ads.CurrentBreak == nil {
				return prev
			}
			// Only the last ad of the group clears the break; mid-group
			// completions mean another ad is expected next
			if prev.Ads.CurrentBreak.Index != prev.Ads.CurrentBreak.TotalAds {
				return prev
			}
			ads := prev.Ads.clone()
			ads.CurrentBreak = nil
			prev.Ads = ads
			return prev
		})

	default:
	}
}

// startSampling launches the position sampling loop. At most one loop is
// active at a time; a second request while one is running is a no-op.
func (c *Controller) startSampling() {
	if c.sampler != nil {
		return
	}

	s := newSampler(c.cfg.SampleInterval)
	s.tick = func() {
		c.post(func() {
			// A tick that lost the race against stopSampling is discarded
			if c.sampler == s {
				c.sampleTick()
			}
		})
	}
	c.sampler = s
	s.start()

	// Publish the first sample immediately rather than one interval late
	c.sampleTick()
}

// stopSampling cancels the sampling loop after one final synchronous read,
// so the last published timeline is not older than the transition that
// stopped it. Idempotent.
func (c *Controller) stopSampling() {
	if c.sampler == nil {
		return
	}
	c.sampleTick()
	c.sampler.stop()
	c.sampler = nil
}

// sampleTick reads the engine's positions and timeline metadata and
// publishes the reconciled result. Runs on the control loop.
func (c *Controller) sampleTick() {
	timeline := c.buildTimeline()
	markers := c.buildAdMarkers()

	c.store.Update(func(prev Snapshot) Snapshot {
		if timeline != nil {
			prev.Timeline = timeline
		}
		// Markers stay fresh across the whole item whether or not an ad
		// is active
		ads := prev.Ads.clone()
		if ads == nil {
			ads = &AdModel{}
		}
		ads.Markers = markers
		prev.Ads = ads
		return prev
	})
}

// buildTimeline reads the content timeline. Returns nil while the engine
// does not know the duration yet, preserving the previously published value.
func (c *Controller) buildTimeline() *TimelineModel {
	duration := c.engine.ContentDuration()
	if duration == engine.TimeUnset {
		return nil
	}
	return &TimelineModel{
		DurationMs: duration,
		PositionMs: c.engine.ContentPosition(),
		BufferedMs: c.engine.ContentBufferedPosition(),
	}
}

// buildAdMarkers rebuilds the scrubber markers from the engine's timeline ad
// group metadata. A group anchored at end-of-source maps to the content
// duration, modeling a post-roll.
func (c *Controller) buildAdMarkers() []AdMarker {
	markers := make([]AdMarker, 0)

	timeline := c.engine.Timeline()
	if timeline.Empty {
		return markers
	}

	for _, group := range timeline.AdGroups {
		positionMs := group.TimeUs / 1000
		if group.TimeUs == engine.TimeEndOfSource {
			positionMs = c.engine.ContentDuration()
		}
		markers = append(markers, AdMarker{
			PositionMs: positionMs,
			HasPlayed:  group.HasPlayed,
		})
	}
	return markers
}

// setVideoTrack installs a video override, or clears it for the Auto
// sentinel. A track identity absent from the catalog (stale selection after
// a rebuild) is a silent no-op; the engine is not touched and the previous
// selection stays in effect.
func (c *Controller) setVideoTrack(track VideoTrack) {
	params := c.engine.SelectionParams()
	params.VideoOverride = nil

	if track != VideoTrackAuto {
		ref, ok := c.videoCatalog.ref(track)
		if !ok || ref == nil {
			c.log.Debug().
				Str("track", track.DisplayName()).
				Msg("Ignoring selection of unknown video track")
			return
		}
		override := *ref
		params.VideoOverride = &override
	}

	c.selectedVideo = track
	c.engine.SetSelectionParams(params)
	c.echoSelection()
}

func (c *Controller) setAudioTrack(track AudioTrack) {
	params := c.engine.SelectionParams()
	params.AudioOverride = nil
	params.AudioDisabled = track == AudioTrackNone

	if track != AudioTrackAuto && track != AudioTrackNone {
		ref, ok := c.audioCatalog.ref(track)
		if !ok || ref == nil {
			c.log.Debug().
				Str("track", track.DisplayName()).
				Msg("Ignoring selection of unknown audio track")
			return
		}
		override := *ref
		params.AudioOverride = &override
	}

	c.selectedAudio = track
	c.engine.SetSelectionParams(params)
	c.echoSelection()
}

func (c *Controller) setSubtitleTrack(track SubtitleTrack) {
	params := c.engine.SelectionParams()
	params.TextOverride = nil
	params.TextDisabled = track == SubtitleTrackNone

	if track != SubtitleTrackAuto && track != SubtitleTrackNone {
		ref, ok := c.subtitleCatalog.ref(track)
		if !ok || ref == nil {
			c.log.Debug().
				Str("track", track.DisplayName()).
				Msg("Ignoring selection of unknown subtitle track")
			return
		}
		override := *ref
		params.TextOverride = &override
	}

	c.selectedSubtitle = track
	c.engine.SetSelectionParams(params)
	c.echoSelection()
}

// echoSelection republishes the selected identities so the UI can highlight
// them. Skipped until the first catalog rebuild has produced a model.
func (c *Controller) echoSelection() {
	c.store.Update(func(prev Snapshot) Snapshot {
		if prev.Tracks == nil {
			return prev
		}
		model := *prev.Tracks
		model.SelectedVideo = c.selectedVideo
		model.SelectedAudio = c.selectedAudio
		model.SelectedSubtitle = c.selectedSubtitle
		prev.Tracks = &model
		return prev
	})
}
