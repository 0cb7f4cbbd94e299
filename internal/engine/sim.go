package engine

import (
	"errors"
	"sync"
	"time"
)

const (
	simPrepareDelay = 200 * time.Millisecond
	simTickInterval = 200 * time.Millisecond
)

// ErrNoMediaSource indicates Prepare was called before a media source was set
var ErrNoMediaSource = errors.New("no media source set")

// Sim is a clock-driven engine implementation for local runs and demos. It
// fakes a fixed-duration media item with a canned track inventory and,
// when an ad tag is configured, a pre-roll, a mid-roll, and a post-roll
// ad group. Playback position advances against the wall clock.
type Sim struct {
	mu            sync.Mutex
	listeners     []Listener
	ads           *SimAdsLoader
	src           MediaSource
	hasSource     bool
	state         State
	playWhenReady bool
	playing       bool
	err           error
	durationMs    int64
	positionMs    int64
	anchor        time.Time
	surface       Surface
	selection     SelectionParams
	adGroups      []AdGroupInfo
	pendingAdDone bool

	stopChan chan struct{}
	tickDone chan struct{}
	released bool
}

// NewSim creates a simulated engine for a media item of the given duration.
func NewSim(duration time.Duration) *Sim {
	s := &Sim{
		state:      StateIdle,
		durationMs: duration.Milliseconds(),
		stopChan:   make(chan struct{}),
		tickDone:   make(chan struct{}),
	}
	go s.runTicks()
	return s
}

// AddListener registers a callback listener
func (s *Sim) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetMediaSource loads a new media item, replacing any prior one
func (s *Sim) SetMediaSource(src MediaSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = src
	s.hasSource = true
	s.err = nil
	s.positionMs = 0
	s.playing = false
	s.adGroups = nil
	if src.AdTagURL != "" {
		s.adGroups = []AdGroupInfo{
			{TimeUs: 0},
			{TimeUs: s.durationMs / 2 * 1000},
			{TimeUs: TimeEndOfSource},
		}
	}
}

// Prepare starts loading the media item
func (s *Sim) Prepare() {
	s.mu.Lock()
	if !s.hasSource {
		s.err = ErrNoMediaSource
		s.state = StateIdle
		listeners := s.snapshotListeners()
		s.mu.Unlock()
		for _, l := range listeners {
			l.OnError(ErrNoMediaSource)
			l.OnStateChanged(StateIdle)
		}
		return
	}
	s.state = StateBuffering
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnStateChanged(StateBuffering)
	}
	time.AfterFunc(simPrepareDelay, s.becomeReady)
}

func (s *Sim) becomeReady() {
	s.mu.Lock()
	if s.released || s.state != StateBuffering {
		s.mu.Unlock()
		return
	}
	s.state = StateReady
	if s.playWhenReady {
		s.playing = true
		s.anchor = time.Now()
	}
	playing := s.playing
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnStateChanged(StateReady)
		l.OnTracksChanged(simTrackGroups())
		l.OnVideoSizeChanged(VideoSize{Width: 1920, Height: 1080, PixelAspectRatio: 1.0})
		if playing {
			l.OnIsPlayingChanged(true)
		}
	}
}

// Play resumes or starts playback
func (s *Sim) Play() {
	s.mu.Lock()
	s.playWhenReady = true
	wasPlaying := s.playing
	if s.state == StateReady && !s.playing {
		s.playing = true
		s.anchor = time.Now()
	}
	nowPlaying := s.playing
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if nowPlaying && !wasPlaying {
		for _, l := range listeners {
			l.OnIsPlayingChanged(true)
		}
	}
}

// Pause pauses playback, freezing the playhead
func (s *Sim) Pause() {
	s.mu.Lock()
	s.playWhenReady = false
	wasPlaying := s.playing
	if s.playing {
		s.positionMs = s.positionLocked()
		s.playing = false
	}
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if wasPlaying {
		for _, l := range listeners {
			l.OnIsPlayingChanged(false)
		}
	}
}

// Stop halts playback and returns to idle. The media source is retained.
func (s *Sim) Stop() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.positionMs = s.positionLocked()
	s.playing = false
	s.playWhenReady = false
	s.state = StateIdle
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnIsPlayingChanged(false)
		l.OnStateChanged(StateIdle)
	}
}

// SeekTo moves the playhead, clamping to the media bounds
func (s *Sim) SeekTo(positionMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if positionMs < 0 {
		positionMs = 0
	}
	if positionMs > s.durationMs {
		positionMs = s.durationMs
	}
	s.positionMs = positionMs
	s.anchor = time.Now()
}

// SetVideoSurface binds or unbinds the render target
func (s *Sim) SetVideoSurface(surface Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surface
}

// Release tears the simulated pipeline down. Idempotent.
func (s *Sim) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.playing = false
	s.state = StateIdle
	s.mu.Unlock()

	close(s.stopChan)
	<-s.tickDone
}

// State returns the current engine state
func (s *Sim) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayWhenReady returns whether playback should start once ready
func (s *Sim) PlayWhenReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playWhenReady
}

// Err returns the most recent engine failure, if any
func (s *Sim) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Position returns the current playhead in milliseconds
func (s *Sim) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

// Duration returns the media duration, or TimeUnset before the item is prepared
func (s *Sim) Duration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle || s.state == StateBuffering {
		return TimeUnset
	}
	return s.durationMs
}

// ContentPosition returns the content-timeline playhead. The sim plays ads
// inline with zero length, so the content and item timelines coincide.
func (s *Sim) ContentPosition() int64 { return s.Position() }

// ContentDuration returns the content-timeline duration
func (s *Sim) ContentDuration() int64 { return s.Duration() }

// ContentBufferedPosition returns how far ahead of the playhead data is buffered
func (s *Sim) ContentBufferedPosition() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	buffered := s.positionLocked() + 10_000
	if buffered > s.durationMs {
		buffered = s.durationMs
	}
	return buffered
}

// Timeline returns the current timeline including ad group metadata
func (s *Sim) Timeline() Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSource {
		return Timeline{Empty: true}
	}
	groups := make([]AdGroupInfo, len(s.adGroups))
	copy(groups, s.adGroups)
	return Timeline{AdGroups: groups}
}

// SelectionParams returns the current track selection parameters
func (s *Sim) SelectionParams() SelectionParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetSelectionParams installs track selection parameters
func (s *Sim) SetSelectionParams(params SelectionParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = params
}

// positionLocked computes the playhead; callers must hold s.mu.
func (s *Sim) positionLocked() int64 {
	pos := s.positionMs
	if s.playing {
		pos += time.Since(s.anchor).Milliseconds()
	}
	if pos > s.durationMs {
		pos = s.durationMs
	}
	return pos
}

func (s *Sim) snapshotListeners() []Listener {
	out := make([]Listener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

// runTicks drives end-of-media detection and ad group playout
func (s *Sim) runTicks() {
	defer close(s.tickDone)

	ticker := time.NewTicker(simTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Sim) tick() {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	pos := s.positionLocked()

	var adEvents []AdEvent
	if s.pendingAdDone {
		s.pendingAdDone = false
		adEvents = append(adEvents, AdEvent{Type: AdEventCompleted, Pod: AdPod{Position: 1, TotalAds: 1}})
	}
	for i := range s.adGroups {
		if s.adGroups[i].HasPlayed {
			continue
		}
		groupMs := s.adGroups[i].TimeUs / 1000
		if s.adGroups[i].TimeUs == TimeEndOfSource {
			groupMs = s.durationMs
		}
		if pos >= groupMs {
			s.adGroups[i].HasPlayed = true
			s.pendingAdDone = true
			adEvents = append(adEvents, AdEvent{Type: AdEventProgress, Pod: AdPod{Position: 1, TotalAds: 1}})
			break
		}
	}

	ended := pos >= s.durationMs && !s.pendingAdDone
	if ended {
		s.positionMs = s.durationMs
		s.playing = false
		s.state = StateEnded
	}
	ads := s.ads
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if ads != nil {
		for _, e := range adEvents {
			ads.emit(e)
		}
	}
	if ended {
		for _, l := range listeners {
			l.OnIsPlayingChanged(false)
			l.OnStateChanged(StateEnded)
		}
	}
}

// SimAdsLoader is the ad collaborator counterpart of Sim. It replays the
// sim engine's ad group crossings as progress/completed events.
type SimAdsLoader struct {
	mu sync.Mutex
	fn func(AdEvent)
}

// NewSimAdsLoader creates an ads loader bound to the given sim engine.
func NewSimAdsLoader(s *Sim) *SimAdsLoader {
	loader := &SimAdsLoader{}
	s.mu.Lock()
	s.ads = loader
	s.mu.Unlock()
	return loader
}

// SetEventListener registers the ad event callback
func (a *SimAdsLoader) SetEventListener(fn func(AdEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fn = fn
}

// Release tears the loader down
func (a *SimAdsLoader) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fn = nil
}

func (a *SimAdsLoader) emit(e AdEvent) {
	a.mu.Lock()
	fn := a.fn
	a.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}

func simTrackGroups() []TrackGroup {
	return []TrackGroup{
		{
			Type: TrackTypeVideo,
			Formats: []Format{
				{Width: 1920, Height: 1080, Bitrate: 5000},
				{Width: 1280, Height: 720, Bitrate: 2800},
				{Width: 1280, Height: 720, Bitrate: 1400},
				{Width: 854, Height: 480, Bitrate: 800},
			},
		},
		{
			Type: TrackTypeAudio,
			Formats: []Format{
				{Language: "en", Bitrate: 128},
				{Language: "pt", Bitrate: 128},
			},
		},
		{
			Type: TrackTypeText,
			Formats: []Format{
				{Language: "en"},
				{Language: "es"},
			},
		},
	}
}
