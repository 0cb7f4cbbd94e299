// Package engine defines the port through which the playback controller talks
// to an external playback pipeline (decode/render/buffer) and its ad-insertion
// counterpart. The controller only issues commands, pulls positions, and reacts
// to callbacks; everything behind this interface is a black box.
package engine

import "math"

// Position sentinels, in the engine's native units.
const (
	// TimeUnset marks an unknown duration or position (milliseconds).
	TimeUnset int64 = math.MinInt64 + 1
	// TimeEndOfSource marks an ad group anchored to the end of the media
	// (a post-roll) in the timeline metadata (microseconds).
	TimeEndOfSource int64 = math.MinInt64
)

// State is the engine-reported lifecycle state of the loaded media item.
type State int

// Engine lifecycle states
const (
	StateIdle State = iota + 1
	StateBuffering
	StateReady
	StateEnded
)

// String returns the string representation of the engine state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// TrackType identifies the kind of stream a track group carries.
type TrackType int

// Track group types
const (
	TrackTypeVideo TrackType = iota + 1
	TrackTypeAudio
	TrackTypeText
)

// Format describes a single track within a group as the engine reports it.
type Format struct {
	Width    int
	Height   int
	Language string
	Bitrate  int
}

// TrackGroup is one engine-reported group of alternative formats of one type.
type TrackGroup struct {
	Type    TrackType
	Formats []Format
}

// TrackRef is the opaque engine handle for one track: the group it belongs to
// and its index within that group. Only valid until the next tracks-changed
// callback.
type TrackRef struct {
	GroupIndex int
	TrackIndex int
}

// SelectionParams carries the controller's track overrides back to the engine.
// A nil override means automatic selection for that type.
type SelectionParams struct {
	VideoOverride *TrackRef
	AudioOverride *TrackRef
	TextOverride  *TrackRef
	AudioDisabled bool
	TextDisabled  bool
}

// VideoSize is the engine-reported video dimensions.
type VideoSize struct {
	Width            int
	Height           int
	PixelAspectRatio float64
}

// Known reports whether the engine has resolved the video dimensions yet.
func (v VideoSize) Known() bool {
	return v.Width > 0 && v.Height > 0
}

// Cue is one subtitle cue currently on screen.
type Cue struct {
	Text string `json:"text"`
}

// MediaSource identifies the media to load. URLs are opaque to the controller.
type MediaSource struct {
	StreamURL string
	AdTagURL  string
}

// AdGroupInfo is the timeline metadata for one ad group.
type AdGroupInfo struct {
	// TimeUs is the group position in microseconds, or TimeEndOfSource for a post-roll.
	TimeUs    int64
	HasPlayed bool
}

// Timeline is the engine's view of the loaded item's timeline.
type Timeline struct {
	Empty    bool
	AdGroups []AdGroupInfo
}

// Surface is an opaque render target handed through to the engine.
type Surface any

// Listener is the callback surface the controller implements and registers
// with the engine. One method per event; implementations must not block.
type Listener interface {
	OnVideoSizeChanged(size VideoSize)
	OnIsPlayingChanged(isPlaying bool)
	OnStateChanged(state State)
	OnError(err error)
	OnTracksChanged(groups []TrackGroup)
	OnCuesChanged(cues []Cue)
}

// Engine is the playback pipeline port. Commands are fire-and-forget; reads
// are synchronous pulls of the engine's current view.
type Engine interface {
	AddListener(l Listener)

	SetMediaSource(src MediaSource)
	Prepare()
	Play()
	Pause()
	Stop()
	SeekTo(positionMs int64)
	SetVideoSurface(s Surface)
	Release()

	State() State
	PlayWhenReady() bool
	Err() error

	// Position reads the playhead on whatever timeline is active (ad or
	// content); Duration reads the active item's duration. The Content*
	// variants ignore inserted ads. All return milliseconds or TimeUnset.
	Position() int64
	Duration() int64
	ContentPosition() int64
	ContentDuration() int64
	ContentBufferedPosition() int64

	Timeline() Timeline
	SelectionParams() SelectionParams
	SetSelectionParams(params SelectionParams)
}
