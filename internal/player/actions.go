package player

import "github.com/orpheus-av/orpheus/internal/engine"

// Action is a user-originated playback command. Each action maps to exactly
// one engine call when dispatched on the control loop.
type Action interface {
	isAction()
}

// Init loads a new media item, optionally with an ad tag. Must be submitted
// before Start.
type Init struct {
	StreamURL string
	AdTagURL  string
}

// Start prepares the engine and begins playback, optionally seeking first.
// Used both for the initial start and for an error-state retry.
type Start struct {
	PositionMs *int64
}

// Pause holds playback. Tolerated as a no-op if already paused.
type Pause struct{}

// Resume releases a pause. Tolerated as a no-op if already playing.
type Resume struct{}

// Stop halts the engine and releases its active resources. Idempotent.
type Stop struct{}

// Seek moves the playhead to an absolute position. The engine clamps the
// target, not the controller.
type Seek struct {
	TargetMs int64
}

// Rewind seeks backwards relative to the current position.
type Rewind struct {
	AmountMs int64
}

// FastForward seeks forwards relative to the current position.
type FastForward struct {
	AmountMs int64
}

// AttachSurface binds the render target to the engine.
type AttachSurface struct {
	Surface engine.Surface
}

// DetachSurface unbinds the render target. Tolerated with no prior attach.
type DetachSurface struct{}

// SetVideoTrack applies a video track override.
type SetVideoTrack struct {
	Track VideoTrack
}

// SetAudioTrack applies an audio track override.
type SetAudioTrack struct {
	Track AudioTrack
}

// SetSubtitleTrack applies a subtitle track override.
type SetSubtitleTrack struct {
	Track SubtitleTrack
}

func (Init) isAction()             {}
func (Start) isAction()            {}
func (Pause) isAction()            {}
func (Resume) isAction()           {}
func (Stop) isAction()             {}
func (Seek) isAction()             {}
func (Rewind) isAction()           {}
func (FastForward) isAction()      {}
func (AttachSurface) isAction()    {}
func (DetachSurface) isAction()    {}
func (SetVideoTrack) isAction()    {}
func (SetAudioTrack) isAction()    {}
func (SetSubtitleTrack) isAction() {}
