package player

import "github.com/orpheus-av/orpheus/internal/engine"

// State represents the canonical playback state published to observers
type State string

// Playback states
const (
	StateIdle      State = "idle"      // Nothing prepared, or stopped
	StateBuffering State = "buffering" // Engine is loading or re-buffering
	StatePlaying   State = "playing"   // Media is advancing
	StatePaused    State = "paused"    // Ready but held
	StateError     State = "error"     // Engine reported a failure; retry via Start
	StateCompleted State = "completed" // Playback reached the end of the item
)

// String returns the string representation of the playback state
func (s State) String() string {
	return string(s)
}

// IsValid checks if the playback state is a known valid value
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateBuffering, StatePlaying, StatePaused, StateError, StateCompleted:
		return true
	default:
		return false
	}
}

// PositionBearing reports whether the state carries a live playhead, i.e. the
// position sampler should be running while in it.
func (s State) PositionBearing() bool {
	return s == StatePlaying || s == StatePaused
}

// ProjectState maps the engine-reported lifecycle signals to the canonical
// playback state. It is a pure function: replaying the same signals always
// yields the same state. The controller never invents a transition beyond
// this projection.
func ProjectState(engState engine.State, playWhenReady bool, engineErr error) State {
	switch engState {
	case engine.StateIdle:
		if engineErr != nil {
			return StateError
		}
		return StateIdle
	case engine.StateBuffering:
		return StateBuffering
	case engine.StateReady:
		if playWhenReady {
			return StatePlaying
		}
		return StatePaused
	case engine.StateEnded:
		return StateCompleted
	default:
		return StateIdle
	}
}
