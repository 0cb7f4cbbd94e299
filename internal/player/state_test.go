package player

import (
	"errors"
	"testing"

	"github.com/orpheus-av/orpheus/internal/engine"
)

func TestProjectState(t *testing.T) {
	decodeErr := errors.New("decoder init failed")

	tests := []struct {
		name          string
		engState      engine.State
		playWhenReady bool
		engineErr     error
		want          State
	}{
		{"idle without error", engine.StateIdle, false, nil, StateIdle},
		{"idle with error", engine.StateIdle, false, decodeErr, StateError},
		{"idle with error and play intent", engine.StateIdle, true, decodeErr, StateError},
		{"buffering", engine.StateBuffering, true, nil, StateBuffering},
		{"buffering without play intent", engine.StateBuffering, false, nil, StateBuffering},
		{"ready playing", engine.StateReady, true, nil, StatePlaying},
		{"ready paused", engine.StateReady, false, nil, StatePaused},
		{"ended", engine.StateEnded, true, nil, StateCompleted},
		{"ended without play intent", engine.StateEnded, false, nil, StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectState(tt.engState, tt.playWhenReady, tt.engineErr)
			if got != tt.want {
				t.Errorf("ProjectState(%v, %v, %v) = %v, want %v",
					tt.engState, tt.playWhenReady, tt.engineErr, got, tt.want)
			}
		})
	}
}

func TestStateIsValid(t *testing.T) {
	valid := []State{StateIdle, StateBuffering, StatePlaying, StatePaused, StateError, StateCompleted}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []State{"", "stopped", "PLAYING"}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestStatePositionBearing(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateBuffering, false},
		{StatePlaying, true},
		{StatePaused, true},
		{StateError, false},
		{StateCompleted, false},
	}

	for _, tt := range tests {
		if got := tt.state.PositionBearing(); got != tt.want {
			t.Errorf("%v.PositionBearing() = %v, want %v", tt.state, got, tt.want)
		}
	}
}
