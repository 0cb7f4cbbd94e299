package player

import (
	"fmt"

	"github.com/orpheus-av/orpheus/internal/engine"
)

// Track identities are value types compared by their fields, never by engine
// handle. That is what lets the catalog collapse formats that differ only in
// bitrate into one user-facing option.

// VideoTrack identifies a selectable video rendition by its dimensions.
type VideoTrack struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoTrackAuto is the sentinel for engine-default adaptive video selection.
var VideoTrackAuto = VideoTrack{}

// DisplayName returns the user-facing label for the track
func (t VideoTrack) DisplayName() string {
	if t == VideoTrackAuto {
		return "Auto"
	}
	return fmt.Sprintf("%dx%d", t.Width, t.Height)
}

// AudioTrack identifies a selectable audio rendition by language.
type AudioTrack struct {
	Language string `json:"language"`
}

// Audio track sentinels
var (
	AudioTrackAuto = AudioTrack{Language: "Auto"}
	AudioTrackNone = AudioTrack{Language: "None"}
)

// DisplayName returns the user-facing label for the track
func (t AudioTrack) DisplayName() string {
	return t.Language
}

// SubtitleTrack identifies a selectable subtitle rendition by language.
type SubtitleTrack struct {
	Language string `json:"language"`
}

// Subtitle track sentinels
var (
	SubtitleTrackAuto = SubtitleTrack{Language: "Auto"}
	SubtitleTrackNone = SubtitleTrack{Language: "None"}
)

// DisplayName returns the user-facing label for the track
func (t SubtitleTrack) DisplayName() string {
	return t.Language
}

// TrackSelectionModel is the snapshot-facing view of the selectable tracks
// and the currently selected identity of each kind.
type TrackSelectionModel struct {
	SelectedVideo    VideoTrack      `json:"selected_video"`
	VideoTracks      []VideoTrack    `json:"video_tracks"`
	SelectedAudio    AudioTrack      `json:"selected_audio"`
	AudioTracks      []AudioTrack    `json:"audio_tracks"`
	SelectedSubtitle SubtitleTrack   `json:"selected_subtitle"`
	SubtitleTracks   []SubtitleTrack `json:"subtitle_tracks"`
}

// catalog maps user-facing track identities of one kind to engine track
// references, preserving insertion order. Sentinel entries carry a nil
// reference and are installed at construction, before any real tracks are
// known; rebuilds only ever add real entries alongside them.
type catalog[T comparable] struct {
	order []T
	refs  map[T]*engine.TrackRef
}

func newCatalog[T comparable](sentinels ...T) *catalog[T] {
	c := &catalog[T]{refs: make(map[T]*engine.TrackRef)}
	for _, s := range sentinels {
		c.order = append(c.order, s)
		c.refs[s] = nil
	}
	return c
}

// add inserts a real track entry. The first occurrence of an identity wins;
// later duplicates (same fields, different bitrate) are collapsed into it.
func (c *catalog[T]) add(t T, ref engine.TrackRef) {
	if _, exists := c.refs[t]; exists {
		return
	}
	c.order = append(c.order, t)
	c.refs[t] = &ref
}

// tracks returns all identities in insertion order, sentinels first.
func (c *catalog[T]) tracks() []T {
	out := make([]T, len(c.order))
	copy(out, c.order)
	return out
}

// ref looks up the engine reference for an identity. ok is false when the
// identity is not in the catalog at all; sentinels return (nil, true).
func (c *catalog[T]) ref(t T) (*engine.TrackRef, bool) {
	r, ok := c.refs[t]
	return r, ok
}

// buildCatalogs rebuilds all three catalogs from scratch from the engine's
// reported groups. Partial updates risk stale-handle bugs, so there is no
// incremental path.
func buildCatalogs(groups []engine.TrackGroup) (video *catalog[VideoTrack], audio *catalog[AudioTrack], subtitle *catalog[SubtitleTrack]) {
	video = newCatalog(VideoTrackAuto)
	audio = newCatalog(AudioTrackAuto, AudioTrackNone)
	subtitle = newCatalog(SubtitleTrackAuto, SubtitleTrackNone)

	for groupIndex, group := range groups {
		for trackIndex, format := range group.Formats {
			ref := engine.TrackRef{GroupIndex: groupIndex, TrackIndex: trackIndex}
			switch group.Type {
			case engine.TrackTypeVideo:
				video.add(VideoTrack{Width: format.Width, Height: format.Height}, ref)
			case engine.TrackTypeAudio:
				// Formats without a language tag are not user-selectable
				if format.Language != "" {
					audio.add(AudioTrack{Language: format.Language}, ref)
				}
			case engine.TrackTypeText:
				if format.Language != "" {
					subtitle.add(SubtitleTrack{Language: format.Language}, ref)
				}
			}
		}
	}
	return video, audio, subtitle
}
