package player

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/orpheus-av/orpheus/internal/engine"
)

// TimelineModel is the reconciled content timeline: how long the item is,
// where the playhead sits, and how far ahead data is buffered.
type TimelineModel struct {
	DurationMs int64 `json:"duration_ms"`
	PositionMs int64 `json:"position_ms"`
	BufferedMs int64 `json:"buffered_ms"`
}

// AdBreak describes the ad currently playing. It exists only while an ad is
// active and is cleared when the last ad of its group completes.
type AdBreak struct {
	// Index is the 1-based position of the current ad within its group
	Index      int   `json:"index"`
	TotalAds   int   `json:"total_ads"`
	DurationMs int64 `json:"duration_ms"`
	PositionMs int64 `json:"position_ms"`
}

// AdMarker is one scrubber marker for an ad group on the content timeline.
type AdMarker struct {
	PositionMs int64 `json:"position_ms"`
	HasPlayed  bool  `json:"has_played"`
}

// AdModel is the normalized ad state: the active break (if any) plus the
// marker list. Markers persist across breaks for the life of a loaded item.
type AdModel struct {
	CurrentBreak *AdBreak   `json:"current_break,omitempty"`
	Markers      []AdMarker `json:"markers"`
}

func (m *AdModel) clone() *AdModel {
	if m == nil {
		return nil
	}
	out := &AdModel{Markers: make([]AdMarker, len(m.Markers))}
	copy(out.Markers, m.Markers)
	if m.CurrentBreak != nil {
		brk := *m.CurrentBreak
		out.CurrentBreak = &brk
	}
	return out
}

// Snapshot is the complete, immutable, UI-facing state value. Every change
// constructs a new snapshot from the prior one plus a delta; it is never
// partially mutated after publication.
type Snapshot struct {
	AspectRatio          float64              `json:"aspect_ratio"`
	Fullscreen           bool                 `json:"fullscreen"`
	PlaceholderVisible   bool                 `json:"placeholder_visible"`
	ControlsVisible      bool                 `json:"controls_visible"`
	State                State                `json:"state"`
	Timeline             *TimelineModel       `json:"timeline,omitempty"`
	Tracks               *TrackSelectionModel `json:"tracks,omitempty"`
	TrackSelectorVisible bool                 `json:"track_selector_visible"`
	Cues                 []engine.Cue         `json:"cues"`
	Ads                  *AdModel             `json:"ads,omitempty"`
}

// AdActive reports whether an ad break is currently playing.
func (s Snapshot) AdActive() bool {
	return s.Ads != nil && s.Ads.CurrentBreak != nil
}

// AllowSeek reports whether the scrubber and the relative/absolute seek
// controls should be offered. Ad playback is not user-scrubbable.
func (s Snapshot) AllowSeek() bool {
	return s.Timeline != nil && !s.AdActive()
}

// AllowTrackSelector reports whether the settings affordance should be offered.
func (s Snapshot) AllowTrackSelector() bool {
	return !s.AdActive()
}

// MarshalJSON serializes the derived UI gates alongside the raw fields so
// wire consumers do not have to re-derive them from the ad state.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot
	return json.Marshal(struct {
		alias
		AllowSeek          bool `json:"allow_seek"`
		AllowTrackSelector bool `json:"allow_track_selector"`
	}{
		alias:              alias(s),
		AllowSeek:          s.AllowSeek(),
		AllowTrackSelector: s.AllowTrackSelector(),
	})
}

// Store holds the single published snapshot and fans updates out to
// subscribers. Producers hand it complete replacement values; the store does
// no merging of its own.
type Store struct {
	mu         sync.RWMutex
	current    Snapshot
	subs       map[uuid.UUID]chan Snapshot
	bufferSize int
	closed     bool
}

// Subscription is a live, continuously updated view of the snapshot.
// C yields every published snapshot, starting with the one current at
// subscribe time; it is closed when the subscription is cancelled or the
// store shuts down.
type Subscription struct {
	ID    uuid.UUID
	C     <-chan Snapshot
	store *Store
}

// Cancel detaches the subscription from the store. Idempotent.
func (s *Subscription) Cancel() {
	s.store.unsubscribe(s.ID)
}

// NewStore creates a snapshot store seeded with the given initial value.
func NewStore(initial Snapshot, bufferSize int) *Store {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Store{
		current:    initial,
		subs:       make(map[uuid.UUID]chan Snapshot),
		bufferSize: bufferSize,
	}
}

// Current returns the currently published snapshot
func (st *Store) Current() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Update atomically replaces the snapshot with fn(previous) and publishes the
// result to all subscribers. Returns the published value.
func (st *Store) Update(fn func(Snapshot) Snapshot) Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := fn(st.current)
	st.current = next

	for _, ch := range st.subs {
		// Slow subscribers miss intermediate values rather than
		// blocking the control loop
		select {
		case ch <- next:
		default:
		}
	}
	return next
}

// Subscribe registers a new observer. The current snapshot is delivered first.
func (st *Store) Subscribe() *Subscription {
	st.mu.Lock()
	defer st.mu.Unlock()

	ch := make(chan Snapshot, st.bufferSize)
	sub := &Subscription{ID: uuid.New(), C: ch, store: st}
	if st.closed {
		close(ch)
		return sub
	}
	ch <- st.current
	st.subs[sub.ID] = ch
	return sub
}

func (st *Store) unsubscribe(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if ch, ok := st.subs[id]; ok {
		delete(st.subs, id)
		close(ch)
	}
}

// Close shuts the store down, closing every subscriber channel. Idempotent.
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	st.closed = true
	for id, ch := range st.subs {
		delete(st.subs, id)
		close(ch)
	}
}
