package engine

// AdEventType identifies the kind of event reported by the ad collaborator.
type AdEventType int

// Ad event types. The controller only consumes Progress and Completed; the
// rest are forwarded by real ad SDKs and ignored.
const (
	AdEventLoaded AdEventType = iota + 1
	AdEventStarted
	AdEventProgress
	AdEventCompleted
	AdEventAllBreaksCompleted
)

// String returns the string representation of AdEventType
func (t AdEventType) String() string {
	switch t {
	case AdEventLoaded:
		return "loaded"
	case AdEventStarted:
		return "started"
	case AdEventProgress:
		return "progress"
	case AdEventCompleted:
		return "completed"
	case AdEventAllBreaksCompleted:
		return "all_breaks_completed"
	default:
		return "unknown"
	}
}

// AdPod describes the position of the current ad within its break.
// Position is 1-based: the first ad of a three-ad break is {1, 3}.
type AdPod struct {
	Position int
	TotalAds int
}

// AdEvent is one event from the ad collaborator.
type AdEvent struct {
	Type AdEventType
	Pod  AdPod
}

// AdsLoader is the ad-insertion collaborator port. Bidding and creative
// rendering happen behind it; the controller only observes events and
// releases the loader on teardown.
type AdsLoader interface {
	SetEventListener(fn func(AdEvent))
	Release()
}
