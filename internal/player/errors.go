package player

import "errors"

// Boundary errors surfaced to action submitters before any engine interaction
var (
	// ErrMissingStreamURL indicates Init was submitted without a stream URL
	ErrMissingStreamURL = errors.New("stream URL is required")

	// ErrNoMediaLoaded indicates Start was submitted before any Init
	ErrNoMediaLoaded = errors.New("no media loaded")

	// ErrControllerClosed indicates the controller has been torn down
	ErrControllerClosed = errors.New("controller has been closed")
)

// IsMissingStreamURL checks if the error is a missing stream URL error
func IsMissingStreamURL(err error) bool {
	return errors.Is(err, ErrMissingStreamURL)
}

// IsNoMediaLoaded checks if the error is a no media loaded error
func IsNoMediaLoaded(err error) bool {
	return errors.Is(err, ErrNoMediaLoaded)
}

// IsControllerClosed checks if the error is a controller closed error
func IsControllerClosed(err error) bool {
	return errors.Is(err, ErrControllerClosed)
}
