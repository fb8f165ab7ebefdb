package browser

import "errors"

var (
	// ErrLaunch is returned when the browser engine cannot be started.
	ErrLaunch = errors.New("browser launch failed")

	// ErrElementNotFound is returned when a locator matches nothing in time.
	ErrElementNotFound = errors.New("element not found")

	// ErrElementAmbiguous is returned when a locator without an index matches several elements.
	ErrElementAmbiguous = errors.New("element ambiguous")

	// ErrNavigationTimeout is returned when a navigation is not committed in time.
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrCheckpointTimeout is returned when the page does not reach a checkpoint in time.
	ErrCheckpointTimeout = errors.New("checkpoint timeout")

	// ErrDownloadTimeout is returned when a trigger does not start a download in time.
	ErrDownloadTimeout = errors.New("download timeout")

	// ErrSessionClosed is returned by every operation after Close.
	ErrSessionClosed = errors.New("session closed")
)
