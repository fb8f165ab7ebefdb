package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/marinxz/n-playwright-3.9/browser"
	"github.com/marinxz/n-playwright-3.9/location"
)

var (
	// ErrValidation is returned when the downloaded file is missing or empty.
	ErrValidation = errors.New("download validation failed")

	// ErrRelocation is returned when the artifact cannot be copied to its destination.
	ErrRelocation = errors.New("relocation failed")

	// ErrUnexpected wraps a panic recovered at the workflow boundary.
	ErrUnexpected = errors.New("unexpected failure")
)

// StepError records the state a run failed in.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Reason labels the failure class of err for logs, status lines and history.
func Reason(err error) string {
	var cfgErr *location.ConfigurationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.Is(err, browser.ErrLaunch):
		return "launch_error"
	case errors.Is(err, browser.ErrElementNotFound):
		return "element_not_found"
	case errors.Is(err, browser.ErrElementAmbiguous):
		return "element_ambiguous"
	case errors.Is(err, browser.ErrNavigationTimeout):
		return "navigation_timeout"
	case errors.Is(err, browser.ErrCheckpointTimeout):
		return "checkpoint_timeout"
	case errors.Is(err, browser.ErrDownloadTimeout):
		return "download_timeout"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrRelocation):
		return "relocation_error"
	case errors.Is(err, browser.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "unexpected"
}
