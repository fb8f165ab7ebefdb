package location

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound is returned when the settings file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrUnknownLocation is returned for a location outside the known set or missing from the file.
	ErrUnknownLocation = errors.New("unknown location")

	// ErrMissingField is returned when a required key is absent or empty.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidField is returned when a key holds a value of the wrong shape.
	ErrInvalidField = errors.New("invalid field")

	// ErrUnsupportedPlatform is returned when no destination key exists for the OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrSecretNotFound is returned by a SecretStore holding no password for a location.
	ErrSecretNotFound = errors.New("secret not found")
)

// ConfigurationError reports a problem found before any browser work starts.
type ConfigurationError struct {
	Location string
	Key      string
	Err      error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Location != "" && e.Key != "":
		return fmt.Sprintf("configuration error: [%s] %s: %v", e.Location, e.Key, e.Err)
	case e.Location != "":
		return fmt.Sprintf("configuration error: [%s]: %v", e.Location, e.Err)
	case e.Key != "":
		return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
