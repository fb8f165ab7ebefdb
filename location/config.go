package location

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Known is the set of locations the tool can retrieve backups for.
var Known = []string{"Ferndale", "Detroit"}

// CheckKnown fails with ErrUnknownLocation unless name is in Known.
func CheckKnown(name string) error {
	if slices.Contains(Known, name) {
		return nil
	}
	return &ConfigurationError{
		Location: name,
		Err:      fmt.Errorf("%w: valid locations are %s", ErrUnknownLocation, strings.Join(Known, ", ")),
	}
}

// Checkpoints are the URLs the page must reach after each navigation step.
type Checkpoints struct {
	Index string
	Admin string
	Data  string
}

// Config is everything one run needs for one location.
type Config struct {
	Name string

	// Timeout bounds the browser launch and every checkpoint wait.
	Timeout         time.Duration
	DownloadTimeout time.Duration
	ActionTimeout   time.Duration
	Headless        bool

	User     string
	Password string
	LoginURL string

	// FileDestinationPath is already resolved for the running platform.
	FileDestinationPath string
	FileName            string

	Checkpoints       Checkpoints
	UserDisplayString string

	// ArchivePrefix is the key prefix used when mirroring to the archive store.
	ArchivePrefix string
}

// Validate checks that every required field is present.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyUser, c.User},
		{KeyPassword, c.Password},
		{KeyURL, c.LoginURL},
		{"file_destination", c.FileDestinationPath},
		{KeyFileName, c.FileName},
		{KeyIndexCheckpoint, c.Checkpoints.Index},
		{KeyAdminCheckpoint, c.Checkpoints.Admin},
		{KeyDataCheckpoint, c.Checkpoints.Data},
		{KeyUserDisplayString, c.UserDisplayString},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if c.Timeout <= 0 {
		missing = append(missing, KeyTimeout)
	}
	if c.DownloadTimeout <= 0 {
		missing = append(missing, KeyDownloadTimeout)
	}
	if len(missing) > 0 {
		return &ConfigurationError{
			Location: c.Name,
			Key:      strings.Join(missing, ", "),
			Err:      ErrMissingField,
		}
	}
	return nil
}

// Redacted returns the config as display fields with the password masked.
func (c *Config) Redacted() map[string]interface{} {
	return map[string]interface{}{
		"location":            c.Name,
		"timeout":             c.Timeout.String(),
		"download_timeout":    c.DownloadTimeout.String(),
		"action_timeout":      c.ActionTimeout.String(),
		"headless":            c.Headless,
		"user":                c.User,
		"password":            mask(c.Password),
		"url":                 c.LoginURL,
		"file_destination":    c.FileDestinationPath,
		"file_name":           c.FileName,
		"index_checkpoint":    c.Checkpoints.Index,
		"admin_checkpoint":    c.Checkpoints.Admin,
		"data_checkpoint":     c.Checkpoints.Data,
		"user_display_string": c.UserDisplayString,
		"archive_prefix":      c.ArchivePrefix,
	}
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "****"
}
